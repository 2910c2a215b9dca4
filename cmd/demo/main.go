// Command demo computes factorials through an mvix container and prints the
// rendered states and notifications the way a view would receive them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/uber-go/tally/v4"

	"github.com/comalice/mvix"
	"github.com/comalice/mvix/config"
	"github.com/comalice/mvix/extensibility"
	"github.com/comalice/mvix/lifecycle"
	"github.com/comalice/mvix/production"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	inputs := flag.String("n", "5,20,100,-3,1000", "comma separated factorial inputs")
	traceDir := flag.String("trace", "", "directory for a JSON transition trace")
	dot := flag.Bool("dot", false, "print the observed transition graph as DOT")
	flag.Parse()

	if err := run(*configPath, *inputs, *traceDir, *dot); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(configPath, inputs, traceDir string, dot bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.ID == "" {
		cfg.ID = "factorial-" + uuid.NewString()[:8]
	}
	logger := cfg.Logging.NewLogger(nil)

	numbers, err := parseInputs(inputs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scope := tally.NewTestScope(cfg.Metrics.Prefix, map[string]string{"container": cfg.ID})
	recorder := production.NewRecorder(0)
	opts := []mvix.Option{
		mvix.WithConfig(cfg),
		mvix.WithMetrics(scope),
		mvix.WithPublisher(recorder),
	}
	if traceDir != "" {
		trace, err := production.NewJSONTraceFile(traceDir, cfg.ID)
		if err != nil {
			return err
		}
		opts = append(opts, mvix.WithPublisher(trace))
	}

	machine := extensibility.WithLogging[FactorialState, Compute, factorialAction, Notification](FactorialMachine{}, logger)
	c, err := mvix.New[FactorialState, Compute, factorialAction, Notification](ctx, FactorialState{}, machine, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
		<-c.Done()
	}()

	view := lifecycle.New(ctx, lifecycle.WithLogger(logger))
	defer view.Destroy()
	lifecycle.Collect(view, c.StateStream(), func(s FactorialState) {
		fmt.Printf("[state] %s\n", s)
	})
	lifecycle.Collect(view, c.EventStream(), func(n Notification) {
		fmt.Printf("[notification %s] %s: %s\n", n.RequestID[:8], n.Title, n.Message)
	})
	if err := view.Activate(); err != nil {
		return err
	}

	intents := make(chan Compute)
	c.Attach(extensibility.NewChannelSource(intents))

	stopReport := reportMetrics(scope, time.Duration(cfg.Metrics.ReportIntervalMS)*time.Millisecond)
	defer stopReport()

	for i, n := range numbers {
		// Halfway through, the view goes to the background: results keep
		// coming, notifications wait until it is visible again.
		if i == len(numbers)/2 {
			if err := view.Deactivate(); err != nil {
				return err
			}
			fmt.Println("[view] backgrounded")
		}
		select {
		case intents <- Compute{N: n, RequestID: uuid.NewString()}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	close(intents)

	if err := waitCompleted(ctx, c, len(numbers)); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	fmt.Println("[view] resumed")
	if err := view.Activate(); err != nil {
		return err
	}
	waitDrained(ctx, c)

	if last, ok := recorder.Last(); ok {
		fmt.Printf("last transition #%d: %s\n", last.Seq, last.Action)
	}
	if dot {
		fmt.Print((&production.DOTVisualizer{}).ExportDOT(recorder.Records()))
	}
	printSnapshot(scope)
	return nil
}

func parseInputs(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid input %q: %w", field, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no inputs")
	}
	return out, nil
}

func waitCompleted(ctx context.Context, c *mvix.Container[FactorialState, Compute, factorialAction, Notification], want int) error {
	sub := c.StateStream().Subscribe()
	for {
		s, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		if s.Completed >= want {
			return nil
		}
	}
}

func waitDrained(ctx context.Context, c *mvix.Container[FactorialState, Compute, factorialAction, Notification]) {
	deadline := time.After(2 * time.Second)
	for c.PendingEvents() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// reportMetrics prints the counters every interval until the returned func
// is called. A zero interval disables periodic reports.
func reportMetrics(scope tally.TestScope, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				printSnapshot(scope)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func printSnapshot(scope tally.TestScope) {
	snap := scope.Snapshot()
	lines := make([]string, 0, len(snap.Counters()))
	for _, counter := range snap.Counters() {
		lines = append(lines, fmt.Sprintf("  %s%v = %d", counter.Name(), counter.Tags(), counter.Value()))
	}
	for _, timer := range snap.Timers() {
		lines = append(lines, fmt.Sprintf("  %s: %d samples", timer.Name(), len(timer.Values())))
	}
	sort.Strings(lines)
	fmt.Println("[metrics]")
	fmt.Println(strings.Join(lines, "\n"))
}
