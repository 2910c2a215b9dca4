package core

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// TransitionRecord describes one published reduction in a serializable form.
type TransitionRecord struct {
	ContainerID string    `json:"containerID" yaml:"containerID"`
	Seq         uint64    `json:"seq" yaml:"seq"`
	Action      string    `json:"action" yaml:"action"`
	From        string    `json:"from" yaml:"from"`
	To          string    `json:"to" yaml:"to"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// TransitionPublisher receives a record after every successful reduction,
// in reduction order, on the reduction loop goroutine. Implementations must
// return quickly.
type TransitionPublisher interface {
	Publish(ctx context.Context, record TransitionRecord) error
	Close() error
}

// Transition is the typed counterpart of TransitionRecord.
type Transition[S, A any] struct {
	Seq    uint64
	Action A
	From   S
	To     S
	At     time.Time
}

// Record converts t into its serializable form.
func (t Transition[S, A]) Record(containerID string) TransitionRecord {
	return TransitionRecord{
		ContainerID: containerID,
		Seq:         t.Seq,
		Action:      Describe(t.Action),
		From:        Describe(t.From),
		To:          Describe(t.To),
		Timestamp:   t.At,
	}
}

// Describe renders a state, intent, action or event for logs and records.
// Stringers win; nil pointers render as "<nil>" and empty structs fall back
// to their type name.
func Describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "<nil>"
	}
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	if rv.Kind() == reflect.Struct && rv.NumField() == 0 {
		return rv.Type().Name()
	}
	return fmt.Sprintf("%+v", v)
}
