package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/comalice/mvix"
)

// JSONTraceWriter appends every transition record to a writer as one JSON
// object per line. Traces are debugging journals; nothing reads them back
// into a container.
type JSONTraceWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONTraceWriter writes to w. If w is an io.Closer it is closed with the
// writer.
func NewJSONTraceWriter(w io.Writer) *JSONTraceWriter {
	t := &JSONTraceWriter{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// NewJSONTraceFile creates dir if needed and appends to <dir>/<containerID>.jsonl.
func NewJSONTraceFile(dir, containerID string) (*JSONTraceWriter, error) {
	f, err := openTrace(dir, containerID+".jsonl")
	if err != nil {
		return nil, err
	}
	return NewJSONTraceWriter(f), nil
}

func (t *JSONTraceWriter) Publish(_ context.Context, record mvix.TransitionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enc.Encode(record); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func (t *JSONTraceWriter) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// YAMLTraceWriter appends every transition record to a writer as a YAML
// document.
type YAMLTraceWriter struct {
	mu     sync.Mutex
	enc    *yaml.Encoder
	closer io.Closer
}

// NewYAMLTraceWriter writes to w. If w is an io.Closer it is closed with the
// writer.
func NewYAMLTraceWriter(w io.Writer) *YAMLTraceWriter {
	t := &YAMLTraceWriter{enc: yaml.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// NewYAMLTraceFile creates dir if needed and appends to <dir>/<containerID>.yaml.
func NewYAMLTraceFile(dir, containerID string) (*YAMLTraceWriter, error) {
	f, err := openTrace(dir, containerID+".yaml")
	if err != nil {
		return nil, err
	}
	return NewYAMLTraceWriter(f), nil
}

func (t *YAMLTraceWriter) Publish(_ context.Context, record mvix.TransitionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enc.Encode(record); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return nil
}

func (t *YAMLTraceWriter) Close() error {
	t.mu.Lock()
	err := t.enc.Close()
	t.mu.Unlock()
	if t.closer != nil {
		return errors.Join(err, t.closer.Close())
	}
	return err
}

func openTrace(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	fn := filepath.Join(dir, name)
	f, err := os.OpenFile(fn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fn, err)
	}
	return f, nil
}

// ReadJSONTrace decodes a trace written by JSONTraceWriter.
func ReadJSONTrace(r io.Reader) ([]mvix.TransitionRecord, error) {
	dec := json.NewDecoder(r)
	var records []mvix.TransitionRecord
	for {
		var rec mvix.TransitionRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("json decode record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// ReadYAMLTrace decodes a trace written by YAMLTraceWriter.
func ReadYAMLTrace(r io.Reader) ([]mvix.TransitionRecord, error) {
	dec := yaml.NewDecoder(r)
	var records []mvix.TransitionRecord
	for {
		var rec mvix.TransitionRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("yaml decode record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// LoadTrace reads a trace file, choosing the format by extension.
func LoadTrace(path string) ([]mvix.TransitionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAMLTrace(f)
	default:
		return ReadJSONTrace(f)
	}
}
