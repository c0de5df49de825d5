// Package file appends connectivity reports to a local NDJSON history file so
// check runs can be compared over time. Explorations are not recorded.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/crimson-sun/preflight/internal/model"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithClock replaces time.Now for the entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Output) { o.now = now }
}

// Entry is one line of the history file.
type Entry struct {
	Kind   string                   `json:"kind"` // always "check"
	At     time.Time                `json:"at"`
	Report model.ConnectivityReport `json:"report"`
}

// Output appends one Entry per connectivity report with buffered I/O and
// optional size-based rotation. Not safe for concurrent use.
type Output struct {
	w       *bufio.Writer
	f       *os.File
	path    string
	maxSize int64 // 0 = no rotation
	written int64
	now     func() time.Time
}

// New opens (or creates) the history file at path.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{path: path, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// WriteReport appends a "check" entry.
func (o *Output) WriteReport(_ context.Context, report model.ConnectivityReport) error {
	return o.append(Entry{Kind: "check", At: o.now().UTC(), Report: report})
}

// WriteExploration does nothing; sampled records stay out of the history.
func (o *Output) WriteExploration(context.Context, model.Exploration) error {
	return nil
}

func (o *Output) append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	if o.maxSize > 0 && o.written > 0 && o.written+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, defaultBufSize)
	o.written = info.Size()
	return nil
}

// rotate renames the current file to {path}.1, shifting older rotations up
// to {path}.10, and opens a fresh file.
func (o *Output) rotate() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	for i := 9; i >= 1; i-- {
		// Missing rotations are expected.
		_ = os.Rename(fmt.Sprintf("%s.%d", o.path, i), fmt.Sprintf("%s.%d", o.path, i+1))
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}

	o.written = 0
	return o.openFile()
}
