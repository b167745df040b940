package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xforward/config"
	"github.com/trickstertwo/xforward/destination"
)

// consoleSink is a destination that writes one line per forwarded event.
type consoleSink struct {
	name   string
	handle *destination.Handle
	busy   atomic.Bool

	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// spawnSink starts a sink for decl and registers it under decl.Name.
func spawnSink(reg *destination.Registry, decl config.Destination) (*consoleSink, error) {
	w, closer, err := openOutput(decl.Output)
	if err != nil {
		return nil, fmt.Errorf("destination %q: %w", decl.Name, err)
	}
	s := &consoleSink{name: decl.Name, w: bufio.NewWriter(w), closer: closer}
	s.handle = reg.SpawnFunc(decl.Buffer, s.receive)
	if err := reg.Register(decl.Name, s.handle); err != nil {
		s.handle.Stop()
		return nil, fmt.Errorf("destination %q: %w", decl.Name, err)
	}
	return s, nil
}

func (s *consoleSink) receive(m destination.Message) {
	s.busy.Store(true)
	defer s.busy.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch m := m.(type) {
	case destination.LogMessage:
		writeLine(s.w, m)
	case destination.FlushMessage:
		_ = s.w.Flush()
	}
}

func writeLine(w io.Writer, m destination.LogMessage) {
	fmt.Fprintf(w, "%s %-5s %v", m.At.UTC().Format(time.RFC3339Nano), strings.ToUpper(m.Level.String()), m.Message)
	if len(m.Metadata) > 0 {
		keys := make([]string, 0, len(m.Metadata))
		for k := range m.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := json.Marshal(m.Metadata[k])
			if err != nil {
				v = []byte(fmt.Sprintf("%q", fmt.Sprint(m.Metadata[k])))
			}
			fmt.Fprintf(w, " %s=%s", k, v)
		}
	}
	fmt.Fprintln(w)
}

// drain waits until the mailbox is empty and the last message was handled,
// then stops the handle and flushes the output.
func (s *consoleSink) drain(ctx context.Context) {
	s.waitIdle(ctx)
	s.handle.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Flush()
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

func (s *consoleSink) waitIdle(ctx context.Context) {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for len(s.handle.Inbox()) > 0 || s.busy.Load() {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}
