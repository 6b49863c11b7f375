// Package ledger implements the append-only line-record logs used by the
// credential store and the application recorder.
//
// Each record is a single self-contained line. Appends write the serialized
// record plus its terminator in one operation, so a reader never observes a
// record without its terminator: a crash mid-write leaves at most one
// unterminated line at the tail, which readers treat as absent.
package ledger

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

type (
	Log struct {
		mu   sync.Mutex
		out  *os.File
		path string
	}
)

const (
	// plenty for a cover letter, small enough to keep scans honest
	maxRecordSize = 1_000_000
)

func OpenLog(path string) (*Log, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory for log %v, cause %w", path, err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open log %v, cause %w", path, err)
	}
	return &Log{out: out, path: path}, nil
}

// Append durably persists one record. The record must not contain the line
// terminator, since that would break the one-record-per-line framing.
func (l *Log) Append(ctx context.Context, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(record) == 0 || len(record) > maxRecordSize {
		return InvalidRecord{Reason: "record is empty or too large"}
	}
	if bytes.ContainsRune(record, '\n') {
		return InvalidRecord{Reason: "record contains a line terminator"}
	}
	buf := make([]byte, 0, len(record)+1)
	buf = append(buf, record...)
	buf = append(buf, '\n')
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.out.Write(buf)
	if err != nil {
		return AppendFailed{Path: l.path, Cause: err}
	}
	err = l.out.Sync()
	if err != nil {
		return AppendFailed{Path: l.path, Cause: err}
	}
	return nil
}

// Scan reads every terminated line and hands it to fn. Empty lines are
// skipped. Scans open their own read handle, so they interleave freely with
// appends from other goroutines. Returning an error from fn stops the scan,
// ErrStopScan stops it without failing.
func (l *Log) Scan(ctx context.Context, fn func(line []byte) error) error {
	in, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("unable to open log %v for scanning, cause %w", l.path, err)
	}
	defer in.Close()
	rd := bufio.NewReaderSize(in, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := rd.ReadBytes('\n')
		if err == io.EOF {
			// an unterminated tail is a half-written record, not data
			return nil
		} else if err != nil {
			return fmt.Errorf("unable to scan log %v, cause %w", l.path, err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		err = fn(line)
		if err == ErrStopScan {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
