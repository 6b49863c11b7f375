package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	dir, err := os.MkdirTemp("", "mailroom-tests")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	l, err := OpenLog(filepath.Join(dir, "records.log"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendScan(t *testing.T) {
	ctx := context.Background()
	l := tempLog(t)
	require.NoError(t, l.Append(ctx, []byte(`{"n":1}`)))
	require.NoError(t, l.Append(ctx, []byte(`{"n":2}`)))
	var lines []string
	err := l.Scan(ctx, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{`{"n":1}`, `{"n":2}`}, lines)
}

func TestAppendRejectsUnframeableRecords(t *testing.T) {
	ctx := context.Background()
	l := tempLog(t)
	var invalid InvalidRecord
	require.True(t, errors.As(l.Append(ctx, nil), &invalid))
	require.True(t, errors.As(l.Append(ctx, []byte("a\nb")), &invalid))
}

func TestScanSkipsUnterminatedTail(t *testing.T) {
	ctx := context.Background()
	l := tempLog(t)
	require.NoError(t, l.Append(ctx, []byte(`{"n":1}`)))
	// simulate a crash mid-append
	raw, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = raw.Write([]byte(`{"n":2`))
	require.NoError(t, err)
	require.NoError(t, raw.Close())
	var lines []string
	err = l.Scan(ctx, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{`{"n":1}`}, lines)
}

func TestScanStop(t *testing.T) {
	ctx := context.Background()
	l := tempLog(t)
	require.NoError(t, l.Append(ctx, []byte(`{"n":1}`)))
	require.NoError(t, l.Append(ctx, []byte(`{"n":2}`)))
	var seen int
	err := l.Scan(ctx, func(line []byte) error {
		seen++
		return ErrStopScan
	})
	require.NoError(t, err)
	require.Equal(t, 1, seen)
}
