package ledger

import (
	"errors"
	"fmt"
)

type (
	InvalidRecord struct {
		Reason string
	}

	AppendFailed struct {
		Path  string
		Cause error
	}
)

// ErrStopScan aborts a Scan without reporting a failure.
var ErrStopScan = errors.New("stop scan")

func (i InvalidRecord) Error() string {
	return fmt.Sprintf("invalid record: %v", i.Reason)
}

func (a AppendFailed) Error() string {
	return fmt.Sprintf("unable to append to log %v, cause %v", a.Path, a.Cause)
}

func (a AppendFailed) Unwrap() error { return a.Cause }
