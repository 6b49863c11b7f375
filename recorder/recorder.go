// Package recorder appends job-application submissions to a durable,
// write-only audit log. Records are immutable and never read back by the
// service itself.
package recorder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andrebq/mailroom/ledger"
)

type (
	Record struct {
		Timestamp time.Time `json:"timestamp"`
		// Identity is the email of the authenticated account that submitted
		// the application, Email is whatever contact address the form said.
		// They usually match but nothing forces them to.
		Identity    string `json:"identity"`
		FullName    string `json:"full_name"`
		Email       string `json:"email"`
		CoverLetter string `json:"cover_letter"`
		// Resume references an artifact in the artifact store, the bytes
		// themselves never travel through the recorder.
		Resume     string `json:"resume"`
		SourceAddr string `json:"source_addr"`
	}

	Recorder struct {
		log *ledger.Log
	}
)

func Open(path string) (*Recorder, error) {
	log, err := ledger.OpenLog(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{log: log}, nil
}

// Submit validates rec and appends it to the log. Validation failures leave
// no trace in the log. The returned record carries the timestamp that was
// actually persisted.
func (r *Recorder) Submit(ctx context.Context, identity string, rec Record) (Record, error) {
	rec.Identity = identity
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"identity", rec.Identity},
		{"full_name", rec.FullName},
		{"email", rec.Email},
		{"cover_letter", rec.CoverLetter},
		{"resume", rec.Resume},
		{"source_addr", rec.SourceAddr},
	} {
		if len(field.value) == 0 {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return Record{}, ValidationError{Missing: missing}
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}
	err = r.log.Append(ctx, buf)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *Recorder) Close() error {
	return r.log.Close()
}
