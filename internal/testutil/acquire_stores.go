package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/andrebq/mailroom/artifacts"
	"github.com/andrebq/mailroom/credstore"
	"github.com/andrebq/mailroom/recorder"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

func AcquireCredStore(ctx context.Context, t TestLog) (*credstore.Store, func()) {
	dir, err := os.MkdirTemp("", "mailroom-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := credstore.Open(filepath.Join(dir, "identities.log"))
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close credential store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

func AcquireRecorder(ctx context.Context, t TestLog) (*recorder.Recorder, string, func()) {
	dir, err := os.MkdirTemp("", "mailroom-tests")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "applications.log")
	rec, err := recorder.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return rec, path, func() {
		err := rec.Close()
		if err != nil {
			t.Log("unable to close recorder", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

func AcquireArtifactStore(ctx context.Context, t TestLog) (*artifacts.Store, func()) {
	dir, err := os.MkdirTemp("", "mailroom-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := artifacts.Open(ctx, filepath.Join(dir, "resumes"))
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close artifact store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
