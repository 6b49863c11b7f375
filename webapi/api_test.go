package webapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/mailroom/auth"
	authapi "github.com/andrebq/mailroom/auth/api"
	"github.com/andrebq/mailroom/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
)

func acquireHandler(ctx context.Context, t *testing.T) (http.Handler, string, func()) {
	creds, cleanupCreds := testutil.AcquireCredStore(ctx, t)
	apps, appLog, cleanupApps := testutil.AcquireRecorder(ctx, t)
	files, cleanupFiles := testutil.AcquireArtifactStore(ctx, t)
	tokens := auth.InMemoryTokenStore()
	srv := &Server{
		Realm:  authapi.NewRealm(tokens, "/login", true),
		Creds:  creds,
		Tokens: tokens,
		Apps:   apps,
		Files:  files,
	}
	return AsHandler(ctx, srv), appLog, func() {
		cleanupFiles()
		cleanupApps()
		cleanupCreds()
	}
}

func sessionToken(t *testing.T, res apitest.Result) string {
	t.Helper()
	defer res.Response.Body.Close()
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Response.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Token == "" {
		t.Fatal("response did not carry a session token")
	}
	return body.Token
}

func tempResume(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mailroom-tests")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 pretend resume"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	handler, _, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.email", "a@x.com")).
		Assert(jsonpath.Present("$.token")).
		CookiePresent(authapi.SessionCookie).
		End()

	// duplicate, under case-insensitive comparison
	apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "A@X.COM").
		FormData("password", "pw2").
		Expect(t).
		Status(http.StatusConflict).
		End()

	apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "b@x.com").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLoginFailureIsUniform(t *testing.T) {
	ctx := context.Background()
	handler, _, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusCreated).
		End()

	wrongPasswd := apitest.New().
		Handler(handler).
		Post("/login").
		FormData("email", "a@x.com").
		FormData("password", "nope").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	unknownEmail := apitest.New().
		Handler(handler).
		Post("/login").
		FormData("email", "ghost@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	b1, _ := io.ReadAll(wrongPasswd.Response.Body)
	b2, _ := io.ReadAll(unknownEmail.Response.Body)
	if string(b1) != string(b2) {
		t.Fatalf("wrong password and unknown email must be indistinguishable: %q vs %q", b1, b2)
	}
}

func TestSubmissionRequiresSession(t *testing.T) {
	ctx := context.Background()
	handler, appLog, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/applications").
		MultipartFormData("full_name", "Ada Lovelace").
		MultipartFormData("email", "ada@x.com").
		MultipartFormData("cover_letter", "First!").
		MultipartFile("resume", tempResume(t)).
		Expect(t).
		Status(http.StatusSeeOther).
		Header("Location", "/login").
		End()

	info, err := os.Stat(appLog)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Fatal("an anonymous submission must be rejected before any record is appended")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	handler, appLog, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	s1 := sessionToken(t, apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusCreated).
		End())

	s2 := sessionToken(t, apitest.New().
		Handler(handler).
		Post("/login").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusOK).
		End())
	if s1 == s2 {
		t.Fatal("login should mint an independent session")
	}

	// logging out the second session leaves the first one valid
	apitest.New().
		Handler(handler).
		Post("/logout").
		Cookie(authapi.SessionCookie, s2).
		Expect(t).
		Status(http.StatusNoContent).
		End()

	apitest.New().
		Handler(handler).
		Post("/applications").
		Cookie(authapi.SessionCookie, s2).
		MultipartFormData("full_name", "Ada Lovelace").
		MultipartFormData("email", "ada@x.com").
		MultipartFormData("cover_letter", "First!").
		MultipartFile("resume", tempResume(t)).
		Expect(t).
		Status(http.StatusSeeOther).
		End()

	apitest.New().
		Handler(handler).
		Post("/applications").
		Cookie(authapi.SessionCookie, s1).
		MultipartFormData("full_name", "Ada Lovelace").
		MultipartFormData("email", "ada@x.com").
		MultipartFormData("cover_letter", "First!").
		MultipartFile("resume", tempResume(t)).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.identity", "a@x.com")).
		Assert(jsonpath.Present("$.resume")).
		End()

	info, err := os.Stat(appLog)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("the authenticated submission should have appended one record")
	}
}

func TestSubmissionValidation(t *testing.T) {
	ctx := context.Background()
	handler, appLog, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	token := sessionToken(t, apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusCreated).
		End())

	// missing cover letter and resume
	apitest.New().
		Handler(handler).
		Post("/applications").
		Cookie(authapi.SessionCookie, token).
		MultipartFormData("full_name", "Ada Lovelace").
		MultipartFormData("email", "ada@x.com").
		MultipartFormData("unused", "multipart needs at least one part").
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	info, err := os.Stat(appLog)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Fatal("a rejected submission must not append a record")
	}
}

func TestResumeDownload(t *testing.T) {
	ctx := context.Background()
	handler, _, cleanup := acquireHandler(ctx, t)
	defer cleanup()

	token := sessionToken(t, apitest.New().
		Handler(handler).
		Post("/signup").
		FormData("email", "a@x.com").
		FormData("password", "pw1").
		Expect(t).
		Status(http.StatusCreated).
		End())

	res := apitest.New().
		Handler(handler).
		Post("/applications").
		Cookie(authapi.SessionCookie, token).
		MultipartFormData("full_name", "Ada Lovelace").
		MultipartFormData("email", "ada@x.com").
		MultipartFormData("cover_letter", "First!").
		MultipartFile("resume", tempResume(t)).
		Expect(t).
		Status(http.StatusCreated).
		End()
	defer res.Response.Body.Close()
	var body struct {
		Resume string `json:"resume"`
	}
	if err := json.NewDecoder(res.Response.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	apitest.New().
		Handler(handler).
		Get("/resumes/" + body.Resume).
		Cookie(authapi.SessionCookie, token).
		Expect(t).
		Status(http.StatusOK).
		Body("%PDF-1.4 pretend resume").
		End()

	apitest.New().
		Handler(handler).
		Get("/resumes/" + body.Resume).
		Expect(t).
		Status(http.StatusSeeOther).
		End()

	apitest.New().
		Handler(handler).
		Get("/resumes/no-such-ref").
		Cookie(authapi.SessionCookie, token).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}
