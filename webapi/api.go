// Package webapi exposes the intake service over HTTP: account signup and
// login, session logout, and the authenticated application submission with
// its resume upload. HTML rendering is out of scope, every endpoint speaks
// forms in and JSON out.
package webapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/andrebq/mailroom/artifacts"
	"github.com/andrebq/mailroom/auth"
	authapi "github.com/andrebq/mailroom/auth/api"
	"github.com/andrebq/mailroom/credstore"
	"github.com/andrebq/mailroom/internal/logutil"
	"github.com/andrebq/mailroom/recorder"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

type (
	Server struct {
		Realm  *authapi.SecurityRealm
		Creds  *credstore.Store
		Tokens auth.TokenStore
		Apps   *recorder.Recorder
		Files  *artifacts.Store
	}
)

const (
	// resumes are documents, not datasets
	maxUploadBytes = 10_000_000
)

func AsHandler(ctx context.Context, s *Server) http.Handler {
	log := logutil.Scoped(ctx, "webapi")
	router := httprouter.New()
	router.HandlerFunc("POST", "/signup", s.signup(log))
	router.HandlerFunc("POST", "/login", s.login(log))
	router.HandlerFunc("GET", "/login", loginEntryPoint)
	router.HandlerFunc("POST", "/logout", s.logout(log))
	router.Handler("POST", "/applications", s.Realm.Protect(s.submitApplication(log)))
	router.Handler("GET", "/resumes/:ref", s.Realm.Protect(s.downloadResume(log)))
	router.HandlerFunc("GET", "/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	return router
}

func (s *Server) signup(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := r.FormValue("email")
		passwd := auth.PlainText(r.FormValue("password"))
		err := auth.Register(r.Context(), s.Creds, email, passwd, rand.Reader)
		var dup credstore.DuplicateEmail
		var missing auth.MissingCredentials
		switch {
		case errors.As(err, &dup):
			http.Error(w, "email already registered", http.StatusConflict)
			return
		case errors.As(err, &missing):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			log.Error().Err(err).Msg("unable to register identity")
			http.Error(w, "unable to complete signup", http.StatusInternalServerError)
			return
		}
		token, err := auth.IssueToken(r.Context(), s.Tokens, email, rand.Reader)
		if err != nil {
			// the identity is stored and usable on a later login, only the
			// session failed to materialize
			log.Error().Err(err).Msg("unable to issue session token after signup")
			http.Error(w, "unable to complete signup", http.StatusInternalServerError)
			return
		}
		s.Realm.GrantCookie(w, token)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"email": email,
			"token": token,
		})
	}
}

func (s *Server) login(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := r.FormValue("email")
		passwd := auth.PlainText(r.FormValue("password"))
		token, err := auth.Login(r.Context(), s.Tokens, s.Creds, email, passwd, rand.Reader)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// same body for unknown email and wrong password
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		} else if err != nil {
			log.Error().Err(err).Msg("unable to process login")
			http.Error(w, "unable to complete login", http.StatusInternalServerError)
			return
		}
		s.Realm.GrantCookie(w, token)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": token,
		})
	}
}

func (s *Server) logout(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// logout succeeds even without a live session
		if token, ok := s.Realm.Token(r); ok {
			err := auth.Logout(r.Context(), s.Tokens, token)
			if err != nil {
				log.Warn().Err(err).Msg("unable to revoke session token")
			}
		}
		s.Realm.ClearCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) submitApplication(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := authapi.IdentityFromContext(r.Context())
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "unable to parse submission", http.StatusBadRequest)
			return
		}
		rec := recorder.Record{
			FullName:    r.FormValue("full_name"),
			Email:       r.FormValue("email"),
			CoverLetter: r.FormValue("cover_letter"),
			SourceAddr:  sourceAddr(r),
		}
		var missing []string
		for _, field := range []struct{ name, value string }{
			{"full_name", rec.FullName},
			{"email", rec.Email},
			{"cover_letter", rec.CoverLetter},
		} {
			if len(field.value) == 0 {
				missing = append(missing, field.name)
			}
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			missing = append(missing, "resume")
		} else {
			defer file.Close()
		}
		if len(missing) > 0 {
			// reject before storing anything, a failed validation must not
			// leave an orphan artifact behind
			http.Error(w, recorder.ValidationError{Missing: missing}.Error(), http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			http.Error(w, "unable to read resume", http.StatusBadRequest)
			return
		}
		mimetype := header.Header.Get("Content-Type")
		if mimetype == "" {
			mimetype = "application/octet-stream"
		}
		ref, err := s.Files.Put(r.Context(), header.Filename, mimetype, content)
		if err != nil {
			var empty artifacts.EmptyArtifact
			if errors.As(err, &empty) {
				http.Error(w, recorder.ValidationError{Missing: []string{"resume"}}.Error(), http.StatusBadRequest)
				return
			}
			log.Error().Err(err).Msg("unable to store resume artifact")
			http.Error(w, "unable to store resume", http.StatusInternalServerError)
			return
		}
		rec.Resume = ref
		stored, err := s.Apps.Submit(r.Context(), identity, rec)
		var invalid recorder.ValidationError
		if errors.As(err, &invalid) {
			http.Error(w, invalid.Error(), http.StatusBadRequest)
			return
		} else if err != nil {
			log.Error().Err(err).Str("resume", ref).Msg("unable to append application record")
			http.Error(w, "unable to record application", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"identity": stored.Identity,
			"resume":   stored.Resume,
		})
	}
}

func (s *Server) downloadResume(log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := httprouter.ParamsFromContext(r.Context()).ByName("ref")
		// copying to memory keeps the database lock short, the client can
		// wait a couple of millis longer
		var buf bytes.Buffer
		_, mt, err := s.Files.Copy(r.Context(), &buf, ref)
		var notFound artifacts.NotFound
		if errors.As(err, &notFound) {
			http.Error(w, "resume not found", http.StatusNotFound)
			return
		} else if err != nil {
			log.Error().Err(err).Str("resume", ref).Msg("unable to load resume artifact")
			http.Error(w, "unable to fetch resume, server is mis-behaving", http.StatusInternalServerError)
			return
		}
		w.Header().Add("Content-Type", mt)
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// sourceAddr is server-derived, it never fails validation on the client's
// behalf. RemoteAddr is empty when the handler runs outside a real server.
func sourceAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "local"
}

func loginEntryPoint(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "login required: POST /login with email and password", http.StatusUnauthorized)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}
