package auth

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"shophub-gateway/internal/client/userservice"
	"shophub-gateway/internal/service/reconcile"
	"shophub-gateway/internal/session"
)

type stubUserClient struct {
	token       string
	loginErr    error
	identity    userservice.Identity
	validateErr error
}

func (s *stubUserClient) Login(_ context.Context, _, _ string) (string, error) {
	return s.token, s.loginErr
}

func (s *stubUserClient) Validate(_ context.Context, _ string) (userservice.Identity, error) {
	return s.identity, s.validateErr
}

type stubSessions struct {
	saved   *session.Session
	saveErr error
	cleared bool
}

func (s *stubSessions) Save(_ context.Context, sess session.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &sess
	return nil
}

func (s *stubSessions) Current(_ context.Context) (session.Session, error) {
	if s.saved == nil {
		return session.Session{}, nil
	}
	return *s.saved, nil
}

func (s *stubSessions) Clear(_ context.Context) error {
	s.saved = nil
	s.cleared = true
	return nil
}

type stubMerger struct {
	calls         int
	lastUserID    string
	lastToken     string
	savedAtMerge  bool
	sessionsPeek  *stubSessions
	returnSummary reconcile.Summary
}

func (s *stubMerger) Merge(_ context.Context, userID, token string) reconcile.Summary {
	s.calls++
	s.lastUserID = userID
	s.lastToken = token
	if s.sessionsPeek != nil {
		s.savedAtMerge = s.sessionsPeek.saved != nil
	}
	return s.returnSummary
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLoginPersistsIdentityThenMerges(t *testing.T) {
	sessions := &stubSessions{}
	merger := &stubMerger{sessionsPeek: sessions, returnSummary: reconcile.Summary{Attempted: 1, Merged: 1}}
	users := &stubUserClient{
		token:    "tok",
		identity: userservice.Identity{UserID: "u1", Email: "a@b.c", Role: "USER"},
	}
	svc := New(users, sessions, merger, logDiscard())

	sess, err := svc.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if sess.UserID != "u1" || sess.AccessToken != "tok" || sess.Role != "USER" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if merger.calls != 1 || merger.lastUserID != "u1" || merger.lastToken != "tok" {
		t.Fatalf("merge not invoked correctly: %+v", merger)
	}
	if !merger.savedAtMerge {
		t.Fatalf("identity must be persisted before the merge runs")
	}
}

func TestLoginFailureSkipsMerge(t *testing.T) {
	merger := &stubMerger{}
	users := &stubUserClient{loginErr: errors.New("bad credentials")}
	svc := New(users, &stubSessions{}, merger, logDiscard())

	if _, err := svc.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected login error")
	}
	if merger.calls != 0 {
		t.Fatalf("merge must not run on failed login")
	}
}

func TestLoginValidateFailureSkipsMerge(t *testing.T) {
	merger := &stubMerger{}
	users := &stubUserClient{token: "tok", validateErr: errors.New("invalid token")}
	sessions := &stubSessions{}
	svc := New(users, sessions, merger, logDiscard())

	if _, err := svc.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected validate error")
	}
	if merger.calls != 0 {
		t.Fatalf("merge must not run without a validated identity")
	}
	if sessions.saved != nil {
		t.Fatalf("identity must not be persisted on validate failure")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	sessions := &stubSessions{saved: &session.Session{UserID: "u1", AccessToken: "tok"}}
	svc := New(&stubUserClient{}, sessions, &stubMerger{}, logDiscard())

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !sessions.cleared {
		t.Fatalf("session not cleared")
	}

	sess, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("expected anonymous session after logout")
	}
}
