package auth

import (
	"context"
	"log"

	"shophub-gateway/internal/client/userservice"
	"shophub-gateway/internal/service/reconcile"
	"shophub-gateway/internal/session"
)

type userClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Validate(ctx context.Context, token string) (userservice.Identity, error)
}

type sessionStore interface {
	Save(ctx context.Context, sess session.Session) error
	Current(ctx context.Context) (session.Session, error)
	Clear(ctx context.Context) error
}

type cartMerger interface {
	Merge(ctx context.Context, userID, token string) reconcile.Summary
}

// Service orchestrates login against the external user service and the
// post-login cart reconciliation.
type Service struct {
	users    userClient
	sessions sessionStore
	merger   cartMerger
	logger   *log.Logger
}

func New(users userClient, sessions sessionStore, merger cartMerger, logger *log.Logger) *Service {
	return &Service{users: users, sessions: sessions, merger: merger, logger: logger}
}

// Login authenticates, persists the identity, then merges any guest cart
// into the user's server cart. Identity is persisted before the merge runs,
// so the merge's bearer credential and userId are already durable when it
// starts.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	token, err := s.users.Login(ctx, email, password)
	if err != nil {
		return session.Session{}, err
	}

	identity, err := s.users.Validate(ctx, token)
	if err != nil {
		return session.Session{}, err
	}

	sess := session.Session{
		AccessToken: token,
		UserID:      identity.UserID,
		Email:       identity.Email,
		Role:        identity.Role,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, err
	}

	summary := s.merger.Merge(ctx, sess.UserID, sess.AccessToken)
	if summary.Attempted > 0 {
		s.logger.Printf("login: merged guest cart for user %s: %d ok, %d failed",
			sess.UserID, summary.Merged, summary.Failed)
	}

	return sess, nil
}

// Current returns the stored session identity.
func (s *Service) Current(ctx context.Context) (session.Session, error) {
	return s.sessions.Current(ctx)
}

// Logout drops the stored identity. The guest cart is untouched; a visitor
// who logs out starts a fresh anonymous session with an empty cart.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}
