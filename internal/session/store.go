package session

import (
	"context"
	"errors"

	"shophub-gateway/internal/domain"
	"shophub-gateway/internal/kvstore"
)

// Storage keys, one per identity field.
const (
	keyAccessToken = "accessToken"
	keyUserID      = "userId"
	keyEmail       = "email"
	keyRole        = "role"
)

// Session is the persisted identity of the current visitor. A zero Session
// means anonymous.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
	Role        string
}

func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.UserID != ""
}

// Store persists session identity in the local key-value store.
type Store struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Save persists the identity. Each field is written before Save returns.
func (s *Store) Save(ctx context.Context, sess Session) error {
	fields := map[string]string{
		keyAccessToken: sess.AccessToken,
		keyUserID:      sess.UserID,
		keyEmail:       sess.Email,
		keyRole:        sess.Role,
	}
	for key, value := range fields {
		if err := s.kv.Set(ctx, key, []byte(value)); err != nil {
			return err
		}
	}
	return nil
}

// Current reads the stored identity. Missing keys read as empty fields, so an
// unauthenticated visitor gets a zero Session without an error.
func (s *Store) Current(ctx context.Context) (Session, error) {
	var sess Session
	for key, target := range map[string]*string{
		keyAccessToken: &sess.AccessToken,
		keyUserID:      &sess.UserID,
		keyEmail:       &sess.Email,
		keyRole:        &sess.Role,
	} {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return Session{}, err
		}
		*target = string(data)
	}
	return sess, nil
}

// Clear removes all identity keys.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range []string{keyAccessToken, keyUserID, keyEmail, keyRole} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
