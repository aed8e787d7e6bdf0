package guestcart

import (
	"context"
	"encoding/json"
	"errors"

	"shophub-gateway/internal/domain"
	"shophub-gateway/internal/kvstore"
)

// storageKey is the single record holding the guest cart, independent of any
// user identity.
const storageKey = "guestCart"

// Store is the pre-login cart. It lives entirely in the local key-value
// store; every mutation persists the full cart before returning, so storage
// is consistent after every call.
type Store struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// List returns the cart lines in insertion order. A missing or corrupted
// record reads as an empty cart.
func (s *Store) List(ctx context.Context) ([]domain.CartLine, error) {
	data, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		// Fail open: a corrupted record must not block the visitor.
		return nil, nil
	}
	return lines, nil
}

// Add puts one unit of the product in the cart. An existing line is
// incremented by one; a new line starts at quantity 1 with the supplied
// display metadata. stockLimit comes from the product catalog and caps the
// resulting quantity.
func (s *Store) Add(ctx context.Context, line domain.CartLine, stockLimit int) error {
	lines, err := s.List(ctx)
	if err != nil {
		return err
	}

	key := line.Key()
	for i := range lines {
		if lines[i].Key() == key {
			if lines[i].Quantity+1 > stockLimit {
				return &domain.StockExceededError{Available: stockLimit}
			}
			lines[i].Quantity++
			return s.persist(ctx, lines)
		}
	}

	if stockLimit < 1 {
		return &domain.StockExceededError{Available: stockLimit}
	}
	line.Quantity = 1
	return s.persist(ctx, append(lines, line))
}

// SetQuantity sets a line's quantity outright. A quantity of zero or below
// removes the line.
func (s *Store) SetQuantity(ctx context.Context, key domain.LineKey, quantity, stockLimit int) error {
	if quantity <= 0 {
		return s.Remove(ctx, key)
	}
	if quantity > stockLimit {
		return &domain.StockExceededError{Available: stockLimit}
	}

	lines, err := s.List(ctx)
	if err != nil {
		return err
	}
	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity = quantity
			return s.persist(ctx, lines)
		}
	}
	return domain.ErrNotFound
}

// Remove deletes the line if present. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key domain.LineKey) error {
	lines, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := lines[:0]
	for _, line := range lines {
		if line.Key() != key {
			kept = append(kept, line)
		}
	}
	if len(kept) == len(lines) {
		return nil
	}
	return s.persist(ctx, kept)
}

// Clear drops the guest cart record entirely.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, storageKey)
}

func (s *Store) persist(ctx context.Context, lines []domain.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storageKey, data)
}
