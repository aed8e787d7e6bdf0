package guestcart

import (
	"context"
	"errors"
	"testing"

	"shophub-gateway/internal/domain"
	"shophub-gateway/internal/kvstore"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(kvstore.NewMemory())
}

func line(productID, merchantID string, price float64) domain.CartLine {
	return domain.CartLine{
		ProductID:  productID,
		MerchantID: merchantID,
		Price:      price,
		Name:       "Product " + productID,
	}
}

func TestAddNewLineStartsAtOne(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", lines[0].Quantity)
	}
	if lines[0].Name != "Product p1" {
		t.Fatalf("display metadata not stored: %+v", lines[0])
	}
}

func TestAddSameKeyIncrementsInsteadOfDuplicating(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("second add: %v", err)
	}

	lines, _ := store.List(ctx)
	if len(lines) != 1 {
		t.Fatalf("expected a single line for the same key, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestAddDifferentMerchantIsSeparateLine(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("add m1: %v", err)
	}
	if err := store.Add(ctx, line("p1", "m2", 12), 5); err != nil {
		t.Fatalf("add m2: %v", err)
	}

	lines, _ := store.List(ctx)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestAddRejectsWhenStockExceeded(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := store.Add(ctx, line("p1", "m1", 10), 4); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	err := store.Add(ctx, line("p1", "m1", 10), 4)
	if !domain.IsStockExceeded(err) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}

	lines, _ := store.List(ctx)
	if lines[0].Quantity != 4 {
		t.Fatalf("quantity changed on rejected add: %d", lines[0].Quantity)
	}
}

func TestAddRejectsNewLineWithNoStock(t *testing.T) {
	store := newStore(t)
	err := store.Add(context.Background(), line("p1", "m1", 10), 0)
	if !domain.IsStockExceeded(err) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
}

func TestSetQuantity(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	key := domain.LineKey{ProductID: "p1", MerchantID: "m1"}

	if err := store.Add(ctx, line("p1", "m1", 10), 10); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.SetQuantity(ctx, key, 7, 10); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	lines, _ := store.List(ctx)
	if lines[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", lines[0].Quantity)
	}

	err := store.SetQuantity(ctx, key, 11, 10)
	if !domain.IsStockExceeded(err) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	key := domain.LineKey{ProductID: "p1", MerchantID: "m1"}

	if err := store.Add(ctx, line("p1", "m1", 10), 10); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.SetQuantity(ctx, key, 0, 10); err != nil {
		t.Fatalf("set quantity 0: %v", err)
	}

	lines, _ := store.List(ctx)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestSetQuantityMissingLine(t *testing.T) {
	store := newStore(t)
	err := store.SetQuantity(context.Background(), domain.LineKey{ProductID: "p1", MerchantID: "m1"}, 2, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	key := domain.LineKey{ProductID: "p1", MerchantID: "m1"}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove absent: %v", err)
	}

	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	lines, _ := store.List(ctx)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"p3", "p1", "p2"} {
		if err := store.Add(ctx, line(id, "m1", 10), 5); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	lines, _ := store.List(ctx)
	got := []string{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID}
	want := []string{"p3", "p1", "p2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestCorruptedRecordReadsAsEmpty(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	if err := kv.Set(ctx, "guestCart", []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := New(kv)
	lines, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}

	// The cart is usable again after the next mutation.
	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("add after corruption: %v", err)
	}
	lines, _ = store.List(ctx)
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart after recovery: %+v", lines)
	}
}

func TestClear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, line("p1", "m1", 10), 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	lines, _ := store.List(ctx)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", len(lines))
	}
}

func TestSubtotal(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "p1", MerchantID: "m1", Price: 10.10, Quantity: 3},
		{ProductID: "p2", MerchantID: "m1", Price: 0.20, Quantity: 1},
	}
	if got := domain.Subtotal(lines); got != 30.5 {
		t.Fatalf("expected subtotal 30.5, got %v", got)
	}
}
