package reconcile

import (
	"context"
	"log"
	"sync"

	"shophub-gateway/internal/client/cartservice"
	"shophub-gateway/internal/domain"
)

type cartClient interface {
	Get(ctx context.Context, token, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, token string, line cartservice.Line) error
	Update(ctx context.Context, token string, line cartservice.Line) error
}

type guestCart interface {
	List(ctx context.Context) ([]domain.CartLine, error)
	Clear(ctx context.Context) error
}

// Summary describes one completed merge. Attempted counts guest lines,
// Merged the lines written server-side, Failed the lines whose add/update
// call failed.
type Summary struct {
	UserID    string
	Attempted int
	Merged    int
	Failed    int
}

// Service merges the guest cart into the server-side cart when a visitor
// logs in. After Merge returns, the guest cart is empty and the server cart
// is the sole source of truth.
type Service struct {
	carts  cartClient
	guest  guestCart
	logger *log.Logger

	mu          sync.Mutex
	subscribers []func(Summary)
}

func New(carts cartClient, guest guestCart, logger *log.Logger) *Service {
	return &Service{carts: carts, guest: guest, logger: logger}
}

// OnComplete registers fn to run after each merge that attempted at least
// one line. Callbacks run synchronously on the merging goroutine, in
// registration order.
func (s *Service) OnComplete(fn func(Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Merge reconciles the guest cart into userID's server cart.
//
// Per guest line, a server line with the same (productId, merchantId) key is
// overwritten with the guest quantity; otherwise the line is added. Calls are
// issued one line at a time, in guest-cart order. No failure is fatal: a
// failed server-cart fetch degrades to an empty assumed server cart, and a
// failed line is logged and skipped. The guest cart is cleared
// unconditionally once every line has been attempted — never before, so an
// interrupted merge leaves the guest cart intact for a later login at the
// cost of possible duplicate adds.
func (s *Service) Merge(ctx context.Context, userID, token string) Summary {
	summary := Summary{UserID: userID}

	guestLines, err := s.guest.List(ctx)
	if err != nil {
		s.logger.Printf("merge: read guest cart: %v", err)
		return summary
	}
	if len(guestLines) == 0 {
		return summary
	}
	summary.Attempted = len(guestLines)

	serverLines, err := s.carts.Get(ctx, token, userID)
	if err != nil {
		// Losing guest items is worse than a possible duplicate add, so
		// proceed as if the server cart were empty.
		s.logger.Printf("merge: fetch server cart for user %s: %v (assuming empty)", userID, err)
		serverLines = nil
	}

	onServer := make(map[domain.LineKey]struct{}, len(serverLines))
	for _, line := range serverLines {
		onServer[line.Key()] = struct{}{}
	}

	for _, line := range guestLines {
		payload := cartservice.Line{
			UserID:     userID,
			ProductID:  line.ProductID,
			MerchantID: line.MerchantID,
			Price:      line.Price,
			Quantity:   line.Quantity,
		}

		var writeErr error
		if _, ok := onServer[line.Key()]; ok {
			// Guest quantity wins outright. Setting rather than adding keeps
			// repeated merge attempts from double counting.
			writeErr = s.carts.Update(ctx, token, payload)
		} else {
			writeErr = s.carts.Add(ctx, token, payload)
		}
		if writeErr != nil {
			summary.Failed++
			s.logger.Printf("merge: line (%s,%s) for user %s: %v", line.ProductID, line.MerchantID, userID, writeErr)
			continue
		}
		summary.Merged++
	}

	if err := s.guest.Clear(ctx); err != nil {
		s.logger.Printf("merge: clear guest cart: %v", err)
	}

	s.notify(summary)
	return summary
}

func (s *Service) notify(summary Summary) {
	s.mu.Lock()
	subs := make([]func(Summary), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(summary)
	}
}
