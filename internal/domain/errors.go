package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// StockExceededError rejects a cart mutation that would push a line's
// quantity past the merchant's available stock.
type StockExceededError struct {
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("only %d available in stock", e.Available)
}

// IsStockExceeded reports whether err is a stock-limit rejection.
func IsStockExceeded(err error) bool {
	var se *StockExceededError
	return errors.As(err, &se)
}
