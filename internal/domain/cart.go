package domain

import "github.com/shopspring/decimal"

// CartLine is a single product+merchant entry in a cart. Display fields are
// snapshotted at add time and may go stale; productId and merchantId are
// opaque identifiers owned by the catalog and merchant backends.
type CartLine struct {
	ProductID  string  `json:"productId"`
	MerchantID string  `json:"merchantId"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Name       string  `json:"name,omitempty"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	Brand      string  `json:"brand,omitempty"`
}

// LineKey identifies a line within a cart. No two lines in the same cart
// share a key.
type LineKey struct {
	ProductID  string
	MerchantID string
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, MerchantID: l.MerchantID}
}

// Subtotal sums price*quantity over the lines. Unit prices arrive as floats
// from the backends, so the accumulation runs through decimals to keep the
// result stable.
func Subtotal(lines []CartLine) float64 {
	total := decimal.Zero
	for _, line := range lines {
		price := decimal.NewFromFloat(line.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	f, _ := total.Float64()
	return f
}
