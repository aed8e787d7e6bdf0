package productservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shophub-gateway/internal/domain"
)

// Product is the catalog view the gateway needs: display metadata for the
// guest cart snapshot plus per-merchant price and stock.
type Product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Brand     string     `json:"brand"`
	ImageURL  string     `json:"imageUrl"`
	Merchants []Merchant `json:"merchants"`
}

type Merchant struct {
	MerchantID string  `json:"merchant_id"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
}

// Offer returns the merchant entry for merchantID.
func (p Product) Offer(merchantID string) (Merchant, error) {
	for _, m := range p.Merchants {
		if m.MerchantID == merchantID {
			return m, nil
		}
	}
	return Merchant{}, domain.ErrNotFound
}

// Client talks to the external product catalog service.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Get fetches a single product by id.
func (c *Client) Get(ctx context.Context, productID string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/"+productID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service: get product: status %d", resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("product service: decode product: %w", err)
	}
	return &p, nil
}
