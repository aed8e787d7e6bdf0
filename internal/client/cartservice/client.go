package cartservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shophub-gateway/internal/domain"
)

// Line is the Cart Service wire shape. Every write carries the full line;
// the remove endpoint requires it too even though only the key matters there.
type Line struct {
	UserID     string  `json:"userId"`
	ProductID  string  `json:"productId"`
	MerchantID string  `json:"merchantId"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Client talks to the external Cart Service. All writes are authenticated
// with the bearer credential obtained at login.
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

// Get fetches all lines of the user's server-side cart.
func (c *Client) Get(ctx context.Context, token, userID string) ([]domain.CartLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart/get/"+userID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cart service: get cart: status %d", resp.StatusCode)
	}

	var items []Line
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("cart service: decode cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.CartLine{
			ProductID:  item.ProductID,
			MerchantID: item.MerchantID,
			Price:      item.Price,
			Quantity:   item.Quantity,
		})
	}
	return lines, nil
}

// Add creates a new line in the user's cart.
func (c *Client) Add(ctx context.Context, token string, line Line) error {
	return c.write(ctx, http.MethodPost, "/cart/add", token, line)
}

// Update sets a line's quantity to the absolute value in line.Quantity.
func (c *Client) Update(ctx context.Context, token string, line Line) error {
	return c.write(ctx, http.MethodPut, "/cart/update", token, line)
}

// Remove deletes a line. The service historically requires the full line in
// the request body.
func (c *Client) Remove(ctx context.Context, token string, line Line) error {
	return c.write(ctx, http.MethodDelete, "/cart/remove", token, line)
}

// Clear drops the user's entire server-side cart.
func (c *Client) Clear(ctx context.Context, token, userID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/cart/clear/"+userID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cart service: clear cart: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path, token string, line Line) error {
	body, err := json.Marshal(line)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cart service: %s %s: status %d", method, path, resp.StatusCode)
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
