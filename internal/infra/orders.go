package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"book_mirror/internal/domain"
)

// orderWire is the upstream's POST /orders body. Prices and quantities go
// out as plain JSON numbers, matching what the exchange expects.
type orderWire struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderClient submits orders to the upstream exchange. Fire-and-forget:
// the mirror does not track the order afterwards, it only surfaces
// whether the submission was accepted.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit validates the order and posts it upstream. Validation failures
// surface synchronously before any I/O.
func (c *OrderClient) Submit(ctx context.Context, order domain.Order) error {
	if err := order.Validate(); err != nil {
		GlobalMetrics.RecordOrderRejected()
		return err
	}

	price, _ := order.Price.Float64()
	qty, _ := order.Quantity.Float64()
	body, err := json.Marshal(orderWire{
		Symbol:   order.Symbol,
		Side:     order.Side.Wire(),
		Price:    price,
		Quantity: qty,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		GlobalMetrics.RecordOrderRejected()
		return domain.NewNetworkError("submit", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		GlobalMetrics.RecordOrderRejected()
		return fmt.Errorf("%w: upstream status %d", domain.ErrSubmitFailed, resp.StatusCode)
	}

	GlobalMetrics.RecordOrderSubmitted()
	return nil
}
