// Package rest backs the transaction source with an opaque HTTP endpoint.
// The lifecycle's correctness does not depend on what serves it; any
// failure, from dial errors to malformed JSON, surfaces as
// source.ErrUnavailable.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/source"
)

type Client struct {
	baseURL string
	hc      *http.Client
}

// wireTransaction is the payload shape the endpoint serves.
type wireTransaction struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      newHTTPClient(),
	}
}

// newHTTPClient tunes the transport for a single upstream host with
// keep-alive and bounded timeouts.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

var _ source.TransactionSource = (*Client)(nil)

// FetchTransactions implements source.TransactionSource.
func (c *Client) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	url := c.baseURL + "/transactions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", source.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", source.ErrUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s: unexpected status %d", source.ErrUnavailable, url, resp.StatusCode)
	}

	var wire []wireTransaction
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", source.ErrUnavailable, err)
	}

	txs := make([]core.Transaction, len(wire))
	for i, w := range wire {
		txs[i] = core.Transaction{
			ID:       w.ID,
			Amount:   core.Money{Cents: w.AmountCents},
			Category: w.Category,
			Date:     w.Date,
			Type:     core.TransactionType(w.Type),
		}
	}
	return txs, nil
}
