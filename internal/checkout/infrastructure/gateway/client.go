// Package gateway talks to the external card processor that holds the
// order's secondary payment authorization.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	log  *slog.Logger
	http *resty.Client
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		log:  log,
		http: resty.New().SetBaseURL(baseURL),
	}
}

// UpdateAmount resizes an open authorization to amountCents.
func (c *Client) UpdateAmount(ctx context.Context, authCode string, amountCents int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int64{"amount_cents": amountCents}).
		Patch("/api/authorizations/" + authCode)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gateway amount update status: %d", resp.StatusCode())
	}
	return nil
}

// Void releases an open authorization without charging it.
func (c *Client) Void(ctx context.Context, authCode string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Post("/api/authorizations/" + authCode + "/void")
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("gateway void status: %d", resp.StatusCode())
	}
}
