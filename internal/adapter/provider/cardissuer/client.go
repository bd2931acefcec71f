// Package cardissuer is the HTTP client for the card-issuing provider.
// Wire types are validated at the boundary and converted to internal
// representations before they reach use cases.
package cardissuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// Client implements usecase.CardIssuer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	initialInterval time.Duration
	maxElapsedTime  time.Duration
}

// NewClient creates a new card issuer client.
func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:          logger.With().Str("component", "card_issuer").Logger(),
		initialInterval: 500 * time.Millisecond,
		maxElapsedTime:  15 * time.Second,
	}
}

type issueCardRequest struct {
	CardholderName string `json:"cardholder_name"`
	Currency       string `json:"currency"`
	ExternalUserID string `json:"external_user_id"`
}

type cardResponse struct {
	ID       string `json:"id"`
	Last4    string `json:"last4"`
	Brand    string `json:"brand"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (r *cardResponse) validate() error {
	if r.ID == "" {
		return fmt.Errorf("card response missing id")
	}
	if len(r.Last4) != 4 {
		return fmt.Errorf("card response has malformed last4 %q", r.Last4)
	}
	return nil
}

// toIssuedCard converts the wire representation. Unknown provider statuses
// map to frozen so a card never becomes spendable on bad data.
func (r *cardResponse) toIssuedCard() *usecase.IssuedCard {
	status := domain.CardStatus(r.Status)
	if !status.IsValid() {
		status = domain.CardStatusFrozen
	}

	return &usecase.IssuedCard{
		ProviderCardID: r.ID,
		Last4:          r.Last4,
		Brand:          r.Brand,
		Status:         status,
		Currency:       r.Currency,
	}
}

// IssueCard provisions a new virtual card with the provider.
func (c *Client) IssueCard(ctx context.Context, req usecase.IssueCardRequest) (*usecase.IssuedCard, error) {
	body := issueCardRequest{
		CardholderName: req.CardholderName,
		Currency:       req.Currency,
		ExternalUserID: req.UserID,
	}

	var resp cardResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/cards", body, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}

	return resp.toIssuedCard(), nil
}

// GetCard fetches the provider's current view of a card.
func (c *Client) GetCard(ctx context.Context, providerCardID string) (*usecase.IssuedCard, error) {
	var resp cardResponse
	url := fmt.Sprintf("%s/v1/cards/%s", c.baseURL, providerCardID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}

	return resp.toIssuedCard(), nil
}

// TerminateCard permanently closes a card at the provider.
func (c *Client) TerminateCard(ctx context.Context, providerCardID string) error {
	url := fmt.Sprintf("%s/v1/cards/%s", c.baseURL, providerCardID)
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// do sends one API request, retrying server-side failures with backoff.
// Client errors (4xx) are permanent.
func (c *Client) do(ctx context.Context, method, url string, body, target any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	operation := func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("card issuer error: status %d, body: %s", resp.StatusCode, respBody)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("card issuer error: status %d, body: %s", resp.StatusCode, respBody))
		}

		if target != nil {
			if err := json.Unmarshal(respBody, target); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to unmarshal response body: %w", err))
			}
		}

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxElapsedTime = c.maxElapsedTime

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", url).Msg("card issuer request failed")
	}

	return err
}
