// Package cryptopay is the HTTP client for the crypto payment processor.
package cryptopay

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
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/usecase"
)

// Client implements usecase.CryptoProcessor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	initialInterval time.Duration
	maxElapsedTime  time.Duration
}

// NewClient creates a new crypto processor client.
func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:          logger.With().Str("component", "crypto_processor").Logger(),
		initialInterval: 500 * time.Millisecond,
		maxElapsedTime:  15 * time.Second,
	}
}

type depositAddressRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Asset          string `json:"asset"`
}

type depositAddressResponse struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Network string `json:"network"`
}

func (r *depositAddressResponse) validate() error {
	if r.Address == "" {
		return fmt.Errorf("deposit address response missing address")
	}
	if r.Asset == "" {
		return fmt.Errorf("deposit address response missing asset")
	}
	return nil
}

type payoutRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Destination    string `json:"destination"`
	Asset          string `json:"asset"`
	// Amount travels as a string to keep the wire format exact.
	Amount string `json:"amount"`
}

type payoutResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

func (r *payoutResponse) validate() error {
	if r.Reference == "" {
		return fmt.Errorf("payout response missing reference")
	}
	if _, err := decimal.NewFromString(r.Amount); err != nil {
		return fmt.Errorf("payout response has malformed amount %q: %w", r.Amount, err)
	}
	return nil
}

// CreateDepositAddress provisions a deposit address for the user.
func (c *Client) CreateDepositAddress(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
	body := depositAddressRequest{
		ExternalUserID: userID,
		Asset:          asset,
	}

	var resp depositAddressResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/addresses", body, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}

	return &usecase.DepositAddress{
		Address: resp.Address,
		Asset:   resp.Asset,
		Network: resp.Network,
	}, nil
}

// CreatePayout asks the processor to send funds out.
func (c *Client) CreatePayout(ctx context.Context, req usecase.PayoutRequest) (*usecase.Payout, error) {
	body := payoutRequest{
		ExternalUserID: req.UserID,
		Destination:    req.Destination,
		Asset:          req.Asset,
		Amount:         req.Amount.String(),
	}

	var resp payoutResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/payouts", body, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(resp.Amount)
	if err != nil {
		return nil, err
	}

	return &usecase.Payout{
		ProviderRef: resp.Reference,
		Status:      resp.Status,
		Amount:      amount,
	}, nil
}

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
			return fmt.Errorf("crypto processor error: status %d, body: %s", resp.StatusCode, respBody)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("crypto processor error: status %d, body: %s", resp.StatusCode, respBody))
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
		c.logger.Error().Err(err).Str("method", method).Str("url", url).Msg("crypto processor request failed")
	}

	return err
}
