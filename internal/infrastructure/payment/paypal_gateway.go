package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the PayPal API (1MB)
const maxResponseSize = 1 << 20

// tokenExpirySlack renews OAuth tokens this long before they actually expire
const tokenExpirySlack = time.Minute

// PayPalConfig holds PayPal Payouts API credentials
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL is the API root: https://api-m.sandbox.paypal.com or
	// https://api-m.paypal.com
	BaseURL        string
	TimeoutSeconds int
}

// Validate validates the PayPal configuration
func (c *PayPalConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("paypal: client credentials are required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("paypal: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("paypal: invalid base URL: %w", err)
	}
	return nil
}

// PayPalGateway sends payouts through the PayPal Payouts API. The payout's
// Destination must be the recipient's PayPal email.
type PayPalGateway struct {
	config     *PayPalConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalGateway creates a new PayPal payout gateway
func NewPayPalGateway(config *PayPalConfig, logger *zap.Logger) (*PayPalGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PayPalGateway{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalPayoutRequest struct {
	SenderBatchHeader paypalBatchHeader `json:"sender_batch_header"`
	Items             []paypalItem      `json:"items"`
}

type paypalBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject"`
}

type paypalItem struct {
	RecipientType string       `json:"recipient_type"`
	Amount        paypalAmount `json:"amount"`
	Receiver      string       `json:"receiver"`
	Note          string       `json:"note,omitempty"`
}

type paypalAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type paypalPayoutResponse struct {
	BatchHeader struct {
		PayoutBatchID string `json:"payout_batch_id"`
		BatchStatus   string `json:"batch_status"`
	} `json:"batch_header"`
}

type paypalErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// SendPayout creates a single-item payout batch and returns the batch ID as
// the gateway reference
func (g *PayPalGateway) SendPayout(ctx context.Context, payout *wallet.PayoutRequest) (string, error) {
	token, err := g.token(ctx)
	if err != nil {
		return "", err
	}

	body := paypalPayoutRequest{
		SenderBatchHeader: paypalBatchHeader{
			SenderBatchID: payout.ID.String(),
			EmailSubject:  "You have a payout",
		},
		Items: []paypalItem{{
			RecipientType: "EMAIL",
			Amount: paypalAmount{
				Value:    payout.NetAmount().StringFixed(2),
				Currency: "USD",
			},
			Receiver: payout.Destination,
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("paypal: failed to marshal payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.BaseURL+"/v1/payments/payouts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: payout request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr paypalErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Name != "" {
			return "", fmt.Errorf("paypal: payout rejected: %s: %s", apiErr.Name, apiErr.Message)
		}
		return "", fmt.Errorf("paypal: payout rejected with status %d", resp.StatusCode)
	}

	var result paypalPayoutResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("paypal: failed to parse response: %w", err)
	}
	if result.BatchHeader.PayoutBatchID == "" {
		return "", fmt.Errorf("paypal: response missing batch ID")
	}

	g.logger.Info("PayPal payout created",
		zap.String("payout_id", payout.ID.String()),
		zap.String("batch_id", result.BatchHeader.PayoutBatchID),
		zap.String("status", result.BatchHeader.BatchStatus))

	return result.BatchHeader.PayoutBatchID, nil
}

// token returns a cached OAuth access token, fetching a new one when expired
func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.BaseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", fmt.Errorf("paypal: failed to build token request: %w", err)
	}
	req.SetBasicAuth(g.config.ClientID, g.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal: token request rejected with status %d", resp.StatusCode)
	}

	var token paypalTokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("paypal: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("paypal: token response missing access token")
	}

	g.accessToken = token.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)

	return g.accessToken, nil
}
