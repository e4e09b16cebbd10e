package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPayout(t *testing.T, method wallet.PayoutMethod, amount string, destination string) *wallet.PayoutRequest {
	t.Helper()
	payout, err := wallet.NewPayoutRequest(uuid.New(), method, decimal.RequireFromString(amount), destination)
	require.NoError(t, err)
	return payout
}

func TestPayPalConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PayPalConfig
		wantErr bool
	}{
		{"valid", PayPalConfig{ClientID: "id", ClientSecret: "secret", BaseURL: "https://api-m.sandbox.paypal.com"}, false},
		{"missing client id", PayPalConfig{ClientSecret: "secret", BaseURL: "https://x"}, true},
		{"missing secret", PayPalConfig{ClientID: "id", BaseURL: "https://x"}, true},
		{"missing base url", PayPalConfig{ClientID: "id", ClientSecret: "secret"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPayPalGateway_SendPayout(t *testing.T) {
	var payoutBody paypalPayoutRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(paypalTokenResponse{AccessToken: "token-abc", ExpiresIn: 3600})
		case "/v1/payments/payouts":
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payoutBody))
			w.WriteHeader(http.StatusCreated)
			resp := paypalPayoutResponse{}
			resp.BatchHeader.PayoutBatchID = "BATCH-123"
			resp.BatchHeader.BatchStatus = "PENDING"
			_ = json.NewEncoder(w).Encode(resp)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	gateway, err := NewPayPalGateway(&PayPalConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BaseURL:      server.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	payout := newTestPayout(t, wallet.PayoutMethodPaypal, "50.00", "user@example.com")

	ref, err := gateway.SendPayout(context.Background(), payout)
	require.NoError(t, err)
	assert.Equal(t, "BATCH-123", ref)

	require.Len(t, payoutBody.Items, 1)
	assert.Equal(t, "EMAIL", payoutBody.Items[0].RecipientType)
	assert.Equal(t, "user@example.com", payoutBody.Items[0].Receiver)
	// net of the $0.30 PayPal fee
	assert.Equal(t, "49.70", payoutBody.Items[0].Amount.Value)
	assert.Equal(t, "USD", payoutBody.Items[0].Amount.Currency)
	assert.Equal(t, payout.ID.String(), payoutBody.SenderBatchHeader.SenderBatchID)
}

func TestPayPalGateway_SendPayout_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			_ = json.NewEncoder(w).Encode(paypalTokenResponse{AccessToken: "t", ExpiresIn: 3600})
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(paypalErrorResponse{
			Name:    "RECEIVER_UNREGISTERED",
			Message: "Receiver is unregistered",
		})
	}))
	defer server.Close()

	gateway, err := NewPayPalGateway(&PayPalConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	payout := newTestPayout(t, wallet.PayoutMethodPaypal, "20.00", "nobody@example.com")

	_, err = gateway.SendPayout(context.Background(), payout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECEIVER_UNREGISTERED")
}

func TestPayPalGateway_TokenReuse(t *testing.T) {
	tokenCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenCalls++
			_ = json.NewEncoder(w).Encode(paypalTokenResponse{AccessToken: "t", ExpiresIn: 3600})
			return
		}
		w.WriteHeader(http.StatusCreated)
		resp := paypalPayoutResponse{}
		resp.BatchHeader.PayoutBatchID = "B"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gateway, err := NewPayPalGateway(&PayPalConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		payout := newTestPayout(t, wallet.PayoutMethodPaypal, "15.00", "user@example.com")
		_, err := gateway.SendPayout(context.Background(), payout)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, tokenCalls)
}
