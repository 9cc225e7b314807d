package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

func moyasarTestAdapter(t *testing.T, url string) *MoyasarAdapter {
	t.Helper()
	adapter, err := NewMoyasarAdapter(config.MoyasarConfig{
		APIURL:        url,
		APIKey:        "sk_test_123",
		WebhookSecret: "whsec",
		Timeout:       2 * time.Second,
	})
	require.NoError(t, err)
	return adapter
}

func TestMoyasarInitiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Basic ")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"inv_1","status":"initiated","url":"https://pay.example/inv_1"}`))
	}))
	defer server.Close()

	adapter := moyasarTestAdapter(t, server.URL)
	result, err := adapter.Initiate(context.Background(), InitiateInput{
		OrderID:       uuid.New(),
		SessionID:     uuid.New(),
		AmountHalalas: 15800,
		Currency:      "SAR",
		CallbackURL:   "https://shop.example/payments/callback",
	})
	require.NoError(t, err)
	assert.Equal(t, "inv_1", result.ProviderRef)
	assert.Equal(t, "https://pay.example/inv_1", result.RedirectURL)
}

func TestMoyasarVerifyRetriesOnceOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"inv_1","status":"paid"}`))
	}))
	defer server.Close()

	adapter := moyasarTestAdapter(t, server.URL)
	result, err := adapter.Verify(context.Background(), "inv_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, 2, calls)
}

func TestMoyasarVerifyDoesNotRetryRejection(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := moyasarTestAdapter(t, server.URL)
	_, err := adapter.Verify(context.Background(), "inv_missing")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeDependency, appErr.Code())
}

func TestMoyasarVerifyFailedOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"inv_1","status":"failed","source":{"message":"INSUFFICIENT_FUNDS"}}`))
	}))
	defer server.Close()

	adapter := moyasarTestAdapter(t, server.URL)
	result, err := adapter.Verify(context.Background(), "inv_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, "INSUFFICIENT_FUNDS", result.FailureCode)
}

func TestWebhookSignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"inv_1","status":"paid"}`)
	signature := SignPayload("whsec", payload)

	adapter := moyasarTestAdapter(t, "https://api.moyasar.com")
	require.NoError(t, adapter.VerifyWebhookSignature(payload, signature))

	err := adapter.VerifyWebhookSignature(payload, "deadbeef")
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
}

func TestRegistryResolvesByMethod(t *testing.T) {
	moyasar := moyasarTestAdapter(t, "https://api.moyasar.com")
	tamara, err := NewTamaraAdapter(config.TamaraConfig{APIURL: "https://api.tamara.co", APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)

	registry, err := NewRegistry(moyasar, tamara)
	require.NoError(t, err)

	got, err := registry.Get(moyasar.Method())
	require.NoError(t, err)
	assert.Same(t, Adapter(moyasar), got)

	_, err = registry.Get("wallet")
	require.Error(t, err)
}
