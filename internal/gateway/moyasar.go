package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// MoyasarAdapter drives card payments through Moyasar's invoice API.
type MoyasarAdapter struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
}

// NewMoyasarAdapter builds the Moyasar adapter from configuration.
func NewMoyasarAdapter(cfg config.MoyasarConfig) (*MoyasarAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("moyasar api key is required")
	}
	return &MoyasarAdapter{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (a *MoyasarAdapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodMoyasar
}

type moyasarInvoiceRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
	Metadata    struct {
		OrderID   string `json:"order_id"`
		SessionID string `json:"session_id"`
	} `json:"metadata"`
}

type moyasarInvoiceResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
	Source struct {
		Message string `json:"message"`
	} `json:"source"`
}

func (a *MoyasarAdapter) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	req := moyasarInvoiceRequest{
		Amount:      input.AmountHalalas,
		Currency:    input.Currency,
		Description: input.Description,
		CallbackURL: input.CallbackURL,
	}
	req.Metadata.OrderID = input.OrderID.String()
	req.Metadata.SessionID = input.SessionID.String()

	var resp moyasarInvoiceResponse
	err := doJSON(ctx, a.httpClient, http.MethodPost, a.baseURL+"/v1/invoices", a.headers(), req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.URL == "" {
		return nil, errors.New(errors.CodeGateway, "moyasar returned no invoice handle")
	}
	return &InitiateResult{ProviderRef: resp.ID, RedirectURL: resp.URL}, nil
}

func (a *MoyasarAdapter) Verify(ctx context.Context, providerRef string) (*VerifyResult, error) {
	return verifyWithRetry(ctx, func(ctx context.Context) (*VerifyResult, error) {
		var resp moyasarInvoiceResponse
		url := fmt.Sprintf("%s/v1/invoices/%s", a.baseURL, providerRef)
		if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &resp); err != nil {
			return nil, err
		}
		switch resp.Status {
		case "paid":
			return &VerifyResult{Outcome: OutcomePaid}, nil
		case "failed", "voided", "expired":
			return &VerifyResult{Outcome: OutcomeFailed, FailureCode: firstNonEmpty(resp.Source.Message, resp.Status)}, nil
		default:
			return &VerifyResult{Outcome: OutcomePending}, nil
		}
	})
}

func (a *MoyasarAdapter) VerifyWebhookSignature(payload []byte, signature string) error {
	return verifyHMACSignature(a.webhookSecret, payload, signature)
}

func (a *MoyasarAdapter) headers() map[string]string {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.apiKey + ":"))
	return map[string]string{"Authorization": "Basic " + credentials}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// halalasToSAR is kept for providers that bill in major units.
func halalasToSAR(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}
