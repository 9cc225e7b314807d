package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// TamaraAdapter drives buy-now-pay-later checkouts through Tamara. Tamara
// bills in major currency units, so amounts convert from halalas on the way
// out.
type TamaraAdapter struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
}

// NewTamaraAdapter builds the Tamara adapter from configuration.
func NewTamaraAdapter(cfg config.TamaraConfig) (*TamaraAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tamara api key is required")
	}
	return &TamaraAdapter{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (a *TamaraAdapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodTamara
}

type tamaraAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type tamaraCheckoutRequest struct {
	TotalAmount tamaraAmount `json:"total_amount"`
	OrderRefID  string       `json:"order_reference_id"`
	Description string       `json:"description"`
	MerchantURL struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Cancel  string `json:"cancel"`
	} `json:"merchant_url"`
	Consumer struct {
		Email       string `json:"email,omitempty"`
		PhoneNumber string `json:"phone_number,omitempty"`
	} `json:"consumer"`
	PaymentType string `json:"payment_type"`
}

type tamaraCheckoutResponse struct {
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

type tamaraOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (a *TamaraAdapter) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	req := tamaraCheckoutRequest{
		TotalAmount: tamaraAmount{
			Amount:   halalasToSAR(input.AmountHalalas).StringFixed(2),
			Currency: input.Currency,
		},
		OrderRefID:  input.OrderID.String(),
		Description: input.Description,
		PaymentType: "PAY_BY_INSTALMENTS",
	}
	req.MerchantURL.Success = input.CallbackURL
	req.MerchantURL.Failure = input.CallbackURL
	req.MerchantURL.Cancel = input.CallbackURL
	req.Consumer.Email = input.CustomerEmail
	req.Consumer.PhoneNumber = input.CustomerPhone

	var resp tamaraCheckoutResponse
	err := doJSON(ctx, a.httpClient, http.MethodPost, a.baseURL+"/checkout", a.headers(), req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.OrderID == "" || resp.CheckoutURL == "" {
		return nil, errors.New(errors.CodeGateway, "tamara returned no checkout handle")
	}
	return &InitiateResult{ProviderRef: resp.OrderID, RedirectURL: resp.CheckoutURL}, nil
}

func (a *TamaraAdapter) Verify(ctx context.Context, providerRef string) (*VerifyResult, error) {
	return verifyWithRetry(ctx, func(ctx context.Context) (*VerifyResult, error) {
		var resp tamaraOrderResponse
		url := fmt.Sprintf("%s/orders/%s", a.baseURL, providerRef)
		if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &resp); err != nil {
			return nil, err
		}
		switch strings.ToLower(resp.Status) {
		case "approved", "authorised", "fully_captured":
			return &VerifyResult{Outcome: OutcomePaid}, nil
		case "declined", "expired", "canceled":
			return &VerifyResult{Outcome: OutcomeFailed, FailureCode: strings.ToLower(resp.Status)}, nil
		default:
			return &VerifyResult{Outcome: OutcomePending}, nil
		}
	})
}

func (a *TamaraAdapter) VerifyWebhookSignature(payload []byte, signature string) error {
	return verifyHMACSignature(a.webhookSecret, payload, signature)
}

func (a *TamaraAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}
