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

// TabbyAdapter drives buy-now-pay-later checkouts through Tabby.
type TabbyAdapter struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	merchantCode  string
	webhookSecret string
}

// NewTabbyAdapter builds the Tabby adapter from configuration.
func NewTabbyAdapter(cfg config.TabbyConfig) (*TabbyAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tabby api key is required")
	}
	if strings.TrimSpace(cfg.MerchantCode) == "" {
		return nil, fmt.Errorf("tabby merchant code is required")
	}
	return &TabbyAdapter{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		apiKey:        cfg.APIKey,
		merchantCode:  cfg.MerchantCode,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (a *TabbyAdapter) Method() enums.PaymentMethod {
	return enums.PaymentMethodTabby
}

type tabbyCheckoutRequest struct {
	Payment struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Buyer    struct {
			Email string `json:"email,omitempty"`
			Phone string `json:"phone,omitempty"`
		} `json:"buyer"`
		Order struct {
			ReferenceID string `json:"reference_id"`
		} `json:"order"`
	} `json:"payment"`
	Lang         string `json:"lang"`
	MerchantCode string `json:"merchant_code"`
	MerchantURLs struct {
		Success string `json:"success"`
		Cancel  string `json:"cancel"`
		Failure string `json:"failure"`
	} `json:"merchant_urls"`
}

type tabbyCheckoutResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Configuration struct {
		AvailableProducts struct {
			Installments []struct {
				WebURL string `json:"web_url"`
			} `json:"installments"`
		} `json:"available_products"`
	} `json:"configuration"`
	Payment struct {
		ID string `json:"id"`
	} `json:"payment"`
}

type tabbyPaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (a *TabbyAdapter) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	req := tabbyCheckoutRequest{Lang: "ar", MerchantCode: a.merchantCode}
	req.Payment.Amount = halalasToSAR(input.AmountHalalas).StringFixed(2)
	req.Payment.Currency = input.Currency
	req.Payment.Buyer.Email = input.CustomerEmail
	req.Payment.Buyer.Phone = input.CustomerPhone
	req.Payment.Order.ReferenceID = input.OrderID.String()
	req.MerchantURLs.Success = input.CallbackURL
	req.MerchantURLs.Cancel = input.CallbackURL
	req.MerchantURLs.Failure = input.CallbackURL

	var resp tabbyCheckoutResponse
	err := doJSON(ctx, a.httpClient, http.MethodPost, a.baseURL+"/api/v2/checkout", a.headers(), req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Payment.ID == "" {
		return nil, errors.New(errors.CodeGateway, "tabby returned no payment handle")
	}
	installments := resp.Configuration.AvailableProducts.Installments
	if len(installments) == 0 || installments[0].WebURL == "" {
		return nil, errors.New(errors.CodeDependency, "tabby rejected the checkout").
			WithDetails(map[string]any{"status": resp.Status})
	}
	return &InitiateResult{ProviderRef: resp.Payment.ID, RedirectURL: installments[0].WebURL}, nil
}

func (a *TabbyAdapter) Verify(ctx context.Context, providerRef string) (*VerifyResult, error) {
	return verifyWithRetry(ctx, func(ctx context.Context) (*VerifyResult, error) {
		var resp tabbyPaymentResponse
		url := fmt.Sprintf("%s/api/v2/payments/%s", a.baseURL, providerRef)
		if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &resp); err != nil {
			return nil, err
		}
		switch strings.ToUpper(resp.Status) {
		case "AUTHORIZED", "CLOSED", "CAPTURED":
			return &VerifyResult{Outcome: OutcomePaid}, nil
		case "REJECTED", "EXPIRED":
			return &VerifyResult{Outcome: OutcomeFailed, FailureCode: strings.ToLower(resp.Status)}, nil
		default:
			return &VerifyResult{Outcome: OutcomePending}, nil
		}
	})
}

func (a *TabbyAdapter) VerifyWebhookSignature(payload []byte, signature string) error {
	return verifyHMACSignature(a.webhookSecret, payload, signature)
}

func (a *TabbyAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}
