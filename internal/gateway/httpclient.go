package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

// doJSON sends one JSON request and decodes the response into out. Provider
// 5xx and transport failures surface as retryable gateway errors; 4xx are
// terminal dependency errors carrying the provider body for diagnostics.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "encoding provider request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "building provider request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeGateway, err, "calling payment provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return errors.Wrap(errors.CodeGateway, err, "reading provider response")
	}

	switch {
	case resp.StatusCode >= 500:
		return errors.New(errors.CodeGateway, fmt.Sprintf("provider returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return errors.New(errors.CodeDependency, fmt.Sprintf("provider rejected request with %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.CodeGateway, err, "decoding provider response")
	}
	return nil
}

// verifyWithRetry runs fn and retries exactly once if the first attempt died
// on a retryable gateway error. Initiate calls must never go through here.
func verifyWithRetry(ctx context.Context, fn func(context.Context) (*VerifyResult, error)) (*VerifyResult, error) {
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}

	var appErr *errors.Error
	if !errors.As(err, &appErr) || appErr.Code() != errors.CodeGateway {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return fn(ctx)
}
