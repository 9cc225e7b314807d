package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// verifyHMACSignature checks a hex-encoded HMAC-SHA256 of the raw payload.
// All three redirect providers sign webhooks this way, differing only in the
// header the signature travels in.
func verifyHMACSignature(secret string, payload []byte, signature string) error {
	if secret == "" {
		return errors.New(errors.CodeInternal, "webhook secret not configured")
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return errors.New(errors.CodeUnauthorized, "missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return errors.New(errors.CodeUnauthorized, "invalid webhook signature")
	}
	return nil
}

// SignPayload produces the hex HMAC-SHA256 used in webhook tests and local
// tooling.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
