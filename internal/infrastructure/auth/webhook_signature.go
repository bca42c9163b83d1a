package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Webhook-Signature"

var _ integration.SignatureVerifier = (*HMACSignatureVerifier)(nil)

// HMACSignatureVerifier checks "sha256=<hex>" or bare hex HMAC-SHA256 signatures
type HMACSignatureVerifier struct{}

// NewHMACSignatureVerifier creates a verifier
func NewHMACSignatureVerifier() *HMACSignatureVerifier {
	return &HMACSignatureVerifier{}
}

// Sign returns the hex signature of body under secret
func (v *HMACSignatureVerifier) Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signatures in constant time
func (v *HMACSignatureVerifier) Verify(signature string, rawBody []byte, secret string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(v.Sign(rawBody, secret))
	return hmac.Equal(got, want)
}
