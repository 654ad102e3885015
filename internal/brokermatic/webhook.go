package brokermatic

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload computes the webhook signature Brokermatic sends in the
// x-brokermatic-signature header: "sha256=" + hex(HMAC-SHA256(body, secret))
func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook body against its signature header using a
// constant-time comparison
func VerifySignature(body []byte, signature, secret string) bool {
	expected := SignPayload(body, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
