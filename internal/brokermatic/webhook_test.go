package brokermatic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","event":"certificate.issued"}`)
	secret := "mock_webhook_secret"

	sig := SignPayload(body, secret)
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)

	assert.True(t, VerifySignature(body, sig, secret))
	assert.False(t, VerifySignature(body, sig, "wrong_secret"))
	assert.False(t, VerifySignature([]byte(`{"tampered":true}`), sig, secret))
	assert.False(t, VerifySignature(body, "sha256=deadbeef", secret))
	assert.False(t, VerifySignature(body, "", secret))
}
