package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureVerifier(t *testing.T) {
	v := NewHMACSignatureVerifier()
	body := []byte(`{"integrationId":"x","type":"error"}`)
	sig := v.Sign(body, "secret")

	tests := []struct {
		name      string
		signature string
		body      []byte
		secret    string
		want      bool
	}{
		{"bare hex", sig, body, "secret", true},
		{"prefixed", "sha256=" + sig, body, "secret", true},
		{"wrong secret", sig, body, "other", false},
		{"tampered body", sig, []byte(`{"integrationId":"y","type":"error"}`), "secret", false},
		{"not hex", "zz", body, "secret", false},
		{"empty", "", body, "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Verify(tt.signature, tt.body, tt.secret))
		})
	}
}
