package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body
const SignatureHeader = "X-Razorpay-Signature"

var (
	ErrMissingSignature = errors.New("missing X-Razorpay-Signature header")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verify checks that rawBody, byte for byte as received, was signed with secret.
// A missing header is ErrMissingSignature; every other failure, including an
// unconfigured secret, is ErrInvalidSignature.
func Verify(rawBody []byte, signatureHeader, secret string) error {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), decoded) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature the gateway would send for body
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
