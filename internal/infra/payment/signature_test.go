package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","eventType":"checkout.completed"}`)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	sig := hex.EncodeToString(h.Sum(nil))

	if !VerifyWebhookSignature(secret, body, sig) {
		t.Fatal("valid signature rejected")
	}
	if !VerifyWebhookSignature(secret, body, strings.ToUpper(sig)) {
		t.Fatal("signature comparison must be case-insensitive")
	}
	if VerifyWebhookSignature(secret, body, "deadbeef") {
		t.Fatal("wrong signature accepted")
	}
	if VerifyWebhookSignature(secret, []byte("tampered"), sig) {
		t.Fatal("tampered body accepted")
	}
	if VerifyWebhookSignature("", body, sig) {
		t.Fatal("empty secret must never verify")
	}
	if VerifyWebhookSignature(secret, body, "") {
		t.Fatal("empty signature must never verify")
	}
}
