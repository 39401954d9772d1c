package creem

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"eventType":"checkout.completed"}`)
	sig := Sign("whsec_test", body)

	if sig == "" {
		t.Fatal("expected non-empty signature")
	}
	if !VerifySignature("whsec_test", body, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"amount":1500}`)
	sig := Sign("whsec_test", body)

	if VerifySignature("whsec_test", []byte(`{"amount":9999}`), sig) {
		t.Fatal("expected tampered body to fail verification")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"amount":1500}`)
	sig := Sign("whsec_test", body)

	if VerifySignature("whsec_other", body, sig) {
		t.Fatal("expected wrong secret to fail verification")
	}
}

func TestVerifyRejectsEmptySignature(t *testing.T) {
	if VerifySignature("whsec_test", []byte("{}"), "") {
		t.Fatal("expected empty signature to fail verification")
	}
}

func TestContentHashIsStableHex(t *testing.T) {
	first := ContentHash([]byte("payload"))
	second := ContentHash([]byte("payload"))

	if first != second {
		t.Fatalf("expected stable hash, got %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if first == ContentHash([]byte("other")) {
		t.Fatal("expected different payloads to hash differently")
	}
}
