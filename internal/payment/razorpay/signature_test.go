package razorpay

import (
	"strings"
	"testing"
)

func TestComputeSignatureKnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	got := ComputeSignature("key", []byte("The quick brown fox jumps over the lazy dog"))
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Fatalf("unexpected signature: got=%s want=%s", got, want)
	}
}

func TestVerifyClientSignature(t *testing.T) {
	secret := "key_secret_test"
	sig := ComputeSignature(secret, []byte("order_A|pay_B"))

	if !VerifyClientSignature(secret, "order_A", "pay_B", sig) {
		t.Fatalf("expected valid client signature")
	}
	if VerifyClientSignature(secret, "order_A", "pay_C", sig) {
		t.Fatalf("signature must bind payment id")
	}
	if VerifyClientSignature("other_secret", "order_A", "pay_B", sig) {
		t.Fatalf("signature must bind secret")
	}
	if VerifyClientSignature(secret, "order_A", "pay_B", strings.ToUpper(sig)) {
		t.Fatalf("uppercase hex must not match")
	}
	for _, padded := range []string{" " + sig, sig + "\n", "\t" + sig + " "} {
		if VerifyClientSignature(secret, "order_A", "pay_B", padded) {
			t.Fatalf("whitespace-padded signature %q must not match", padded)
		}
	}
}

func TestVerifySignatureRejectsEveryBitFlip(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := ComputeSignature(secret, body)
	if !VerifyWebhookSignature(secret, body, sig) {
		t.Fatalf("expected valid webhook signature")
	}

	for i := range body {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), body...)
			tampered[i] ^= 1 << bit
			if VerifyWebhookSignature(secret, tampered, sig) {
				t.Fatalf("bit flip at byte %d bit %d accepted", i, bit)
			}
		}
	}

	sigBytes := []byte(sig)
	for i := range sigBytes {
		tampered := append([]byte(nil), sigBytes...)
		if tampered[i] == '0' {
			tampered[i] = '1'
		} else {
			tampered[i] = '0'
		}
		if VerifyWebhookSignature(secret, body, string(tampered)) {
			t.Fatalf("tampered signature at %d accepted", i)
		}
	}
}

func TestVerifySignatureEmptyInputs(t *testing.T) {
	body := []byte("payload")
	if VerifySignature("", body, ComputeSignature("", body)) {
		t.Fatalf("empty secret must fail")
	}
	if VerifySignature("secret", body, "") {
		t.Fatalf("empty signature must fail")
	}
	if VerifySignature("secret", nil, "abc") {
		t.Fatalf("short signature must fail")
	}
}
