package razorpay

import (
	"errors"
	"testing"
)

func TestParseWebhookEventPaymentCaptured(t *testing.T) {
	body := []byte(`{"entity":"event","event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":50000,"currency":"inr","status":"captured"}}}}`)
	event, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Event != "payment.captured" || event.PaymentID != "pay_1" || event.OrderID != "order_1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.AmountMinor != 50000 || event.Currency != "INR" {
		t.Fatalf("unexpected amount: %d %s", event.AmountMinor, event.Currency)
	}
	if !event.HasPaymentEntity() {
		t.Fatalf("expected payment entity")
	}
}

func TestParseWebhookEventWithoutPayment(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1"}}}}`))
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.HasPaymentEntity() {
		t.Fatalf("order event should carry no payment entity")
	}
}

func TestParseWebhookEventMalformed(t *testing.T) {
	cases := [][]byte{nil, []byte("   "), []byte("{not json"), []byte(`{"payload":{}}`), []byte(`null`)}
	for _, body := range cases {
		if _, err := ParseWebhookEvent(body); !errors.Is(err, ErrResponseInvalid) {
			t.Fatalf("body %q expected ErrResponseInvalid, got %v", body, err)
		}
	}
}
