package queue

import (
	"testing"

	"github.com/paybridge/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueCaptureReconcile(CaptureReconcilePayload{PaymentID: "pay_1"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestCaptureReconcileTaskRoundTrip(t *testing.T) {
	task, err := NewCaptureReconcileTask(CaptureReconcilePayload{PaymentID: "pay_1", Amount: "500.00", Currency: "inr"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskPaymentCaptureReconcile {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := ParseCaptureReconcilePayload(task.Payload())
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.PaymentID != "pay_1" || payload.Amount != "500.00" || payload.Currency != "INR" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if captureReconcileTaskID("pay_1") != "payment:capture_reconcile:pay_1" {
		t.Fatalf("unexpected task id: %s", captureReconcileTaskID("pay_1"))
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2, Concurrency: 4})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 4 || cfg.Queues[CriticalQueue] != 6 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
