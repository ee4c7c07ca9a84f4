package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupPaymentRecordRepositoryTest(t *testing.T) (*GormPaymentRecordRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_record_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPaymentRecordRepository(db), db
}

func newRecord(orderID, paymentID, status string, amount int64) *models.PaymentRecord {
	return &models.PaymentRecord{
		OrderID:   orderID,
		PaymentID: paymentID,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Currency:  "inr",
		Status:    status,
	}
}

func TestUpsertByPaymentIDInsertsAndNormalizes(t *testing.T) {
	repo, _ := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()

	got, applied, err := repo.UpsertByPaymentID(ctx, newRecord(" order_1 ", "pay_1", constants.PaymentStatusVerified, 500), VerifiedColumns)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if !applied {
		t.Fatalf("first upsert should be applied")
	}
	if got.OrderID != "order_1" || got.Currency != "INR" || got.Captured {
		t.Fatalf("unexpected stored record: %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected amount: %s", got.Amount.String())
	}
}

func TestUpsertByPaymentIDNeverRegressesCaptured(t *testing.T) {
	repo, _ := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()

	if _, _, err := repo.UpsertByPaymentID(ctx, newRecord("", "pay_2", constants.PaymentStatusCaptured, 500), WebhookColumns); err != nil {
		t.Fatalf("captured upsert failed: %v", err)
	}
	createdBefore, err := repo.GetByPaymentID(ctx, "pay_2")
	if err != nil || createdBefore == nil {
		t.Fatalf("get record failed: %v", err)
	}

	got, applied, err := repo.UpsertByPaymentID(ctx, newRecord("order_2", "pay_2", constants.PaymentStatusVerified, 500), VerifiedColumns)
	if err != nil {
		t.Fatalf("verified upsert failed: %v", err)
	}
	if applied {
		t.Fatalf("verified write over captured must not apply")
	}
	if got.Status != constants.PaymentStatusCaptured || !got.Captured {
		t.Fatalf("status regressed: %+v", got)
	}
	if got.OrderID != "" {
		t.Fatalf("order id should be untouched, got %q", got.OrderID)
	}
	if !got.CreatedAt.Equal(createdBefore.CreatedAt) {
		t.Fatalf("created_at changed: before=%v after=%v", createdBefore.CreatedAt, got.CreatedAt)
	}
}

func TestUpsertByPaymentIDAdvancesVerifiedToCaptured(t *testing.T) {
	repo, _ := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()

	if _, _, err := repo.UpsertByPaymentID(ctx, newRecord("order_3", "pay_3", constants.PaymentStatusVerified, 500), VerifiedColumns); err != nil {
		t.Fatalf("verified upsert failed: %v", err)
	}
	got, applied, err := repo.UpsertByPaymentID(ctx, newRecord("", "pay_3", constants.PaymentStatusCaptured, 500), CapturedColumns)
	if err != nil {
		t.Fatalf("captured upsert failed: %v", err)
	}
	if !applied || !got.IsCaptured() || !got.Captured {
		t.Fatalf("expected captured record, got %+v applied=%v", got, applied)
	}
	if got.OrderID != "order_3" {
		t.Fatalf("captured columns must not overwrite order id, got %q", got.OrderID)
	}
}

func TestUpsertByPaymentIDRequiresKey(t *testing.T) {
	repo, _ := setupPaymentRecordRepositoryTest(t)
	if _, _, err := repo.UpsertByPaymentID(context.Background(), newRecord("order", " ", constants.PaymentStatusVerified, 1), VerifiedColumns); err != ErrRecordKeyMissing {
		t.Fatalf("expected ErrRecordKeyMissing, got %v", err)
	}
}

func TestUpsertByPaymentIDConcurrentWritersKeepSingleRow(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "concurrent.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := NewPaymentRecordRepository(db)
	ctx := context.Background()

	var group errgroup.Group
	for i := 0; i < 16; i++ {
		status := constants.PaymentStatusCaptured
		columns := WebhookColumns
		if i%2 == 1 {
			status = constants.PaymentStatusVerified
			columns = VerifiedColumns
		}
		group.Go(func() error {
			_, _, err := repo.UpsertByPaymentID(ctx, newRecord("order_c", "pay_c", status, 500), columns)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.PaymentRecord{}).Where("payment_id = ?", "pay_c").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
	got, err := repo.GetByPaymentID(ctx, "pay_c")
	if err != nil || got == nil {
		t.Fatalf("get record failed: %v", err)
	}
	if got.Status != constants.PaymentStatusCaptured || !got.Captured {
		t.Fatalf("final status should be captured, got %+v", got)
	}
}

func TestUpsertByOrderID(t *testing.T) {
	repo, _ := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()

	got, applied, err := repo.UpsertByOrderID(ctx, newRecord("order_o", "pay_o", constants.PaymentStatusVerified, 200), VerifiedColumns)
	if err != nil || !applied {
		t.Fatalf("insert by order id failed: %v applied=%v", err, applied)
	}
	if got.ID == 0 {
		t.Fatalf("expected persisted id")
	}

	captured := newRecord("order_o", "pay_o", constants.PaymentStatusCaptured, 200)
	got, applied, err = repo.UpsertByOrderID(ctx, captured, CapturedColumns)
	if err != nil || !applied {
		t.Fatalf("capture by order id failed: %v applied=%v", err, applied)
	}
	if !got.IsCaptured() {
		t.Fatalf("expected captured, got %s", got.Status)
	}

	got, applied, err = repo.UpsertByOrderID(ctx, newRecord("order_o", "pay_o", constants.PaymentStatusVerified, 200), VerifiedColumns)
	if err != nil {
		t.Fatalf("verified by order id failed: %v", err)
	}
	if applied || !got.IsCaptured() {
		t.Fatalf("verified must not regress captured: applied=%v status=%s", applied, got.Status)
	}

	if _, _, err := repo.UpsertByOrderID(ctx, newRecord("order_missing", "", constants.PaymentStatusVerified, 1), VerifiedColumns); err != ErrRecordKeyMissing {
		t.Fatalf("insert without payment id should fail, got %v", err)
	}
}

func TestUpsertByOrderIDKeepsSingleRowPerOrder(t *testing.T) {
	repo, db := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()

	if _, _, err := repo.UpsertByOrderID(ctx, newRecord("order_dup", "pay_dup_1", constants.PaymentStatusVerified, 100), VerifiedColumns); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	got, applied, err := repo.UpsertByOrderID(ctx, newRecord("order_dup", "pay_dup_2", constants.PaymentStatusVerified, 150), VerifiedColumns)
	if err != nil || !applied {
		t.Fatalf("second upsert failed: %v applied=%v", err, applied)
	}
	if got.PaymentID != "pay_dup_1" || got.Amount.String() != "150.00" {
		t.Fatalf("second write should update the existing row, got %+v", got)
	}

	var count int64
	if err := db.Model(&models.PaymentRecord{}).Where("order_id = ?", "order_dup").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per order, got %d", count)
	}
	var guards int64
	if err := db.Model(&models.PaymentOrderGuard{}).Where("order_id = ?", "order_dup").Count(&guards).Error; err != nil {
		t.Fatalf("count guards failed: %v", err)
	}
	if guards != 1 {
		t.Fatalf("expected one guard row, got %d", guards)
	}
}

func TestListOrdersByCreatedAtDesc(t *testing.T) {
	repo, db := setupPaymentRecordRepositoryTest(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		record := newRecord(fmt.Sprintf("order_%d", i), fmt.Sprintf("pay_%d", i), constants.PaymentStatusVerified, int64(100*(i+1)))
		record.Currency = constants.CurrencyDefault
		record.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		record.UpdatedAt = record.CreatedAt
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("create record failed: %v", err)
		}
	}

	all, total, err := repo.List(ctx, PaymentRecordListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 records, got total=%d len=%d", total, len(all))
	}
	if all[0].PaymentID != "pay_2" || all[2].PaymentID != "pay_0" {
		t.Fatalf("unexpected order: %s, %s, %s", all[0].PaymentID, all[1].PaymentID, all[2].PaymentID)
	}

	page, total, err := repo.List(ctx, PaymentRecordListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].PaymentID != "pay_0" {
		t.Fatalf("unexpected second page: total=%d %+v", total, page)
	}

	empty, _, err := repo.List(ctx, PaymentRecordListFilter{Status: constants.PaymentStatusCaptured})
	if err != nil {
		t.Fatalf("status filter failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no captured records, got %d", len(empty))
	}
}

func TestWebhookLogRepository(t *testing.T) {
	_, db := setupPaymentRecordRepositoryTest(t)
	repo := NewPaymentWebhookLogRepository(db)
	ctx := context.Background()

	entry := &models.PaymentWebhookLog{
		EventID:   "evt_1",
		EventType: constants.WebhookEventPaymentCaptured,
		PaymentID: "pay_w",
		Processed: true,
		Payload:   models.JSON{"event": constants.WebhookEventPaymentCaptured},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create webhook log failed: %v", err)
	}
	logs, err := repo.ListByPaymentID(ctx, "pay_w")
	if err != nil {
		t.Fatalf("list webhook logs failed: %v", err)
	}
	if len(logs) != 1 || !logs[0].Processed || logs[0].Payload["event"] != constants.WebhookEventPaymentCaptured {
		t.Fatalf("unexpected webhook logs: %+v", logs)
	}
}
