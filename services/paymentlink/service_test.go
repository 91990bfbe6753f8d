package paymentlink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"construyo-opshub/internal/provider"
	"construyo-opshub/internal/provider/stripe"
	"construyo-opshub/pkg/backoff"
	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/security"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/audit"
	"construyo-opshub/services/records"
	"construyo-opshub/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeLinks struct {
	calls int
	err   error
}

func (f *fakeLinks) CreatePaymentLink(ctx context.Context, apiKey string, req stripe.LinkRequest) (*stripe.Link, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Link{ID: "plink_1", URL: "https://pay.example.com/plink_1"}, nil
}

type fakeDeliverer struct {
	calls int
	err   error
	last  provider.Message
}

func (f *fakeDeliverer) Deliver(ctx context.Context, msg provider.Message) (string, error) {
	f.calls++
	f.last = msg
	if f.err != nil {
		return "", f.err
	}
	return "msg_1", nil
}

type fixture struct {
	svc   *Service
	db    *gorm.DB
	links *fakeLinks
	email *fakeDeliverer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&records.Invoice{}, &records.BillingCredential{},
		&audit.DeliveryLog{}, &analytics.Event{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	key := security.DeriveKey("test-master-key")
	enc, err := security.EncryptSecret([]byte("sk_test_123"), key)
	require.NoError(t, err)

	require.NoError(t, db.Create(&records.Invoice{
		ID: "inv1", UserID: "u1", Reference: "INV-001",
		AmountMinor: 15000, Currency: "eur",
	}).Error)
	require.NoError(t, db.Create(&records.BillingCredential{
		ID: "bc1", UserID: "u1", Provider: "stripe",
		EncryptedSecretKey: enc, Active: true,
	}).Error)

	links := &fakeLinks{}
	email := &fakeDeliverer{}

	svc := &Service{
		store:        records.NewStore(records.StoreParams{DB: db}),
		auditlog:     audit.NewWriter(audit.WriterParams{DB: db, Node: node}),
		analytics:    analytics.NewWriter(analytics.WriterParams{DB: db, Node: node}),
		links:        links,
		email:        email,
		whatsapp:     &fakeDeliverer{err: errors.New("whatsapp unused")},
		exec:         backoff.NewExecutorWithSleeper(func(ctx context.Context, d time.Duration) error { return nil }),
		aesKey:       key,
		businessName: "Müller Renovations",
	}
	return &fixture{svc: svc, db: db, links: links, email: email}
}

func deliveryLogs(t *testing.T, db *gorm.DB) []audit.DeliveryLog {
	t.Helper()
	var rows []audit.DeliveryLog
	require.NoError(t, db.Find(&rows).Error)
	return rows
}

func TestShareDeliversAndLogsSuccess(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "https://pay.example.com/plink_1", resp.PaymentLink)
	require.NotNil(t, resp.DeliveryResult)
	require.Equal(t, "msg_1", resp.DeliveryResult.MessageID)
	require.Equal(t, "150.00 EUR", f.email.last.Amount)

	logs := deliveryLogs(t, f.db)
	require.Len(t, logs, 1)
	require.Equal(t, audit.StatusSuccess, logs[0].Status)
	require.Equal(t, "email", logs[0].Provider)
}

func TestShareDeliveryFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.email.err = errors.New("smtp relay down")

	resp, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "https://pay.example.com/plink_1", resp.PaymentLink)
	require.Nil(t, resp.DeliveryResult)
	require.Equal(t, 3, f.email.calls)

	logs := deliveryLogs(t, f.db)
	require.Len(t, logs, 1)
	require.Equal(t, audit.StatusFailed, logs[0].Status)
	require.Contains(t, logs[0].Error, "smtp relay down")
}

func TestShareLinkFailurePropagatesWithOneLog(t *testing.T) {
	f := newFixture(t)
	f.links.err = errors.New("stripe 503")

	_, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.Error(t, err)
	require.Equal(t, 3, f.links.calls)
	require.Zero(t, f.email.calls)

	logs := deliveryLogs(t, f.db)
	require.Len(t, logs, 1)
	require.Equal(t, audit.StatusFailed, logs[0].Status)
	require.Equal(t, "stripe", logs[0].Provider)
}

func TestShareUnknownInvoiceIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "missing",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
	require.Zero(t, f.links.calls)
}

func TestShareForeignInvoiceIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Share(context.Background(), "u2", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestShareMissingCredentialsIsMisconfigured(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Where("user_id = ?", "u1").Delete(&records.BillingCredential{}).Error)

	_, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryEmail,
		RecipientContact: "a@b.com",
	})

	require.Error(t, err)
	require.Equal(t, errutil.StatusUnprocessableEntity, errutil.StatusOf(err))
}

func TestShareRejectsUnknownDeliveryMethod(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Share(context.Background(), "u1", ShareRequest{
		InvoiceID:        "inv1",
		DeliveryMethod:   DeliveryMethod("carrier_pigeon"),
		RecipientContact: "a@b.com",
	})

	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
	require.Zero(t, f.links.calls)
}
