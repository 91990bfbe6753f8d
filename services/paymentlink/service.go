package paymentlink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"construyo-opshub/internal/provider"
	"construyo-opshub/internal/provider/resend"
	"construyo-opshub/internal/provider/respondio"
	"construyo-opshub/internal/provider/stripe"
	"construyo-opshub/pkg/backoff"
	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/metrics"
	"construyo-opshub/pkg/security"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/audit"
	"construyo-opshub/services/records"
)

// Deliverer sends an already-generated payment link over one channel.
type Deliverer interface {
	Deliver(ctx context.Context, msg provider.Message) (string, error)
}

// LinkCreator generates a hosted payment link with the user's own API key.
type LinkCreator interface {
	CreatePaymentLink(ctx context.Context, apiKey string, req stripe.LinkRequest) (*stripe.Link, error)
}

var linkPolicy = backoff.Policy{MaxAttempts: 3, BaseDelay: time.Second, Strategy: backoff.Exponential}
var deliverPolicy = backoff.Policy{MaxAttempts: 3, BaseDelay: time.Second, Strategy: backoff.Exponential}

type Service struct {
	store        *records.Store
	auditlog     *audit.Writer
	analytics    *analytics.Writer
	links        LinkCreator
	email        Deliverer
	whatsapp     Deliverer
	exec         *backoff.Executor
	aesKey       [32]byte
	businessName string
}

type ServiceParams struct {
	fx.In

	Config    *config.Config
	Store     *records.Store
	Audit     *audit.Writer
	Analytics *analytics.Writer
	Stripe    *stripe.Client
	Resend    *resend.Client
	RespondIO *respondio.Client
}

func NewService(p ServiceParams) *Service {
	return &Service{
		store:        p.Store,
		auditlog:     p.Audit,
		analytics:    p.Analytics,
		links:        p.Stripe,
		email:        p.Resend,
		whatsapp:     p.RespondIO,
		exec:         backoff.NewExecutor(),
		aesKey:       security.DeriveKey(p.Config.SecretAES),
		businessName: p.Config.AppName,
	}
}

func (s *Service) deliverer(m DeliveryMethod) Deliverer {
	switch m {
	case DeliveryEmail:
		return s.email
	case DeliveryWhatsApp:
		return s.whatsapp
	default:
		return nil
	}
}

// Share generates a payment link for the invoice and sends it over the
// requested channel. A failed delivery does not fail the request: the link
// was generated, so the response reports success and the failure is recorded
// in the delivery log only.
func (s *Service) Share(ctx context.Context, userID string, req ShareRequest) (*ShareResponse, error) {
	if !req.DeliveryMethod.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown delivery method %q", req.DeliveryMethod))
	}

	invoice, err := s.store.Invoice(ctx, userID, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	cred, err := s.store.ActiveBillingCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	apiKey, err := security.DecryptSecret(cred.EncryptedSecretKey, s.aesKey)
	if err != nil {
		return nil, errutil.Misconfigured("stored billing credentials could not be decrypted", errutil.WithErr(err))
	}

	started := time.Now()
	link, err := backoff.RetryValue(ctx, s.exec, "stripe.payment_link", linkPolicy, func(ctx context.Context) (*stripe.Link, error) {
		return s.links.CreatePaymentLink(ctx, apiKey, stripe.LinkRequest{
			AmountMinor: invoice.AmountMinor,
			Currency:    invoice.Currency,
			Description: linkDescription(invoice),
		})
	})
	if err != nil {
		metrics.RecordDelivery("stripe", "failed", time.Since(started).Seconds())
		s.auditlog.Append(ctx, audit.Entry{
			UserID:     userID,
			RecordType: string(records.RecordTypeInvoice),
			RecordID:   invoice.ID,
			Provider:   "stripe",
			Status:     audit.StatusFailed,
			Error:      err.Error(),
			RetryCount: linkPolicy.MaxAttempts - 1,
		})
		return nil, err
	}
	metrics.RecordDelivery("stripe", "success", time.Since(started).Seconds())

	resp := &ShareResponse{
		Success:     true,
		PaymentLink: link.URL,
		Message:     fmt.Sprintf("Payment link for %s generated", invoice.Reference),
	}

	msg := provider.Message{
		Recipient:     req.RecipientContact,
		BusinessName:  s.businessName,
		InvoiceRef:    invoice.Reference,
		Amount:        formatAmount(invoice.AmountMinor, invoice.Currency),
		PaymentURL:    link.URL,
		CustomMessage: req.CustomMessage,
	}

	entry := audit.Entry{
		UserID:     userID,
		RecordType: string(records.RecordTypeInvoice),
		RecordID:   invoice.ID,
		Provider:   string(req.DeliveryMethod),
	}

	deliverStarted := time.Now()
	messageID, err := backoff.RetryValue(ctx, s.exec, "paymentlink.deliver", deliverPolicy, func(ctx context.Context) (string, error) {
		return s.deliverer(req.DeliveryMethod).Deliver(ctx, msg)
	})
	if err != nil {
		metrics.RecordDelivery(string(req.DeliveryMethod), "failed", time.Since(deliverStarted).Seconds())
		zap.L().Warn("payment link delivery failed",
			zap.String("invoice_id", invoice.ID),
			zap.String("method", string(req.DeliveryMethod)),
			zap.Error(err),
		)
		entry.Status = audit.StatusFailed
		entry.Error = err.Error()
		entry.RetryCount = deliverPolicy.MaxAttempts - 1
		resp.Message = fmt.Sprintf("Payment link for %s generated; delivery via %s failed", invoice.Reference, req.DeliveryMethod)
	} else {
		metrics.RecordDelivery(string(req.DeliveryMethod), "success", time.Since(deliverStarted).Seconds())
		entry.Status = audit.StatusSuccess
		resp.DeliveryResult = &DeliveryResult{Method: req.DeliveryMethod, MessageID: messageID}
		resp.Message = fmt.Sprintf("Payment link for %s sent via %s", invoice.Reference, req.DeliveryMethod)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.auditlog.Append(gctx, entry)
		return nil
	})
	g.Go(func() error {
		s.analytics.Emit(gctx, userID, invoice.ID, "payment_link_shared", map[string]any{
			"delivery_method": string(req.DeliveryMethod),
			"delivered":       resp.DeliveryResult != nil,
			"amount_minor":    invoice.AmountMinor,
			"currency":        invoice.Currency,
		})
		return nil
	})
	_ = g.Wait()

	return resp, nil
}

func linkDescription(inv *records.Invoice) string {
	if inv.Description != "" {
		return inv.Description
	}
	return fmt.Sprintf("Invoice %s", inv.Reference)
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(minor)/100, strings.ToUpper(currency))
}
