package crmsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"construyo-opshub/internal/provider/zapier"
	"construyo-opshub/pkg/errutil"
	"construyo-opshub/pkg/metrics"
	"construyo-opshub/services/analytics"
	"construyo-opshub/services/audit"
	"construyo-opshub/services/records"
)

const (
	minAttempts = 1
	maxAttempts = 5
)

// WebhookSender delivers a mapped payload to the user's Zapier webhook.
type WebhookSender interface {
	Send(ctx context.Context, webhookURL string, payload map[string]any, maxAttempts int) (int, error)
}

type Service struct {
	store     *records.Store
	auditlog  *audit.Writer
	analytics *analytics.Writer
	webhook   WebhookSender
	now       func() time.Time
}

type ServiceParams struct {
	fx.In

	Store     *records.Store
	Audit     *audit.Writer
	Analytics *analytics.Writer
	Zapier    *zapier.Client
}

func NewService(p ServiceParams) *Service {
	return &Service{
		store:     p.Store,
		auditlog:  p.Audit,
		analytics: p.Analytics,
		webhook:   p.Zapier,
		now:       time.Now,
	}
}

// Sync maps one source record and posts it to the user's CRM webhook. Every
// call writes exactly one terminal delivery log, whether the record fetch,
// the configuration lookup, or the webhook delivery is what failed.
func (s *Service) Sync(ctx context.Context, userID string, req SyncRequest) (*SyncResponse, error) {
	if !req.RecordType.Valid() {
		return nil, s.fail(ctx, userID, req, 0, errutil.ValidationFailed(fmt.Sprintf("unknown record type %q", req.RecordType)))
	}
	if !req.ExternalCRM.Valid() {
		return nil, s.fail(ctx, userID, req, 0, errutil.ValidationFailed(fmt.Sprintf("unknown external CRM %q", req.ExternalCRM)))
	}

	conn, err := s.store.CrmConnectionFor(ctx, userID, string(req.ExternalCRM))
	if err != nil {
		return nil, s.fail(ctx, userID, req, 0, err)
	}

	webhookURL := req.ZapierWebhook
	if webhookURL == "" && conn != nil {
		webhookURL = conn.WebhookURL
	}
	if webhookURL == "" {
		return nil, s.fail(ctx, userID, req, 0, errutil.Misconfigured(fmt.Sprintf("no webhook configured for %s", req.ExternalCRM)))
	}

	fields, err := s.store.Fetch(ctx, userID, req.RecordType, req.RecordID)
	if err != nil {
		return nil, s.fail(ctx, userID, req, 0, err)
	}

	mapping := resolveMapping(req.FieldMappings, conn, req.ExternalCRM, req.RecordType)
	payload := buildPayload(fields, mapping, req.RecordID, s.now())

	attempts := req.RetryCount
	if attempts < minAttempts {
		attempts = zapier.DefaultMaxAttempts
	} else if attempts > maxAttempts {
		attempts = maxAttempts
	}

	started := time.Now()
	retries, err := s.webhook.Send(ctx, webhookURL, payload, attempts)
	if err != nil {
		metrics.RecordDelivery("crm_webhook", "failed", time.Since(started).Seconds())
		return nil, s.fail(ctx, userID, req, retries, err)
	}
	metrics.RecordDelivery("crm_webhook", "success", time.Since(started).Seconds())

	s.auditlog.Append(ctx, audit.Entry{
		UserID:     userID,
		RecordType: string(req.RecordType),
		RecordID:   req.RecordID,
		Provider:   string(req.ExternalCRM),
		Status:     audit.StatusSuccess,
		RetryCount: retries,
	})
	s.analytics.Emit(ctx, userID, req.RecordID, "crm_record_synced", map[string]any{
		"record_type":  string(req.RecordType),
		"external_crm": string(req.ExternalCRM),
		"retries":      retries,
	})

	return &SyncResponse{
		Success: true,
		Message: fmt.Sprintf("%s %s synced to %s", req.RecordType, req.RecordID, req.ExternalCRM),
	}, nil
}

// fail writes the single terminal log entry for an unsuccessful sync and
// hands the error back unchanged.
func (s *Service) fail(ctx context.Context, userID string, req SyncRequest, retries int, err error) error {
	zap.L().Warn("crm sync failed",
		zap.String("record_type", string(req.RecordType)),
		zap.String("record_id", req.RecordID),
		zap.String("external_crm", string(req.ExternalCRM)),
		zap.Error(err),
	)
	s.auditlog.Append(ctx, audit.Entry{
		UserID:     userID,
		RecordType: string(req.RecordType),
		RecordID:   req.RecordID,
		Provider:   string(req.ExternalCRM),
		Status:     audit.StatusFailed,
		Error:      err.Error(),
		RetryCount: retries,
	})
	return err
}
