package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"construyo-opshub/pkg/errutil"
)

var Module = fx.Module("records.module", fx.Provide(NewStore))

// Store reads source records and provider configuration. Every lookup is
// scoped to the owning user; rows owned by someone else read as absent.
type Store struct {
	db *gorm.DB
}

type StoreParams struct {
	fx.In
	DB *gorm.DB
}

func NewStore(p StoreParams) *Store {
	return &Store{db: p.DB}
}

func (s *Store) Invoice(ctx context.Context, userID, invoiceID string) (*Invoice, error) {
	var inv Invoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", invoiceID, userID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("fetch invoice: %w", err)
	}
	return &inv, nil
}

// ActiveBillingCredential returns the user's active payment credentials or
// Misconfigured when none are set up.
func (s *Store) ActiveBillingCredential(ctx context.Context, userID string) (*BillingCredential, error) {
	var cred BillingCredential
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Misconfigured("no active billing credentials configured")
	}
	if err != nil {
		return nil, fmt.Errorf("fetch billing credential: %w", err)
	}
	return &cred, nil
}

// CrmConnectionFor returns the user's active connection for the provider, or
// nil when none exists. Absence is not an error here; the caller decides
// whether a missing connection is fatal.
func (s *Store) CrmConnectionFor(ctx context.Context, userID, provider string) (*CrmConnection, error) {
	var conn CrmConnection
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ? AND active = ?", userID, provider, true).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch crm connection: %w", err)
	}
	return &conn, nil
}

// Fetch loads a source record by type and id as a flat field map, ready for
// field mapping. Unknown types are rejected before touching the database.
func (s *Store) Fetch(ctx context.Context, userID string, rt RecordType, recordID string) (map[string]any, error) {
	var model any
	switch rt {
	case RecordTypeLead:
		model = &Lead{}
	case RecordTypeCustomer:
		model = &Customer{}
	case RecordTypeInvoice:
		model = &Invoice{}
	default:
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown record type %q", rt))
	}

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, userID).
		First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound(fmt.Sprintf("%s %s not found", rt, recordID))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rt, err)
	}

	return toFieldMap(model)
}

func toFieldMap(model any) (map[string]any, error) {
	raw, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}
