package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"construyo-opshub/pkg/errutil"
	"construyo-opshub/services/testutil"
)

func newStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &Lead{}, &Customer{}, &Invoice{}, &BillingCredential{}, &CrmConnection{})
	return &Store{db: db}, db
}

func TestInvoiceScopedToUser(t *testing.T) {
	s, db := newStore(t)
	require.NoError(t, db.Create(&Invoice{ID: "inv1", UserID: "u1", Reference: "INV-001", AmountMinor: 15000, Currency: "eur"}).Error)

	inv, err := s.Invoice(context.Background(), "u1", "inv1")
	require.NoError(t, err)
	require.Equal(t, "INV-001", inv.Reference)

	_, err = s.Invoice(context.Background(), "u2", "inv1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestActiveBillingCredentialMissingIsMisconfigured(t *testing.T) {
	s, db := newStore(t)
	require.NoError(t, db.Create(&BillingCredential{ID: "bc1", UserID: "u1", Provider: "stripe", EncryptedSecretKey: "aa", Active: false}).Error)

	_, err := s.ActiveBillingCredential(context.Background(), "u1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnprocessableEntity, errutil.StatusOf(err))
}

func TestFetchReturnsFieldMap(t *testing.T) {
	s, db := newStore(t)
	require.NoError(t, db.Create(&Lead{ID: "r1", UserID: "u1", Name: "Jo Builder", Email: "a@b.com"}).Error)

	fields, err := s.Fetch(context.Background(), "u1", RecordTypeLead, "r1")
	require.NoError(t, err)
	require.Equal(t, "r1", fields["id"])
	require.Equal(t, "a@b.com", fields["email"])
}

func TestFetchRejectsUnknownType(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Fetch(context.Background(), "u1", RecordType("project"), "r1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
}
