package records

import (
	"time"

	"gorm.io/datatypes"
)

type RecordType string

const (
	RecordTypeLead     RecordType = "lead"
	RecordTypeCustomer RecordType = "customer"
	RecordTypeInvoice  RecordType = "invoice"
)

// Valid reports whether the type names one of the syncable record tables.
func (rt RecordType) Valid() bool {
	switch rt {
	case RecordTypeLead, RecordTypeCustomer, RecordTypeInvoice:
		return true
	}
	return false
}

// Lead is a sales lead captured from the marketing site.
type Lead struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Name      string         `gorm:"column:name" json:"name"`
	Email     string         `gorm:"column:email" json:"email"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	Source    string         `gorm:"column:source" json:"source"`
	Notes     string         `gorm:"column:notes;type:text" json:"notes"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;index;not null" json:"user_id"`
	Name      string         `gorm:"column:name" json:"name"`
	Email     string         `gorm:"column:email" json:"email"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	Address   string         `gorm:"column:address" json:"address"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// Invoice is a billable document owned by one user. AmountMinor is the total
// in the currency's minor unit (cents).
type Invoice struct {
	ID          string        `gorm:"column:id;primaryKey" json:"id"`
	UserID      string        `gorm:"column:user_id;index;not null" json:"user_id"`
	CustomerID  string        `gorm:"column:customer_id;index" json:"customer_id"`
	Reference   string        `gorm:"column:reference" json:"reference"`
	Description string        `gorm:"column:description;type:text" json:"description"`
	AmountMinor int64         `gorm:"column:amount_minor;not null" json:"amount_minor"`
	Currency    string        `gorm:"column:currency;type:varchar(3);not null;default:'eur'" json:"currency"`
	Status      InvoiceStatus `gorm:"column:status;type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// BillingCredential holds a user's payment-provider API key, AES-GCM
// encrypted at rest.
type BillingCredential struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	UserID             string    `gorm:"column:user_id;uniqueIndex;not null"`
	Provider           string    `gorm:"column:provider;type:varchar(50);not null;default:'stripe'"`
	EncryptedSecretKey string    `gorm:"column:encrypted_secret_key;type:text;not null"`
	Active             bool      `gorm:"column:active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CrmConnection stores a user's outbound CRM configuration: the webhook URL
// and optional per-record-type field mappings, keyed by provider.
type CrmConnection struct {
	ID            string         `gorm:"column:id;primaryKey"`
	UserID        string         `gorm:"column:user_id;index;not null"`
	Provider      string         `gorm:"column:provider;type:varchar(50);not null"`
	WebhookURL    string         `gorm:"column:webhook_url;type:text"`
	FieldMappings datatypes.JSON `gorm:"column:field_mappings"`
	Active        bool           `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
