package crmsync

import "construyo-opshub/services/records"

// Provider names the external CRM behind the user's Zapier webhook.
type Provider string

const (
	ProviderGoogleSheets Provider = "google_sheets"
	ProviderHubspot      Provider = "hubspot"
	ProviderPipedrive    Provider = "pipedrive"
	ProviderZoho         Provider = "zoho"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogleSheets, ProviderHubspot, ProviderPipedrive, ProviderZoho:
		return true
	}
	return false
}

type SyncRequest struct {
	RecordType    records.RecordType `json:"recordType" binding:"required"`
	RecordID      string             `json:"recordId" binding:"required"`
	ExternalCRM   Provider           `json:"externalCrm" binding:"required"`
	ZapierWebhook string             `json:"zapierWebhook"`
	FieldMappings map[string]string  `json:"fieldMappings"`
	RetryCount    int                `json:"retryCount"`
}

type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
