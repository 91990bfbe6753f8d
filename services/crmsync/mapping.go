package crmsync

import (
	"encoding/json"
	"time"

	"construyo-opshub/services/records"
)

// Metadata keys attached to every mapped payload.
const (
	metaSourceID  = "construyo_id"
	metaTimestamp = "sync_timestamp"
	metaOrigin    = "source"

	originTag = "Construyo CRM"
)

// defaultMappings is the built-in field mapping per provider and record type,
// used when neither the request nor the user's stored connection supplies one.
var defaultMappings = map[Provider]map[records.RecordType]map[string]string{
	ProviderGoogleSheets: {
		records.RecordTypeLead:     {"name": "Name", "email": "Email", "phone": "Phone", "source": "Source", "notes": "Notes"},
		records.RecordTypeCustomer: {"name": "Name", "email": "Email", "phone": "Phone", "address": "Address"},
		records.RecordTypeInvoice:  {"reference": "Reference", "description": "Description", "amount_minor": "Amount", "currency": "Currency", "status": "Status"},
	},
	ProviderHubspot: {
		records.RecordTypeLead:     {"name": "firstname", "email": "email", "phone": "phone", "source": "hs_lead_source"},
		records.RecordTypeCustomer: {"name": "firstname", "email": "email", "phone": "phone", "address": "address"},
		records.RecordTypeInvoice:  {"reference": "dealname", "amount_minor": "amount", "currency": "deal_currency_code", "status": "dealstage"},
	},
	ProviderPipedrive: {
		records.RecordTypeLead:     {"name": "title", "email": "person_email", "phone": "person_phone", "source": "lead_source"},
		records.RecordTypeCustomer: {"name": "name", "email": "email", "phone": "phone", "address": "address"},
		records.RecordTypeInvoice:  {"reference": "title", "amount_minor": "value", "currency": "currency", "status": "status"},
	},
	ProviderZoho: {
		records.RecordTypeLead:     {"name": "Last_Name", "email": "Email", "phone": "Phone", "source": "Lead_Source"},
		records.RecordTypeCustomer: {"name": "Last_Name", "email": "Email", "phone": "Phone", "address": "Mailing_Street"},
		records.RecordTypeInvoice:  {"reference": "Subject", "amount_minor": "Grand_Total", "currency": "Currency", "status": "Status"},
	},
}

// resolveMapping picks the field mapping in priority order: explicit request
// override, then the user's stored per-type mapping, then the provider
// default table.
func resolveMapping(override map[string]string, conn *records.CrmConnection, p Provider, rt records.RecordType) map[string]string {
	if len(override) > 0 {
		return override
	}

	if conn != nil && len(conn.FieldMappings) > 0 {
		var stored map[string]map[string]string
		if err := json.Unmarshal(conn.FieldMappings, &stored); err == nil {
			if m, ok := stored[string(rt)]; ok && len(m) > 0 {
				return m
			}
		}
	}

	if byType, ok := defaultMappings[p]; ok {
		if m, ok := byType[rt]; ok {
			return m
		}
	}
	return map[string]string{}
}

// buildPayload applies the mapping to the source fields and attaches the
// origin metadata. Source fields absent from the record are skipped.
func buildPayload(fields map[string]any, mapping map[string]string, recordID string, now time.Time) map[string]any {
	payload := make(map[string]any, len(mapping)+3)
	for src, dst := range mapping {
		if v, ok := fields[src]; ok {
			payload[dst] = v
		}
	}
	payload[metaSourceID] = recordID
	payload[metaTimestamp] = now.UTC().Format(time.RFC3339)
	payload[metaOrigin] = originTag
	return payload
}
