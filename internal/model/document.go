package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentStatus enumerates every status a document or signer can carry.
// Only `created` and `sent` are produced locally; the rest are reported by
// the signing provider and written through as-is.
type DocumentStatus string

const (
	StatusCompleted DocumentStatus = "completed"
	StatusCorrect   DocumentStatus = "correct"
	StatusCreated   DocumentStatus = "created"
	StatusDeclined  DocumentStatus = "declined"
	StatusDeleted   DocumentStatus = "deleted"
	StatusDelivered DocumentStatus = "delivered"
	StatusSent      DocumentStatus = "sent"
	StatusSigned    DocumentStatus = "signed"
	StatusTemplate  DocumentStatus = "template"
	StatusTimedout  DocumentStatus = "timedout"
	StatusVoided    DocumentStatus = "voided"
	StatusUpdated   DocumentStatus = "updated"
	StatusPending   DocumentStatus = "pending"
	StatusViewed    DocumentStatus = "viewed"
	StatusRejected  DocumentStatus = "rejected"
)

// Attachment describes a stored upload referenced from document metadata.
type Attachment struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize string `json:"fileSize"`
	FileExt  string `json:"fileExt"`
}

// Metadata is the schema-less document metadata blob. Status and the
// attachment descriptor are typed; anything else the signing provider
// reports (envelope id, status timestamps, ...) lives in Extra and survives
// a marshal round trip untouched.
type Metadata struct {
	Status     DocumentStatus
	Attachment *Attachment
	Extra      map[string]any
}

// EnvelopeID returns the provider envelope id if one has been recorded.
func (m Metadata) EnvelopeID() string {
	if v, ok := m.Extra["envelopeId"].(string); ok {
		return v
	}
	return ""
}

// Merge overlays other onto m, field by field for the typed parts and key by
// key for Extra. The status is preserved when other does not supply one; a
// document that never left `created` stays `created`.
func (m Metadata) Merge(other Metadata) Metadata {
	out := Metadata{Status: m.Status, Attachment: m.Attachment, Extra: map[string]any{}}
	for k, v := range m.Extra {
		out.Extra[k] = v
	}
	for k, v := range other.Extra {
		out.Extra[k] = v
	}
	if other.Attachment != nil {
		out.Attachment = other.Attachment
	}
	if other.Status != "" {
		out.Status = other.Status
	}
	if out.Status == "" {
		out.Status = StatusCreated
	}
	return out
}

// MarshalJSON flattens the typed fields and Extra into one JSON object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		obj[k] = v
	}
	if m.Status != "" {
		obj["status"] = m.Status
	}
	if m.Attachment != nil {
		obj["attachment"] = m.Attachment
	}
	return json.Marshal(obj)
}

// UnmarshalJSON lifts status and attachment out of the raw object and keeps
// the remaining keys in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = Metadata{Extra: map[string]any{}}
	for k, raw := range obj {
		switch k {
		case "status":
			if err := json.Unmarshal(raw, &m.Status); err != nil {
				return err
			}
		case "attachment":
			if err := json.Unmarshal(raw, &m.Attachment); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			m.Extra[k] = v
		}
	}
	return nil
}

// Value serializes the metadata for a JSON column.
func (m Metadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the metadata back from a JSON column. NULL scans to a zero value.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{Extra: map[string]any{}}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
}

// JSON is a free-form JSON column (signer metadata, activity messages,
// integration payloads).
type JSON map[string]any

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("json: unsupported scan type %T", src)
	}
}

// Document is the aggregate root of the `documents` table. It owns its
// signers and activities; deleting the document cascades to both.
type Document struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Metadata   Metadata           `json:"metadata"`
	UserID     string             `json:"userId"`
	Signers    []DocumentSigner   `json:"signers,omitempty"`
	Activities []DocumentActivity `json:"activities,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// DocumentSigner is one recipient of a document. Order is the 1-based
// signing sequence, unique within a document, and doubles as the provider's
// routing order.
type DocumentSigner struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Designation string         `json:"designation"`
	Order       int            `json:"order"`
	Status      DocumentStatus `json:"status"`
	Metadata    JSON           `json:"metadata,omitempty"`
	DocumentID  string         `json:"documentId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// DocumentActivity is one append-only audit entry. Entries are never
// updated or deleted.
type DocumentActivity struct {
	ID         string         `json:"id"`
	Status     DocumentStatus `json:"status"`
	Metadata   JSON           `json:"metadata,omitempty"`
	DocumentID string         `json:"documentId"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// DocumentAnalytics holds the per-owner status buckets computed by a single
// conditional-aggregation query over documents.metadata.
type DocumentAnalytics struct {
	Total          int `json:"total"`
	TotalSent      int `json:"totalSent"`
	TotalSigned    int `json:"totalSigned"`
	TotalDeclined  int `json:"totalDeclined"`
	TotalCompleted int `json:"totalCompleted"`
}
