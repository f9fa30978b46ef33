package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Recognized metadata keys. Any other key supplied by the caller is stored as is.
const (
	MetadataOriginalFileName = "originalFileName"
	MetadataUploaderIP       = "uploaderIp"
	MetadataUserAgent        = "userAgent"
)

// Metadata is the open key/value map stored with every media item.
//
// The recognized keys are MetadataOriginalFileName, MetadataUploaderIP and
// MetadataUserAgent. Entries with nil values are never persisted.
type Metadata map[string]any

// RequestInfo describes the HTTP request that created a media item
type RequestInfo struct {
	IP        string
	UserAgent string
}

// ComposeMetadata merges caller metadata with the fields derived from the request.
//
// Derived keys always win over caller-supplied keys of the same name.
// A derived key without a value removes the caller's entry, and nil entries are dropped.
func ComposeMetadata(caller Metadata, originalFileName string, info RequestInfo) Metadata {
	result := make(Metadata, len(caller)+3)
	for key, value := range caller {
		result[key] = value
	}

	derived := map[string]string{
		MetadataOriginalFileName: originalFileName,
		MetadataUploaderIP:       info.IP,
		MetadataUserAgent:        info.UserAgent,
	}
	for key, value := range derived {
		if value == "" {
			delete(result, key)
			continue
		}
		result[key] = value
	}

	return result.Compact()
}

// Compact returns a copy of m without nil entries
func (m Metadata) Compact() Metadata {
	result := make(Metadata, len(m))
	for key, value := range m {
		if value == nil {
			continue
		}
		result[key] = value
	}
	return result
}

// Value implements driver.Valuer, storing metadata as a JSON document
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m.Compact())
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for the JSON metadata column
func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}

	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}

	decoded := Metadata{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}
	*m = decoded
	return nil
}

// String returns the string value stored under key, if any
func (m Metadata) String(key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}
