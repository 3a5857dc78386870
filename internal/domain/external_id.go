package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderExternalID is what the POS receives for a product that has no mapping.
// The POS rejects any order made only of placeholder lines.
const PlaceholderExternalID = "00000000-0000-0000-0000-000000000000"

// ExternalID is an optional POS-side identifier. The zero value means "not mapped".
type ExternalID struct {
	value string
}

var NoExternalID = ExternalID{}

func NewExternalID(v string) ExternalID {
	return ExternalID{value: strings.TrimSpace(v)}
}

// IsMapped reports whether the id can be sent to the POS as a real product.
func (e ExternalID) IsMapped() bool {
	return e.value != "" && !strings.EqualFold(e.value, PlaceholderExternalID)
}

func (e ExternalID) Get() (string, bool) {
	if !e.IsMapped() {
		return "", false
	}
	return e.value, true
}

// OrPlaceholder returns the id, or the placeholder GUID when unmapped.
func (e ExternalID) OrPlaceholder() string {
	if v, ok := e.Get(); ok {
		return v
	}
	return PlaceholderExternalID
}

func (e ExternalID) String() string {
	v, _ := e.Get()
	return v
}

func (e ExternalID) Equal(other ExternalID) bool {
	return e.String() == other.String()
}

func (e ExternalID) MarshalJSON() ([]byte, error) {
	if v, ok := e.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}

func (e *ExternalID) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding external id: %w", err)
	}
	if v == nil {
		*e = NoExternalID
		return nil
	}
	*e = NewExternalID(*v)
	return nil
}

// Scan stores NULL and placeholder columns as unmapped.
func (e *ExternalID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*e = NoExternalID
	case string:
		*e = NewExternalID(v)
	case []byte:
		*e = NewExternalID(string(v))
	default:
		return fmt.Errorf("scanning external id: unsupported type %T", src)
	}
	return nil
}

func (e ExternalID) Value() (driver.Value, error) {
	if v, ok := e.Get(); ok {
		return v, nil
	}
	return nil, nil
}
