package knowledge

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Metadata type tags. The value column always stores the canonical string
// form; the type tag is used only to reconstitute a typed value on read.
const (
	MetaString  = "string"
	MetaInteger = "integer"
	MetaFloat   = "float"
	MetaBoolean = "boolean"
	MetaJSON    = "json"
)

// Metadata is a typed key/value fact attached to one entry. Identity is the
// (entry id, key) pair; setting an existing key overwrites value and type.
type Metadata struct {
	EntryID int64  `json:"entry_id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type"`
}

// ValidMetadataType reports whether t is a known metadata type tag.
func ValidMetadataType(t string) bool {
	switch t {
	case MetaString, MetaInteger, MetaFloat, MetaBoolean, MetaJSON:
		return true
	}
	return false
}

// TypedValue coerces the stored string form into a typed Go value according
// to the metadata's type tag. Coercion happens only here, on read.
func (m Metadata) TypedValue() (any, error) {
	switch m.Type {
	case MetaInteger:
		n, err := strconv.Atoi(m.Value)
		if err != nil {
			return nil, fmt.Errorf("coercing %q to integer: %w", m.Value, err)
		}
		return n, nil
	case MetaFloat:
		f, err := strconv.ParseFloat(m.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("coercing %q to float: %w", m.Value, err)
		}
		return f, nil
	case MetaBoolean:
		b, err := strconv.ParseBool(m.Value)
		if err != nil {
			return nil, fmt.Errorf("coercing %q to boolean: %w", m.Value, err)
		}
		return b, nil
	case MetaJSON:
		var v any
		if err := json.Unmarshal([]byte(m.Value), &v); err != nil {
			return nil, fmt.Errorf("coercing %q to json: %w", m.Value, err)
		}
		return v, nil
	case MetaString, "":
		return m.Value, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetadataType, m.Type)
	}
}
