package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is a list of strings stored as a JSON array in a TEXT column.
//
// Implementing sql.Scanner and driver.Valuer lets sqlx read and write the
// column directly into the struct field, and lets SQL queries reach into the
// array with json_each().
type StringList []string

// Value encodes the list as JSON. A nil list is stored as "[]" so json_each
// never sees NULL.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("model: encoding string list: %w", err)
	}
	return string(b), nil
}

// Scan decodes a JSON array from a TEXT or BLOB column.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("model: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("model: decoding string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Normalize trims every entry and drops the empty ones.
func Normalize(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether s is present in the list (exact match).
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}
