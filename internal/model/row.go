package model

import "fmt"

// Row is one record of a data store collection, keyed by column name.
type Row map[string]any

// ID returns the "id" column as a string, or "" when the row has none.
func (r Row) ID() string {
	switch v := r["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
