package entity

// MetadataField describes a knowledge-base metadata field to ensure.
type MetadataField struct {
	Name string
	Type string // "string" or "time"
}

// MetadataValue assigns a value to an existing metadata field on an
// imported document.
type MetadataValue struct {
	FieldID string `json:"id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}
