package model

// FieldType is the inferred runtime type of a sampled value.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
	TypeNull    FieldType = "null"
	// TypeUnknown marks a value the sampler could not classify.
	TypeUnknown FieldType = "unknown"
)

// SampleField is one field of a sampled record.
type SampleField struct {
	Key         string    `json:"key" yaml:"key"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type        FieldType `json:"type" yaml:"type"`
	Example     any       `json:"example" yaml:"example"`
}
