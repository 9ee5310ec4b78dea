package domain

import "fmt"

// DiagnosticKind classifies a non-fatal import anomaly.
type DiagnosticKind string

// DiagnosticKind constants.
const (
	DiagnosticDanglingRelationship DiagnosticKind = "dangling_relationship"
	DiagnosticCompositeReference   DiagnosticKind = "composite_reference"
)

// Diagnostic is a recorded anomaly encountered during normalization. The
// affected relationship index refers to AbstractSchema.Relationships.
type Diagnostic struct {
	Kind         DiagnosticKind
	Relationship int
	TableName    string
	FieldName    string
	Message      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (relationship %d): %s", d.Kind, d.Relationship, d.Message)
}
