package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Transform is a case normalization applied to a field value before the
// membership check. The transformed value is what ends up in the
// normalized record.
type Transform int

const (
	TransformNone Transform = iota
	TransformLower
	TransformUpper
)

// Constraint describes the values a required field accepts.
type Constraint struct {
	// Enum restricts the field to this set of values. Empty means any
	// non-empty string. Membership is case-insensitive unless a
	// Transform is set, in which case the transformed value must match
	// the set exactly.
	Enum []string

	Transform Transform
}

// Any accepts any non-empty string.
func Any() Constraint {
	return Constraint{}
}

// OneOf accepts values from the given set, compared case-insensitively.
// The original value is preserved in the normalized record.
func OneOf(values ...string) Constraint {
	return Constraint{Enum: values}
}

// OneOfLower lowercases the value, then requires membership in the set.
func OneOfLower(values ...string) Constraint {
	return Constraint{Enum: values, Transform: TransformLower}
}

// OneOfUpper uppercases the value, then requires membership in the set.
func OneOfUpper(values ...string) Constraint {
	return Constraint{Enum: values, Transform: TransformUpper}
}

func (c Constraint) apply(value string) string {
	switch c.Transform {
	case TransformLower:
		return strings.ToLower(value)
	case TransformUpper:
		return strings.ToUpper(value)
	default:
		return value
	}
}

func (c Constraint) accepts(value string) bool {
	if value == "" {
		return false
	}
	if len(c.Enum) == 0 {
		return true
	}
	for _, allowed := range c.Enum {
		if c.Transform == TransformNone {
			if strings.EqualFold(value, allowed) {
				return true
			}
			continue
		}
		if value == allowed {
			return true
		}
	}
	return false
}

// Schema maps required field names to their constraints. Schemas are
// permissive: fields not listed here are ignored by validation and pass
// through untouched.
type Schema map[string]Constraint

// Extend returns a new schema containing every entry of s plus the given
// extra fields. Extra entries win on collision. Neither input is mutated.
func (s Schema) Extend(extra Schema) Schema {
	out := make(Schema, len(s)+len(extra))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// FieldIssue is one failed constraint on one field.
type FieldIssue struct {
	Field  string
	Value  string
	Reason string
}

// RecordError reports every constraint violation found on one record.
type RecordError struct {
	Issues []FieldIssue
}

func (e *RecordError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "record invalid"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Reason))
	}
	return strings.Join(parts, "; ")
}

// Validate checks metadata against the schema and returns a normalized
// copy: every input field is carried over, and schema-governed fields are
// replaced by their transformed value. The input map is never mutated.
//
// Validation is a subset check: unknown extra fields are ignored.
func (s Schema) Validate(metadata map[string]string) (map[string]string, error) {
	var issues []FieldIssue

	fields := make([]string, 0, len(s))
	for field := range s {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	normalized := make(map[string]string, len(metadata))
	for k, v := range metadata {
		normalized[k] = v
	}

	for _, field := range fields {
		c := s[field]
		value, ok := metadata[field]
		if !ok || value == "" {
			issues = append(issues, FieldIssue{
				Field:  field,
				Value:  value,
				Reason: "required field missing or empty",
			})
			continue
		}

		value = c.apply(value)
		if !c.accepts(value) {
			issues = append(issues, FieldIssue{
				Field:  field,
				Value:  value,
				Reason: fmt.Sprintf("value %q not in allowed set %v", value, c.Enum),
			})
			continue
		}
		normalized[field] = value
	}

	if len(issues) > 0 {
		return nil, &RecordError{Issues: issues}
	}
	return normalized, nil
}
