package ioc

import (
	"fmt"
	"sort"
	"strings"

	"tile_iocgen/internal/device"
)

// ConflictKind distinguishes the two controller-level failure modes.
type ConflictKind int

const (
	// ConflictDuplicateSlot means two records claim the same
	// channel/address slot on one controller.
	ConflictDuplicateSlot ConflictKind = iota
	// ConflictFieldDisagreement means a controller-wide field carries
	// more than one distinct value across the group.
	ConflictFieldDisagreement
)

// ConflictError reports an inconsistency within one controller group.
// A conflict is fatal for the whole device type: no files are emitted
// for the type this run.
type ConflictError struct {
	Type   DeviceType
	Key    string
	Kind   ConflictKind
	Field  string
	Values []string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictDuplicateSlot:
		return fmt.Sprintf("%s controller %q: duplicate channel assignment %s",
			e.Type, e.Key, strings.Join(e.Values, ", "))
	case ConflictFieldDisagreement:
		return fmt.Sprintf("%s controller %q: field %s has multiple values: %s",
			e.Type, e.Key, e.Field, strings.Join(e.Values, ", "))
	default:
		return fmt.Sprintf("%s controller %q: inconsistent group", e.Type, e.Key)
	}
}

// GroupMember is one validated record together with the subtype it was
// validated against.
type GroupMember struct {
	Record  device.Record
	Subtype Subtype
}

func (m GroupMember) slots() []string {
	var out []string
	for _, field := range m.Subtype.ChannelFields {
		out = append(out, m.Record.Field(field))
	}
	if len(m.Subtype.CompositeSlot) > 0 {
		parts := make([]string, 0, len(m.Subtype.CompositeSlot))
		for _, field := range m.Subtype.CompositeSlot {
			parts = append(parts, m.Record.Field(field))
		}
		out = append(out, strings.Join(parts, "/"))
	}
	out = append(out, m.Subtype.FixedSlots...)
	return out
}

// CheckConsistency verifies one controller group: every channel/address
// slot must be claimed exactly once, and the controller-wide fields must
// agree across all members. Returns nil when the group is consistent.
func CheckConsistency(typ DeviceType, key string, members []GroupMember) *ConflictError {
	seen := make(map[string]struct{})
	var duplicates []string
	for _, m := range members {
		for _, slot := range m.slots() {
			if _, ok := seen[slot]; ok {
				duplicates = append(duplicates, slot)
				continue
			}
			seen[slot] = struct{}{}
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return &ConflictError{
			Type:   typ,
			Key:    key,
			Kind:   ConflictDuplicateSlot,
			Values: dedupe(duplicates),
		}
	}

	for _, field := range SharedFields {
		distinct := make(map[string]struct{})
		var values []string
		for _, m := range members {
			v := m.Record.Field(field)
			if _, ok := distinct[v]; !ok {
				distinct[v] = struct{}{}
				values = append(values, v)
			}
		}
		if len(distinct) > 1 {
			sort.Strings(values)
			return &ConflictError{
				Type:   typ,
				Key:    key,
				Kind:   ConflictFieldDisagreement,
				Field:  field,
				Values: values,
			}
		}
	}

	return nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, v := range sorted {
		if i > 0 && sorted[i-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}
