package ioc

import (
	"sort"

	"tile_iocgen/internal/device"
)

// ControllerGroup is the set of records sharing one controller identity.
// Records keep their input order within the group.
type ControllerGroup struct {
	Key     string
	Records []device.Record
}

// GroupByKey partitions records by exact string equality of the given
// key field. No normalization is applied; callers must supply
// pre-normalized keys. Records missing the key field group under "".
//
// Groups come back sorted by key so a run visits controllers in a
// stable order.
func GroupByKey(records []device.Record, keyField string) []ControllerGroup {
	byKey := make(map[string][]device.Record)
	for _, rec := range records {
		key := rec.Field(keyField)
		byKey[key] = append(byKey[key], rec)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]ControllerGroup, 0, len(keys))
	for _, key := range keys {
		out = append(out, ControllerGroup{Key: key, Records: byKey[key]})
	}
	return out
}
