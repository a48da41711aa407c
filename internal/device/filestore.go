package device

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// FileStore serves device records from a JSON metadata file of the shape
//
//	{"<id>": {"name": "...", "ioc_type": "...", "location_group": "...", ...}}
//
// This matches the flat-file deployment mode where no central database is
// reachable from the build host.
type FileStore struct {
	path    string
	records map[string]map[string]any
}

func OpenFile(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records map[string]map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse device db %s: %w", path, err)
	}

	return &FileStore{path: path, records: records}, nil
}

func (s *FileStore) Search(_ context.Context, locationGroup string) ([]Record, error) {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Record
	for _, id := range ids {
		entry := s.records[id]
		if stringField(entry, "location_group") != locationGroup {
			continue
		}

		metadata := make(map[string]string, len(entry))
		for k, v := range entry {
			if sv, ok := stringify(v); ok {
				metadata[k] = sv
			}
		}

		name := metadata["name"]
		if name == "" {
			name = id
			metadata["name"] = name
		}

		out = append(out, Record{
			Name:     name,
			Type:     metadata["ioc_type"],
			Metadata: metadata,
		})
	}
	return out, nil
}

func (s *FileStore) Ping(context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

func (s *FileStore) Close() {}

func stringField(entry map[string]any, key string) string {
	v, ok := stringify(entry[key])
	if !ok {
		return ""
	}
	return v
}

// stringify flattens JSON scalars to the string form the schemas expect.
// Nested objects and arrays carry no per-field metadata and are skipped.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
