package device

import "context"

// Record is one instrument's metadata entry as returned by the metadata
// store. Records are read-only inputs: the generation pipeline copies
// metadata when it needs to normalize values and never writes back.
type Record struct {
	Name     string
	Type     string // device-type tag, e.g. "Elliptec"
	Metadata map[string]string
}

// Field returns the named metadata value, or "" when absent.
func (r Record) Field(name string) string {
	return r.Metadata[name]
}

// WithMetadata returns a copy of the record carrying the given metadata
// in place of the original.
func (r Record) WithMetadata(metadata map[string]string) Record {
	return Record{Name: r.Name, Type: r.Type, Metadata: metadata}
}

// Store supplies device records for one location group. Implementations
// must return a collection that is stable for the duration of one
// generation run; no ordering is guaranteed beyond that.
type Store interface {
	Search(ctx context.Context, locationGroup string) ([]Record, error)
	Ping(ctx context.Context) error
	Close()
}
