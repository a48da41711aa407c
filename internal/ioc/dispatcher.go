package ioc

import (
	"fmt"

	"github.com/rs/zerolog"

	"tile_iocgen/internal/device"
	"tile_iocgen/internal/metrics"
)

// Renderer turns a payload into config file text. The dispatcher never
// inspects template contents.
type Renderer interface {
	Render(template string, payload Payload) (string, error)
}

// Sink receives rendered config files.
type Sink interface {
	WriteConfig(filename, content string) error
}

// Dispatcher drives the per-type generation pipeline: filter by type tag,
// group by controller, validate, consistency-check, assemble, render.
type Dispatcher struct {
	log       zerolog.Logger
	pipelines []Pipeline
	renderer  Renderer
	sink      Sink
	metrics   *metrics.Metrics
}

func New(log zerolog.Logger, pipelines []Pipeline, renderer Renderer, sink Sink, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		log:       log,
		pipelines: pipelines,
		renderer:  renderer,
		sink:      sink,
		metrics:   m,
	}
}

// Pipelines returns the configured device-type table.
func (d *Dispatcher) Pipelines() []Pipeline {
	out := make([]Pipeline, len(d.pipelines))
	copy(out, d.pipelines)
	return out
}

func (d *Dispatcher) pipelineFor(typ DeviceType) (Pipeline, bool) {
	for _, p := range d.pipelines {
		if p.Type == typ {
			return p, true
		}
	}
	return Pipeline{}, false
}

// Plan runs the full pipeline for one device type without rendering or
// writing anything, returning the payloads a real run would emit.
func (d *Dispatcher) Plan(typ DeviceType, records []device.Record) ([]Payload, error) {
	return d.plan(typ, records, false)
}

// Run generates config files for one device type and returns the number
// of files written. A controller conflict yields zero files for the type
// and a *ConflictError.
func (d *Dispatcher) Run(typ DeviceType, records []device.Record) (int, error) {
	payloads, err := d.plan(typ, records, true)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, payload := range payloads {
		text, err := d.renderer.Render(payload.Template, payload)
		if err != nil {
			return written, fmt.Errorf("render %s for %s: %w", payload.Filename, typ, err)
		}
		if err := d.sink.WriteConfig(payload.Filename, text); err != nil {
			return written, fmt.Errorf("write %s: %w", payload.Filename, err)
		}
		d.log.Info().
			Str("device_type", string(typ)).
			Str("file", payload.Filename).
			Msg("config written")
		written++
		d.metrics.IncFileWritten(string(typ))
	}
	return written, nil
}

func (d *Dispatcher) plan(typ DeviceType, records []device.Record, observe bool) ([]Payload, error) {
	p, ok := d.pipelineFor(typ)
	if !ok {
		return nil, fmt.Errorf("no pipeline for device type %q", typ)
	}

	matched := make([]device.Record, 0, len(records))
	for _, rec := range records {
		if rec.Type == string(typ) {
			matched = append(matched, rec)
		}
	}
	d.log.Info().
		Str("device_type", string(typ)).
		Int("count", len(matched)).
		Msg("devices found")
	if len(matched) == 0 {
		d.log.Info().Str("device_type", string(typ)).Msg("skipping device type")
		return nil, nil
	}

	if p.Shape == ShapeSingleton {
		var payloads []Payload
		for _, rec := range matched {
			member, ok := d.validateRecord(p, rec, observe)
			if !ok {
				continue
			}
			payloads = append(payloads, assembleSingleton(p, member.Record))
		}
		return payloads, nil
	}

	var payloads []Payload
	for _, group := range GroupByKey(matched, p.KeyField) {
		var members []GroupMember
		for _, rec := range group.Records {
			member, ok := d.validateRecord(p, rec, observe)
			if !ok {
				continue
			}
			members = append(members, member)
		}
		if len(members) == 0 {
			d.log.Info().
				Str("device_type", string(typ)).
				Str("controller", group.Key).
				Msg("no valid configs for controller")
			continue
		}

		if conflict := CheckConsistency(p.Type, group.Key, members); conflict != nil {
			d.log.Error().
				Str("device_type", string(typ)).
				Str("controller", group.Key).
				Msg(conflict.Error())
			if observe {
				d.metrics.IncConflict(string(typ))
			}
			return nil, conflict
		}

		payloads = append(payloads, assembleAggregate(p, group.Key, members))
	}
	return payloads, nil
}

func (d *Dispatcher) validateRecord(p Pipeline, rec device.Record, observe bool) (GroupMember, bool) {
	st, ok := p.subtypeFor(rec)
	if !ok {
		d.log.Warn().
			Str("device", rec.Name).
			Str("device_type", string(p.Type)).
			Str("subtype", rec.Field(p.Discriminator)).
			Msg("not a recognized subtype")
		if observe {
			d.metrics.IncRejected(string(p.Type))
		}
		return GroupMember{}, false
	}

	normalized, err := st.Schema.Validate(rec.Metadata)
	if err != nil {
		d.log.Warn().
			Str("device", rec.Name).
			Str("device_type", string(p.Type)).
			Str("reason", err.Error()).
			Msg("record failed validation")
		if observe {
			d.metrics.IncRejected(string(p.Type))
		}
		return GroupMember{}, false
	}

	return GroupMember{Record: rec.WithMetadata(normalized), Subtype: st}, true
}

// Summary is the per-type outcome of one generation run.
type Summary struct {
	Written map[DeviceType]int
	Failed  map[DeviceType]error
}

// TotalWritten sums files written across device types.
func (s Summary) TotalWritten() int {
	total := 0
	for _, n := range s.Written {
		total += n
	}
	return total
}

// RunAll processes every configured device type over the record set.
// Device types are isolated: a fatal conflict in one type is recorded in
// the summary and the remaining types still run.
func (d *Dispatcher) RunAll(records []device.Record) Summary {
	summary := Summary{
		Written: make(map[DeviceType]int),
		Failed:  make(map[DeviceType]error),
	}
	for _, p := range d.pipelines {
		n, err := d.Run(p.Type, records)
		summary.Written[p.Type] = n
		if err != nil {
			summary.Failed[p.Type] = err
			d.log.Error().
				Str("device_type", string(p.Type)).
				Err(err).
				Msg("device type failed, continuing with remaining types")
		}
	}
	return summary
}
