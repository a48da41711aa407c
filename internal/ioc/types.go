package ioc

import (
	"tile_iocgen/internal/device"
	"tile_iocgen/internal/schema"
)

// DeviceType is the device-type tag carried by metadata records in the
// ioc_type field. Each type owns one generation pipeline.
type DeviceType string

const (
	TypeElliptec    DeviceType = "Elliptec"
	TypeQmini       DeviceType = "Qmini"
	TypeBaslerGigE  DeviceType = "BaslerGigE"
	TypeThorlabsWfs DeviceType = "ThorlabsWfs40"
	TypeSmarAct     DeviceType = "SmarAct"
	TypeEk9000      DeviceType = "Ek9000"
)

var allTypes = []DeviceType{
	TypeElliptec,
	TypeQmini,
	TypeBaslerGigE,
	TypeThorlabsWfs,
	TypeSmarAct,
	TypeEk9000,
}

func AllTypes() []DeviceType {
	out := make([]DeviceType, len(allTypes))
	copy(out, allTypes)
	return out
}

// Shape selects how validated records map onto output files.
type Shape int

const (
	// ShapeAggregate emits one file per controller, carrying every
	// validated record on that controller plus the shared field set.
	ShapeAggregate Shape = iota
	// ShapeSingleton emits one file per validated record.
	ShapeSingleton
)

// Subtype is one device variant within a type's controller family.
// Variants are validated against their own schema but share the
// controller identity key.
type Subtype struct {
	// Value is the discriminator field value selecting this subtype.
	// Empty matches any record when the pipeline has a single subtype.
	Value string

	Schema schema.Schema

	// ChannelFields each claim one controller slot per record.
	ChannelFields []string
	// CompositeSlot fields are joined with "/" to claim one slot.
	CompositeSlot []string
	// FixedSlots are claimed by every record of this subtype.
	FixedSlots []string
}

// Pipeline binds a device type to its schema set, grouping key, output
// shape and template. The full table is passed to the Dispatcher at
// construction; there is no mutable global registry.
type Pipeline struct {
	Type     DeviceType
	Template string
	Shape    Shape

	// KeyField is the controller identity field (ioc_serial, ioc_ip).
	// Unused by singleton shapes.
	KeyField string

	// Discriminator selects the subtype schema per record. Empty when
	// the type has a single subtype.
	Discriminator string

	Subtypes []Subtype
}

func (p Pipeline) subtypeFor(rec device.Record) (Subtype, bool) {
	if p.Discriminator == "" {
		if len(p.Subtypes) == 0 {
			return Subtype{}, false
		}
		return p.Subtypes[0], true
	}
	value := rec.Field(p.Discriminator)
	for _, st := range p.Subtypes {
		if st.Value == value {
			return st, true
		}
	}
	return Subtype{}, false
}

// SharedFields must agree across every record on one controller.
var SharedFields = []string{"ioc_release", "ioc_base", "ioc_arch", "ioc_name"}

// Terminal is one bus-coupler slot entry in an EK9000 payload.
type Terminal struct {
	Card     string
	Type     string
	Channels string
	// Slots maps channel number to the PV or alias wired to it.
	Slots map[string]string
}

// Payload is the validated, consistent data handed to the template
// renderer for one output file.
type Payload struct {
	Type     DeviceType
	Template string
	// Filename is the output file name, <ioc_name>.cfg.
	Filename string
	// ControllerKey identifies the controller for aggregate shapes.
	ControllerKey string
	// Devices holds the normalized records, in input order.
	Devices []device.Record
	// Shared is the agreed controller-wide field set (aggregate shapes).
	Shared map[string]string
	// Terminals is the derived slot map for EK9000 payloads.
	Terminals []Terminal
}
