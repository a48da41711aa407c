package ioc

import "tile_iocgen/internal/schema"

// baseSchema covers the fields every templated IOC record must carry.
// Base PV is assumed to be given via prefix.
var baseSchema = schema.Schema{
	"ioc_engineer": schema.Any(),
	"ioc_release":  schema.Any(),
	"ioc_location": schema.Any(),
	"ioc_arch": schema.OneOf(
		"linux-x86",
		"linux-x86_64",
		"rhel5-x86_64",
		"rhel7-x86_64",
		"rhel7-gcc494-x86_64",
	),
}

var elliptecSchema = baseSchema.Extend(schema.Schema{
	"ioc_channel": schema.OneOfLower(
		"1", "2", "3", "4", "5", "6", "7", "8",
		"9", "a", "b", "c", "d", "e", "f",
	),
	"prefix":     schema.Any(),
	"ioc_serial": schema.Any(),
	"ioc_base":   schema.Any(),
	"ioc_alias":  schema.Any(),
	"ioc_name":   schema.Any(),
	"ioc_model":  schema.OneOfLower("ell6", "ell9", "ell14", "ell18", "ell20"),
})

var evrSchema = schema.Schema{
	"ioc_use_evr": schema.OneOfLower("yes", "no"),
	"ioc_evr_channel": schema.OneOfUpper(
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "A", "B",
	),
}

var qminiSchema = baseSchema.Extend(evrSchema).Extend(schema.Schema{
	"prefix":     schema.Any(),
	"ioc_serial": schema.Any(),
	"ioc_name":   schema.Any(),
})

var baslerSchema = baseSchema.Extend(evrSchema).Extend(schema.Schema{
	"prefix":         schema.Any(),
	"ioc_name":       schema.Any(),
	"ioc_cam_model":  schema.Any(),
	"ioc_ip":         schema.Any(),
	"ioc_net_if":     schema.Any(),
	"ioc_net_if_num": schema.Any(),
	"ioc_http_port":  schema.Any(),
})

var thorlabsWfsSchema = baseSchema.Extend(evrSchema).Extend(schema.Schema{
	"prefix":            schema.Any(),
	"ioc_name":          schema.Any(),
	"ioc_model":         schema.Any(),
	"ioc_id_num":        schema.Any(),
	"ioc_lenslet_pitch": schema.Any(),
})

var smarActSchema = baseSchema.Extend(schema.Schema{
	"prefix":      schema.Any(),
	"ioc_ip":      schema.Any(),
	"ioc_base":    schema.Any(),
	"ioc_name":    schema.Any(),
	"ioc_channel": schema.Any(),
	"ioc_alias":   schema.Any(),
	"type":        schema.Any(),
})

var smarActTipTiltSchema = baseSchema.Extend(schema.Schema{
	"prefix":           schema.Any(),
	"ioc_ip":           schema.Any(),
	"ioc_base":         schema.Any(),
	"ioc_name":         schema.Any(),
	"ioc_tip_channel":  schema.Any(),
	"ioc_tilt_channel": schema.Any(),
	"ioc_tip_suffix":   schema.Any(),
	"ioc_tilt_suffix":  schema.Any(),
	"ioc_alias":        schema.Any(),
	"type":             schema.Any(),
})

var envMonitorSchema = baseSchema.Extend(schema.Schema{
	"prefix":   schema.Any(),
	"ioc_ip":   schema.Any(),
	"ioc_base": schema.Any(),
	"ioc_name": schema.Any(),
})

var el3174AiChSchema = envMonitorSchema.Extend(schema.Schema{
	"ioc_card_num": schema.Any(),
	"ioc_chan_num": schema.Any(),
	"ioc_alias":    schema.Any(),
})

// DefaultPipelines is the full device-type table for TILE generation.
// Passed to the Dispatcher at construction time.
func DefaultPipelines() []Pipeline {
	return []Pipeline{
		{
			Type:     TypeElliptec,
			Template: "elliptec",
			Shape:    ShapeAggregate,
			KeyField: "ioc_serial",
			Subtypes: []Subtype{
				{Schema: elliptecSchema, ChannelFields: []string{"ioc_channel"}},
			},
		},
		{
			Type:     TypeQmini,
			Template: "qmini",
			Shape:    ShapeSingleton,
			Subtypes: []Subtype{{Schema: qminiSchema}},
		},
		{
			Type:     TypeBaslerGigE,
			Template: "basler",
			Shape:    ShapeSingleton,
			Subtypes: []Subtype{{Schema: baslerSchema}},
		},
		{
			Type:     TypeThorlabsWfs,
			Template: "wfs40",
			Shape:    ShapeSingleton,
			Subtypes: []Subtype{{Schema: thorlabsWfsSchema}},
		},
		{
			Type:          TypeSmarAct,
			Template:      "smaract",
			Shape:         ShapeAggregate,
			KeyField:      "ioc_ip",
			Discriminator: "type",
			Subtypes: []Subtype{
				{
					Value:         "pcdsdevices.SmarActMotor",
					Schema:        smarActSchema,
					ChannelFields: []string{"ioc_channel"},
				},
				{
					Value:         "pcdsdevices.SmarActTipTilt",
					Schema:        smarActTipTiltSchema,
					ChannelFields: []string{"ioc_tip_channel", "ioc_tilt_channel"},
				},
			},
		},
		{
			Type:          TypeEk9000,
			Template:      "ek9000",
			Shape:         ShapeAggregate,
			KeyField:      "ioc_ip",
			Discriminator: "device_class",
			Subtypes: []Subtype{
				{
					Value:  "pcdsdevices.EnvironmentalMonitor",
					Schema: envMonitorSchema,
					// Environmental monitors occupy the first three
					// connections of the first card.
					FixedSlots: []string{"1/1", "1/2", "1/3"},
				},
				{
					Value:         "pcdsdevices.El3174AiCh",
					Schema:        el3174AiChSchema,
					CompositeSlot: []string{"ioc_card_num", "ioc_chan_num"},
				},
			},
		},
	}
}
