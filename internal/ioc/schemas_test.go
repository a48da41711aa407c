package ioc

import "testing"

func TestDefaultPipelines_CoverAllTypes(t *testing.T) {
	pipelines := DefaultPipelines()

	byType := make(map[DeviceType]Pipeline, len(pipelines))
	for _, p := range pipelines {
		if _, dup := byType[p.Type]; dup {
			t.Fatalf("duplicate pipeline for %s", p.Type)
		}
		byType[p.Type] = p
	}

	for _, typ := range AllTypes() {
		p, ok := byType[typ]
		if !ok {
			t.Fatalf("no pipeline for device type %s", typ)
		}
		if len(p.Subtypes) == 0 {
			t.Fatalf("pipeline %s has no subtypes", typ)
		}
		if p.Template == "" {
			t.Fatalf("pipeline %s has no template", typ)
		}
		if p.Shape == ShapeAggregate && p.KeyField == "" {
			t.Fatalf("aggregate pipeline %s missing controller key field", typ)
		}
	}
}

func TestDefaultPipelines_SubtypeDiscrimination(t *testing.T) {
	for _, p := range DefaultPipelines() {
		if len(p.Subtypes) > 1 && p.Discriminator == "" {
			t.Fatalf("pipeline %s has multiple subtypes but no discriminator", p.Type)
		}
		if p.Discriminator != "" {
			for _, st := range p.Subtypes {
				if st.Value == "" {
					t.Fatalf("pipeline %s subtype missing discriminator value", p.Type)
				}
			}
		}
	}
}
