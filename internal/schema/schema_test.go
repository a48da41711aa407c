package schema

import (
	"errors"
	"testing"
)

func TestValidate_IgnoresExtraFields(t *testing.T) {
	s := Schema{
		"ioc_release": Any(),
		"ioc_arch":    OneOf("linux-x86", "linux-x86_64"),
	}

	meta := map[string]string{
		"ioc_release":    "R1.0.0",
		"ioc_arch":       "linux-x86_64",
		"beamline":       "lm1k4",
		"something_else": "ignored",
	}

	normalized, err := s.Validate(meta)
	if err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	if normalized["beamline"] != "lm1k4" {
		t.Fatalf("expected extra field to pass through, got %q", normalized["beamline"])
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	s := Schema{"ioc_evr_channel": OneOfUpper("0", "1", "A", "B")}
	meta := map[string]string{"ioc_evr_channel": "a"}

	normalized, err := s.Validate(meta)
	if err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	if normalized["ioc_evr_channel"] != "A" {
		t.Fatalf("expected uppercased channel, got %q", normalized["ioc_evr_channel"])
	}
	if meta["ioc_evr_channel"] != "a" {
		t.Fatalf("input metadata was mutated: %q", meta["ioc_evr_channel"])
	}
}

func TestValidate_CaseInsensitiveEnum(t *testing.T) {
	s := Schema{"ioc_model": OneOf("ell6", "ell9", "ell14")}

	if _, err := s.Validate(map[string]string{"ioc_model": "ELL9"}); err != nil {
		t.Fatalf("expected case-insensitive match, got %v", err)
	}
	if _, err := s.Validate(map[string]string{"ioc_model": "ell99"}); err == nil {
		t.Fatalf("expected rejection for value outside enum")
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	s := Schema{
		"ioc_release": Any(),
		"ioc_use_evr": OneOfLower("yes", "no"),
	}

	_, err := s.Validate(map[string]string{"ioc_use_evr": "maybe"})
	if err == nil {
		t.Fatalf("expected rejection")
	}

	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected *RecordError, got %T", err)
	}
	if len(recErr.Issues) != 2 {
		t.Fatalf("expected 2 issues (missing release, bad evr flag), got %d: %v", len(recErr.Issues), recErr)
	}
}

func TestExtend_DoesNotMutateBase(t *testing.T) {
	base := Schema{"ioc_release": Any()}
	extended := base.Extend(Schema{"ioc_serial": Any()})

	if _, ok := base["ioc_serial"]; ok {
		t.Fatalf("base schema was mutated by Extend")
	}
	if len(extended) != 2 {
		t.Fatalf("expected 2 fields in extended schema, got %d", len(extended))
	}
}
