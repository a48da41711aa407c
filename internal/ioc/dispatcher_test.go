package ioc

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tile_iocgen/internal/device"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(template string, payload Payload) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "template=%s controller=%s\n", template, payload.ControllerKey)
	for _, rec := range payload.Devices {
		fmt.Fprintf(&b, "device=%s channel=%s\n", rec.Name, rec.Field("ioc_channel"))
	}
	return b.String(), nil
}

type captureSink struct {
	files map[string]string
}

func newCaptureSink() *captureSink {
	return &captureSink{files: map[string]string{}}
}

func (s *captureSink) WriteConfig(filename, content string) error {
	s.files[filename] = content
	return nil
}

func newTestDispatcher(sink Sink) *Dispatcher {
	return New(zerolog.Nop(), DefaultPipelines(), fakeRenderer{}, sink, nil)
}

func elliptecRecord(name, serial, channel string) device.Record {
	return device.Record{
		Name: name,
		Type: "Elliptec",
		Metadata: map[string]string{
			"name": name, "ioc_engineer": "tj", "ioc_release": "R1",
			"ioc_location": "lm1k4", "ioc_arch": "linux-x86_64",
			"ioc_channel": channel, "prefix": "LM1K4:" + name,
			"ioc_serial": serial, "ioc_base": "IOC1", "ioc_alias": name,
			"ioc_name": "dev1", "ioc_model": "ell6",
		},
	}
}

func qminiRecord(name string) device.Record {
	return device.Record{
		Name: name,
		Type: "Qmini",
		Metadata: map[string]string{
			"name": name, "ioc_engineer": "tj", "ioc_release": "R1",
			"ioc_location": "lm1k4", "ioc_arch": "linux-x86_64",
			"prefix": "LM1K4:" + name, "ioc_serial": "Q1",
			"ioc_name": name, "ioc_use_evr": "yes", "ioc_evr_channel": "0",
		},
	}
}

func TestRun_TwoChannelsOneFile(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	records := []device.Record{
		elliptecRecord("ell1", "S1", "1"),
		elliptecRecord("ell2", "S1", "2"),
	}

	n, err := d.Run(TypeElliptec, records)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one file, got %d", n)
	}

	content, ok := sink.files["dev1.cfg"]
	if !ok {
		t.Fatalf("expected dev1.cfg to be written, got %v", sink.files)
	}
	if !strings.Contains(content, "channel=1") || !strings.Contains(content, "channel=2") {
		t.Fatalf("expected both channel entries in dev1.cfg, got %q", content)
	}
}

func TestRun_DuplicateChannelEmitsNothing(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	records := []device.Record{
		elliptecRecord("ell1", "S1", "1"),
		elliptecRecord("ell2", "S1", "1"),
	}

	n, err := d.Run(TypeElliptec, records)
	if n != 0 || len(sink.files) != 0 {
		t.Fatalf("expected zero files on conflict, got n=%d files=%v", n, sink.files)
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.Key != "S1" {
		t.Fatalf("expected conflict to name serial S1, got %q", conflict.Key)
	}
	if len(conflict.Values) != 1 || conflict.Values[0] != "1" {
		t.Fatalf("expected conflict to name value 1, got %v", conflict.Values)
	}
}

func TestRun_InvalidRecordDroppedSiblingSurvives(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	bad := elliptecRecord("ell2", "S1", "2")
	bad.Metadata["ioc_model"] = "ell99"

	n, err := d.Run(TypeElliptec, []device.Record{
		elliptecRecord("ell1", "S1", "1"),
		bad,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one file from the surviving record, got %d", n)
	}
	if content := sink.files["dev1.cfg"]; strings.Contains(content, "device=ell2") {
		t.Fatalf("rejected record leaked into output: %q", content)
	}
}

func TestRun_EmptyTypeIsSkip(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	n, err := d.Run(TypeElliptec, []device.Record{qminiRecord("qm1")})
	if err != nil {
		t.Fatalf("expected skip, got error %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero files, got %d", n)
	}
}

func TestRun_SingletonOneFilePerRecord(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	n, err := d.Run(TypeQmini, []device.Record{qminiRecord("qm1"), qminiRecord("qm2")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected one file per record, got %d", n)
	}
	if _, ok := sink.files["qm1.cfg"]; !ok {
		t.Fatalf("expected qm1.cfg, got %v", sink.files)
	}
	if _, ok := sink.files["qm2.cfg"]; !ok {
		t.Fatalf("expected qm2.cfg, got %v", sink.files)
	}
}

func TestRunAll_ConflictIsolatedPerDeviceType(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	records := []device.Record{
		// Elliptec controller with a duplicate channel: fatal for the type.
		elliptecRecord("ell1", "S1", "1"),
		elliptecRecord("ell2", "S1", "1"),
		// A clean Qmini must still produce its file.
		qminiRecord("qm1"),
	}

	summary := d.RunAll(records)
	if _, failed := summary.Failed[TypeElliptec]; !failed {
		t.Fatalf("expected Elliptec to fail, got %+v", summary)
	}
	if _, failed := summary.Failed[TypeQmini]; failed {
		t.Fatalf("expected Qmini to succeed, got %+v", summary)
	}
	if summary.Written[TypeQmini] != 1 {
		t.Fatalf("expected Qmini file written despite Elliptec conflict, got %d", summary.Written[TypeQmini])
	}
	if _, ok := sink.files["qm1.cfg"]; !ok {
		t.Fatalf("expected qm1.cfg present, got %v", sink.files)
	}
	if summary.TotalWritten() != 1 {
		t.Fatalf("expected total of one file, got %d", summary.TotalWritten())
	}
}

func TestRun_SmarActSubtypesShareController(t *testing.T) {
	sink := newCaptureSink()
	d := newTestDispatcher(sink)

	base := map[string]string{
		"ioc_engineer": "tj", "ioc_release": "R1", "ioc_location": "lm1k4",
		"ioc_arch": "linux-x86_64", "ioc_ip": "mcs-1", "ioc_base": "IOC2",
		"ioc_name": "mcs1", "ioc_alias": "stage",
	}
	rec := func(name, typ string, extra map[string]string) device.Record {
		meta := map[string]string{"name": name, "prefix": "LM1K4:" + name, "type": typ}
		for k, v := range base {
			meta[k] = v
		}
		for k, v := range extra {
			meta[k] = v
		}
		return device.Record{Name: name, Type: "SmarAct", Metadata: meta}
	}

	records := []device.Record{
		rec("m1", "pcdsdevices.SmarActMotor", map[string]string{"ioc_channel": "1"}),
		rec("tt1", "pcdsdevices.SmarActTipTilt", map[string]string{
			"ioc_tip_channel": "2", "ioc_tilt_channel": "3",
			"ioc_tip_suffix": ":TIP", "ioc_tilt_suffix": ":TILT",
		}),
		// Unrecognized subtype is rejected, not fatal.
		rec("x1", "pcdsdevices.Unknown", map[string]string{"ioc_channel": "4"}),
	}

	n, err := d.Run(TypeSmarAct, records)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one file for the controller, got %d", n)
	}
	if _, ok := sink.files["mcs1.cfg"]; !ok {
		t.Fatalf("expected mcs1.cfg, got %v", sink.files)
	}
}
