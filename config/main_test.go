package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
db-path: /var/lib/senro.db
map-id: 0b6f0c8e-2f4f-4a8e-9d0c-5a1e2b3c4d5e
tick: 50ms
gauge: standard
tui: true
`))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.DBPath = "/var/lib/senro.db"
	want.MapID = uuid.MustParse("0b6f0c8e-2f4f-4a8e-9d0c-5a1e2b3c4d5e")
	want.Tick = Duration(50 * time.Millisecond)
	want.Gauge = GaugeStandard
	want.TUI = true
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"unknown key", "colour: blue\n"},
		{"bad duration", "tick: soon\n"},
		{"negative tick", "tick: -1s\n"},
		{"unknown gauge", "gauge: broad\n"},
		{"bad uuid", "map-id: nope\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("missing file (-want +got):\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "senro.yaml")
	if err := os.WriteFile(path, []byte("demo: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Demo {
		t.Fatal("demo should be disabled")
	}

	if _, err := Parse(nil); err != nil {
		t.Fatalf("empty file: %s", err)
	}
}
