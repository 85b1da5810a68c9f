// Package config reads the daemon configuration from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath string    `yaml:"db-path" json:"db-path"`
	MapID  uuid.UUID `yaml:"map-id" json:"map-id"`
	Listen string    `yaml:"listen" json:"listen"`

	// Tick is the interval between advances of switches and signals.
	Tick  Duration `yaml:"tick" json:"tick"`
	Gauge Gauge    `yaml:"gauge" json:"gauge"`

	// Demo lays the demo oval if the map is not in the database yet.
	Demo bool `yaml:"demo" json:"demo"`
	TUI  bool `yaml:"tui" json:"tui"`
}

// Gauge selects the rail geometry.
type Gauge string

const (
	GaugeStandard Gauge = "standard"
	GaugeKato     Gauge = "kato"
)

// Duration is a time.Duration written as a string such as "100ms".
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func Default() Config {
	return Config{
		DBPath: "./senro.db",
		MapID:  uuid.MustParse("6d0a4e43-4b8f-4c3c-9a56-3f7c8b2d1e90"),
		Listen: "127.0.0.1:8001",
		Tick:   Duration(100 * time.Millisecond),
		Gauge:  GaugeKato,
		Demo:   true,
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse reads YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", time.Duration(c.Tick))
	}
	switch c.Gauge {
	case GaugeStandard, GaugeKato:
	default:
		return fmt.Errorf("unknown gauge %q", c.Gauge)
	}
	if c.MapID == uuid.Nil {
		return errors.New("map-id must be set")
	}
	return nil
}
