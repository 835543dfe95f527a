package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/rules"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema []byte

const embeddedSchemaURL = "config.schema.json"

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`
	Padding     float64 `json:"padding"`

	// Cadence
	TickRate     uint    `json:"tickRate"`     // physics steps per second
	MaxFrameTime int     `json:"maxFrameTime"` // milliseconds
	Entropy      float64 `json:"entropy"`
	AutoStart    bool    `json:"autoStart"`

	// Seed makes atom placement reproducible when set.
	Seed *uint64 `json:"seed,omitempty"`

	Groups map[string]particle.GroupConfig `json:"groups"`
	Rules  []rules.Triple                  `json:"rules"`
}

// DefaultConfig is the two-colour preset the editor starts with.
func DefaultConfig() *Config {
	return &Config{
		WorldWidth:   600,
		WorldHeight:  600,
		Padding:      DefaultPadding,
		TickRate:     DefaultTickRate,
		MaxFrameTime: int(DefaultMaxFrameTime / time.Millisecond),
		Entropy:      DefaultEntropy,
		AutoStart:    true,
		Groups: map[string]particle.GroupConfig{
			"#4A90E2": {Total: 600, PointSize: 2, BlurRadius: ptrTo(2.0), Shape: particle.Dot},
			"#ffffff": {Total: 600, PointSize: 1, Shape: particle.Triangle},
		},
		Rules: []rules.Triple{
			{Source: "#4A90E2", Target: "#4A90E2", Weight: "-0.32"},
			{Source: "#4A90E2", Target: "#ffffff", Weight: "0.34"},
			{Source: "#ffffff", Target: "#ffffff", Weight: "0.15"},
			{Source: "#ffffff", Target: "#4A90E2", Weight: "-0.2"},
		},
	}
}

func ptrTo[T any](v T) *T { return &v }

// LoadConfig reads a JSON or TOML (by extension) configuration, validates it
// against the schema and applies it over DefaultConfig. An empty schemaFile
// selects the embedded schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(configFile), ".toml") {
		if raw, err = tomlToJSON(raw); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	}

	// 3. Validate
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults
	cfg := DefaultConfig()
	if doc, ok := v.(map[string]any); ok {
		if _, has := doc["groups"]; has {
			// a listed group set replaces the preset instead of merging into it
			cfg.Groups = nil
		}
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Rules = cfg.RuleTable().Triples()
	return cfg, nil
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(embeddedSchemaURL, bytes.NewReader(configSchema)); err != nil {
		return nil, err
	}
	return c.Compile(embeddedSchemaURL)
}

func tomlToJSON(raw []byte) ([]byte, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// RuleTable parses Rules and keeps only the rules with a non-zero weight.
func (c *Config) RuleTable() rules.Table {
	table, _ := rules.Parse(c.Rules)
	return table.Active()
}

// MaxFrameDuration is MaxFrameTime as a duration.
func (c *Config) MaxFrameDuration() time.Duration {
	return time.Duration(c.MaxFrameTime) * time.Millisecond
}

// Options returns the Simulation options this configuration implies.
func (c *Config) Options() []Option {
	opts := []Option{WithPadding(c.Padding)}
	if c.Seed != nil {
		opts = append(opts, WithSeed(*c.Seed))
	}
	return opts
}

// Apply initialises s with this configuration and starts it when AutoStart
// is set.
func (c *Config) Apply(s *Simulation) {
	s.Init(c.WorldWidth, c.WorldHeight)
	s.SetTickRate(c.TickRate)
	s.SetEntropy(c.Entropy)
	s.Reconfigure(c.Groups)
	s.SetRuleTable(c.RuleTable())
	if c.AutoStart {
		s.Start()
	}
}

// AddGroup adds a group and a zero-weight rule for every new pair, so each
// pair can be edited afterwards. An existing group only gets its config
// replaced.
func (c *Config) AddGroup(name string, gc particle.GroupConfig) {
	if c.Groups == nil {
		c.Groups = make(map[string]particle.GroupConfig)
	}
	_, existed := c.Groups[name]
	c.Groups[name] = gc
	if existed {
		return
	}
	names := make([]string, 0, len(c.Groups))
	for other := range c.Groups {
		names = append(names, other)
	}
	slices.Sort(names)
	table, _ := rules.Parse(c.Rules)
	for _, other := range names {
		for _, pair := range [][2]string{{name, other}, {other, name}} {
			if _, ok := table.Weight(pair[0], pair[1]); !ok {
				table = table.Set(pair[0], pair[1], 0)
			}
		}
	}
	c.Rules = table.Triples()
}

// RemoveGroup drops a group and every rule that mentions it.
func (c *Config) RemoveGroup(name string) {
	delete(c.Groups, name)
	table, _ := rules.Parse(c.Rules)
	c.Rules = table.Without(name).Triples()
}

// ExportConfig captures the live state of s on top of base.
func ExportConfig(s *Simulation, base *Config) *Config {
	out := *base
	b := s.Bounds()
	if s.Initialized() {
		out.WorldWidth, out.WorldHeight = b.Width, b.Height
	}
	out.Padding = b.Padding
	out.TickRate = s.TickRate()
	out.Entropy = s.Entropy()
	out.AutoStart = s.Running()
	out.Groups = s.GroupConfigs()
	out.Rules = s.Rules().Triples()
	return &out
}
