// Package bridge converts host payloads into simulation commands.
//
// A payload is a JSON-shaped object carried as a protobuf Struct:
//
//	{"command": "reconfigure", "groups": {"#ff0000": {"total": 300, "pointSize": 2, "shape": "Dot"}}}
//	{"command": "set_rules", "rules": [["#ff0000", "#00ff00", "-0.4"]]}
//
// Only a missing or unknown command, or a missing argument container, is an
// error. Malformed leaf values fall back to zero values.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/de-v-in/life-rules/pkg/particle"
	"github.com/de-v-in/life-rules/pkg/rules"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrMissingCommand = errors.New("bridge: missing command")
	ErrUnknownCommand = errors.New("bridge: unknown command")
	ErrBadArgument    = errors.New("bridge: bad argument")
)

// MaxTickRate is the highest tick rate a payload can request, the same
// bound the configuration schema puts on tickRate.
const MaxTickRate = 10000

// Kind names a host operation.
type Kind string

const (
	Init        Kind = "init"
	Resize      Kind = "resize"
	Reconfigure Kind = "reconfigure"
	SetRules    Kind = "set_rules"
	SetTickRate Kind = "set_tick_rate"
	SetEntropy  Kind = "set_entropy"
	Start       Kind = "start"
	Stop        Kind = "stop"
	RespawnAll  Kind = "respawn_all"
)

var kinds = map[Kind]bool{
	Init: true, Resize: true, Reconfigure: true, SetRules: true, SetTickRate: true,
	SetEntropy: true, Start: true, Stop: true, RespawnAll: true,
}

// Command is a decoded host operation. Only the fields used by Kind are set.
type Command struct {
	Kind     Kind
	Width    float64
	Height   float64
	Groups   map[string]particle.GroupConfig
	Rules    []rules.Triple
	TickRate uint
	Entropy  float64
}

// Target receives commands. *simulation.Simulation implements it.
type Target interface {
	Init(width, height float64)
	Resize(width, height float64)
	Reconfigure(configs map[string]particle.GroupConfig)
	SetRules(triples []rules.Triple)
	SetTickRate(n uint)
	SetEntropy(e float64)
	Start()
	Stop()
	RespawnAll()
}

// Apply runs the command against t.
func (c Command) Apply(t Target) {
	switch c.Kind {
	case Init:
		t.Init(c.Width, c.Height)
	case Resize:
		t.Resize(c.Width, c.Height)
	case Reconfigure:
		t.Reconfigure(c.Groups)
	case SetRules:
		t.SetRules(c.Rules)
	case SetTickRate:
		t.SetTickRate(c.TickRate)
	case SetEntropy:
		t.SetEntropy(c.Entropy)
	case Start:
		t.Start()
	case Stop:
		t.Stop()
	case RespawnAll:
		t.RespawnAll()
	}
}

// ParseJSON reads one JSON payload.
func ParseJSON(data []byte) (*structpb.Struct, error) {
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("bridge: invalid payload: %w", err)
	}
	return st, nil
}

// Decode turns a payload into a Command.
func Decode(st *structpb.Struct) (Command, error) {
	m := st.AsMap()
	name, ok := m["command"].(string)
	if !ok || name == "" {
		return Command{}, ErrMissingCommand
	}
	cmd := Command{Kind: Kind(strings.ToLower(strings.TrimSpace(name)))}
	if !kinds[cmd.Kind] {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	switch cmd.Kind {
	case Init, Resize:
		cmd.Width = number(m["width"])
		cmd.Height = number(m["height"])
	case Reconfigure:
		raw, ok := m["groups"].(map[string]any)
		if !ok {
			return Command{}, fmt.Errorf("%w: reconfigure needs a groups object", ErrBadArgument)
		}
		cmd.Groups = make(map[string]particle.GroupConfig, len(raw))
		for name, v := range raw {
			cmd.Groups[name] = groupConfig(v)
		}
	case SetRules:
		raw, ok := m["rules"].([]any)
		if !ok {
			return Command{}, fmt.Errorf("%w: set_rules needs a rules array", ErrBadArgument)
		}
		cmd.Rules = make([]rules.Triple, 0, len(raw))
		for _, v := range raw {
			cmd.Rules = append(cmd.Rules, triple(v))
		}
	case SetTickRate:
		cmd.TickRate = uint(clamp(number(m["tickRate"]), 0, MaxTickRate))
	case SetEntropy:
		cmd.Entropy = number(m["entropy"])
	}
	return cmd, nil
}

// Encode is the inverse of Decode.
func Encode(c Command) (*structpb.Struct, error) {
	m := map[string]any{"command": string(c.Kind)}
	switch c.Kind {
	case Init, Resize:
		m["width"], m["height"] = c.Width, c.Height
	case Reconfigure:
		groups := make(map[string]any, len(c.Groups))
		for name, g := range c.Groups {
			gm := map[string]any{
				"total":     float64(g.Total),
				"pointSize": g.PointSize,
				"shape":     g.Shape.String(),
			}
			if g.BlurRadius != nil {
				gm["blurRadius"] = *g.BlurRadius
			}
			if g.ComputeRadius != nil {
				gm["computeRadius"] = *g.ComputeRadius
			}
			groups[name] = gm
		}
		m["groups"] = groups
	case SetRules:
		list := make([]any, len(c.Rules))
		for i, t := range c.Rules {
			list[i] = []any{t.Source, t.Target, t.Weight}
		}
		m["rules"] = list
	case SetTickRate:
		m["tickRate"] = float64(c.TickRate)
	case SetEntropy:
		m["entropy"] = c.Entropy
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", c.Kind, err)
	}
	return st, nil
}

// ToStruct converts any JSON-encodable value into a Struct, e.g. a status
// report or a configuration export.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("bridge: marshal %T: %w", v, err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("bridge: %T is not an object: %w", v, err)
	}
	return st, nil
}

// FromStruct decodes a Struct into v through JSON.
func FromStruct(st *structpb.Struct, v any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("bridge: marshal struct: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("bridge: decode into %T: %w", v, err)
	}
	return nil
}

// clamp rounds f into [lo, hi] so the integer conversion cannot overflow.
func clamp(f, lo, hi float64) float64 {
	return min(max(math.Round(f), lo), hi)
}

func groupConfig(v any) particle.GroupConfig {
	m, _ := v.(map[string]any)
	cfg := particle.GroupConfig{
		Total:     int(clamp(number(m["total"]), math.MinInt32, particle.MaxAtoms+1)),
		PointSize: number(m["pointSize"]),
	}
	if v, ok := m["blurRadius"]; ok && v != nil {
		f := number(v)
		cfg.BlurRadius = &f
	}
	if v, ok := m["computeRadius"]; ok && v != nil {
		f := number(v)
		cfg.ComputeRadius = &f
	}
	if s, ok := m["shape"].(string); ok {
		cfg.Shape = particle.ParseShape(s)
	}
	return cfg
}

// triple keeps whatever it can of a rule entry. Missing names become empty
// strings, which no group uses, so the rule is skipped at tick time.
func triple(v any) rules.Triple {
	list, _ := v.([]any)
	var t rules.Triple
	if len(list) > 0 {
		t.Source = text(list[0])
	}
	if len(list) > 1 {
		t.Target = text(list[1])
	}
	if len(list) > 2 {
		t.Weight = text(list[2])
	}
	return t
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// number reads a float from a JSON number or numeric text; anything else is 0.
func number(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
