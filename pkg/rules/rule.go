// Package rules holds the ordered table of directed, weighted interactions
// between atom groups.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rule makes the atoms of Source react to the atoms of Target.
// A positive weight repels, a negative one attracts.
type Rule struct {
	Source string
	Target string
	Weight float64
}

func (r Rule) String() string {
	return fmt.Sprintf("%s<-%s(%g)", r.Source, r.Target, r.Weight)
}

// Triple is the text form of a rule as a host sends it. Weight is kept as
// text until Parse.
type Triple struct {
	Source string
	Target string
	Weight string
}

// MarshalJSON encodes the triple as [source, target, weight].
func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.Source, t.Target, t.Weight})
}

// UnmarshalJSON accepts [source, target, weight] where weight is either a
// JSON string or a JSON number.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rule triple: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("rule triple: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Source); err != nil {
		return fmt.Errorf("rule triple source: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Target); err != nil {
		return fmt.Errorf("rule triple target: %w", err)
	}
	w := bytes.TrimSpace(raw[2])
	if len(w) > 0 && w[0] == '"' {
		if err := json.Unmarshal(w, &t.Weight); err != nil {
			return fmt.Errorf("rule triple weight: %w", err)
		}
		return nil
	}
	t.Weight = string(w)
	return nil
}

// Table is an ordered rule list. Order matters: rules are applied one after
// the other against the already updated groups.
type Table []Rule

// ParseWeight reads a weight from text. Anything that is not a finite
// number gives 0 and an error describing why.
func ParseWeight(text string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("weight %q: %w", text, err)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("weight %q: not a finite number", text)
	}
	return w, nil
}

// Parse converts triples into a table. A malformed weight becomes 0 and the
// rest of the batch still applies; the returned errors only report what was
// defaulted.
func Parse(triples []Triple) (Table, []error) {
	table := make(Table, 0, len(triples))
	var errs []error
	for i, t := range triples {
		w, err := ParseWeight(t.Weight)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s<-%s): %w", i, t.Source, t.Target, err))
		}
		table = append(table, Rule{Source: t.Source, Target: t.Target, Weight: w})
	}
	return table, errs
}

// Active returns the rules with a non-zero weight.
func (t Table) Active() Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Weight != 0 {
			out = append(out, r)
		}
	}
	return out
}

// Set returns a copy of the table where the source/target pair has the
// given weight. A new pair is appended at the end.
func (t Table) Set(source, target string, weight float64) Table {
	out := make(Table, len(t), len(t)+1)
	copy(out, t)
	for i := range out {
		if out[i].Source == source && out[i].Target == target {
			out[i].Weight = weight
			return out
		}
	}
	return append(out, Rule{Source: source, Target: target, Weight: weight})
}

// Without returns a copy of the table minus every rule mentioning name.
func (t Table) Without(name string) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Source != name && r.Target != name {
			out = append(out, r)
		}
	}
	return out
}

// Weight looks up the weight of a pair; ok is false when the pair is absent.
func (t Table) Weight(source, target string) (w float64, ok bool) {
	for _, r := range t {
		if r.Source == source && r.Target == target {
			return r.Weight, true
		}
	}
	return 0, false
}

// Triples returns the text form of the table.
func (t Table) Triples() []Triple {
	out := make([]Triple, len(t))
	for i, r := range t {
		out[i] = Triple{
			Source: r.Source,
			Target: r.Target,
			Weight: strconv.FormatFloat(r.Weight, 'g', -1, 64),
		}
	}
	return out
}
