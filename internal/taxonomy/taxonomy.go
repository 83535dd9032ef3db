// Package taxonomy describes the body parts the interview covers, the
// basketball injuries common to each, and the symptom keywords and
// screening questions tied to them.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Condition is a known injury of one body part.
type Condition struct {
	Symptoms []string `json:"symptoms" yaml:"symptoms"`
	Weight   float64  `json:"weight" yaml:"weight"`
}

// BodyPart groups the conditions and screening questions for one area.
type BodyPart struct {
	Name       string               `json:"-" yaml:"-"`
	Aliases    []string             `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Questions  []string             `json:"questions" yaml:"questions"`
	Conditions map[string]Condition `json:"conditions" yaml:"conditions"`
}

// Taxonomy is an immutable index of body parts keyed by lowercase name.
type Taxonomy struct {
	parts map[string]*BodyPart
	names []string // display names, sorted
}

// New indexes parts by name. Names are matched case-insensitively.
func New(parts map[string]BodyPart) (*Taxonomy, error) {
	t := &Taxonomy{parts: make(map[string]*BodyPart, len(parts))}
	for name, p := range parts {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("body part with empty name")
		}
		key := strings.ToLower(name)
		if _, dup := t.parts[key]; dup {
			return nil, fmt.Errorf("duplicate body part %q", name)
		}
		for cname, c := range p.Conditions {
			if c.Weight < 0 {
				return nil, fmt.Errorf("%s/%s: negative weight %v", name, cname, c.Weight)
			}
		}
		p.Name = name
		t.parts[key] = &p
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t, nil
}

// Load reads a taxonomy file. The format follows the extension: .json,
// .yaml or .yml.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	t, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a taxonomy document: an object mapping body part name to
// its questions and conditions.
func Parse(data []byte, ext string) (*Taxonomy, error) {
	parts := map[string]BodyPart{}
	switch strings.ToLower(ext) {
	case ".json", "json":
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml", "yaml", "yml":
		if err := yaml.Unmarshal(data, &parts); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported taxonomy format %q", ext)
	}
	return New(parts)
}

// BodyParts returns the display names of every body part, sorted.
func (t *Taxonomy) BodyParts() []string {
	return append([]string(nil), t.names...)
}

// Lookup returns the body part named name (case-insensitive).
func (t *Taxonomy) Lookup(name string) (*BodyPart, bool) {
	p, ok := t.parts[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// CommonConditions returns the condition names for a body part, heaviest
// weight first. Unknown parts return nil.
func (t *Taxonomy) CommonConditions(part string) []string {
	p, ok := t.Lookup(part)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(p.Conditions))
	for n := range p.Conditions {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := p.Conditions[names[i]].Weight, p.Conditions[names[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})
	return names
}

// RankedQuestions orders a body part's screening questions by how much
// condition weight their symptom keywords cover.
func (t *Taxonomy) RankedQuestions(part string) []string {
	p, ok := t.Lookup(part)
	if !ok {
		return nil
	}
	weights := make(map[string]float64, len(p.Questions))
	for _, q := range p.Questions {
		lq := strings.ToLower(q)
		for _, c := range p.Conditions {
			for _, s := range c.Symptoms {
				if strings.Contains(lq, strings.ToLower(s)) {
					weights[q] += c.Weight
				}
			}
		}
	}
	out := append([]string(nil), p.Questions...)
	sort.SliceStable(out, func(i, j int) bool { return weights[out[i]] > weights[out[j]] })
	return out
}

// Detect finds the first body part mentioned in free text, by name or
// alias, scanning parts in sorted order. It returns the display name.
func (t *Taxonomy) Detect(text string) (string, bool) {
	parts := t.Mentioned(text)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], true
}

// Mentioned returns every body part whose name or alias occurs as a word
// in text.
func (t *Taxonomy) Mentioned(text string) []string {
	words := wordSet(text)
	lower := strings.ToLower(text)
	var out []string
	for _, name := range t.names {
		p := t.parts[strings.ToLower(name)]
		if matches(words, lower, name) {
			out = append(out, name)
			continue
		}
		for _, a := range p.Aliases {
			if matches(words, lower, a) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// matches checks single-word terms against the word set and multi-word
// terms as substrings.
func matches(words map[string]bool, lower, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(term, " ") {
		return strings.Contains(lower, term)
	}
	return words[term] || words[term+"s"]
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	}) {
		set[strings.TrimSuffix(w, "'s")] = true
	}
	return set
}
