// Package specialist ranks doctors against a diagnosis.
package specialist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contact holds a specialist's contact details.
type Contact struct {
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

// Specialist is one doctor in the roster.
type Specialist struct {
	Name          string   `json:"name" yaml:"name"`
	Specialties   []string `json:"specialties" yaml:"specialties"`
	Experience    float64  `json:"experience" yaml:"experience"` // years
	Rating        float64  `json:"rating" yaml:"rating"`         // 0-5
	Reviews       int      `json:"reviews" yaml:"reviews"`
	Hospital      string   `json:"hospital" yaml:"hospital"`
	Location      string   `json:"location" yaml:"location"`
	AvailableDays []string `json:"available_days" yaml:"available_days"`
	Languages     []string `json:"languages" yaml:"languages"`
	Contact       Contact  `json:"contact" yaml:"contact"`
}

// Roster is the document holding every known specialist.
type Roster struct {
	Doctors []Specialist `json:"doctors" yaml:"doctors"`
}

// LoadRoster reads a roster file. The format follows the extension:
// .json, .yaml or .yml.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	r, err := ParseRoster(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRoster decodes and validates a roster document.
func ParseRoster(data []byte, ext string) (*Roster, error) {
	var r Roster
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported roster format %q", ext)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks every entry.
func (r *Roster) Validate() error {
	for i, d := range r.Doctors {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("doctor %d: name is required", i+1)
		}
		if d.Experience < 0 {
			return fmt.Errorf("doctor %q: negative experience %v", d.Name, d.Experience)
		}
		if d.Rating < 0 || d.Rating > 5 {
			return fmt.Errorf("doctor %q: rating %v outside 0-5", d.Name, d.Rating)
		}
		if d.Reviews < 0 {
			return fmt.Errorf("doctor %q: negative review count", d.Name)
		}
	}
	return nil
}
