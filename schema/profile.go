package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// PROFILE — per-dataset loading configuration
// ============================================================================
// Exports from different sensor gateways disagree on timestamp format and
// on how units are spelled in headers. Instead of guessing a canonical
// format, both are configuration:
//
//	name: office-3f
//	timestamp_layout: "%d-%m-%Y %H:%M"
//	headers:
//	  pm25: "PM2.5 (?g/m?)"
//	units:
//	  pm25: "ug/m3"
//	required: [timestamp, ventilation_status]
// ============================================================================

// Profile controls how a CSV is interpreted.
type Profile struct {
	Name            string            `json:"name,omitempty" yaml:"name"`
	TimestampLayout string            `json:"timestampLayout,omitempty" yaml:"timestamp_layout"`
	Headers         map[Column]string `json:"headers,omitempty" yaml:"headers"`
	Units           map[Column]string `json:"units,omitempty" yaml:"units"`
	Required        []Column          `json:"required,omitempty" yaml:"required"`
	HistogramBins   int               `json:"histogramBins,omitempty" yaml:"histogram_bins"`
}

// MaxHistogramBins bounds every configurable histogram bin count.
const MaxHistogramBins = 1000

// DefaultRequired are the columns without which no dashboard makes sense.
var DefaultRequired = []Column{Timestamp, VentilationStatus}

// DefaultProfile returns a profile that auto-detects everything.
func DefaultProfile() Profile {
	return Profile{
		Name:          "default",
		Required:      append([]Column(nil), DefaultRequired...),
		HistogramBins: 30,
	}
}

// LoadProfile reads a YAML profile and fills unset fields from DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes YAML profile bytes.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	p.Required = nil
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	if p.Required == nil {
		p.Required = append([]Column(nil), DefaultRequired...)
	}
	if p.HistogramBins <= 0 {
		p.HistogramBins = 30
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate rejects unknown column keys, bad timestamp layouts and bin counts
// over MaxHistogramBins.
// A strftime layout is converted to a Go layout in place.
func (p *Profile) Validate() error {
	for c := range p.Headers {
		if _, ok := Lookup(c); !ok {
			return fmt.Errorf("profile %q: unknown column %q in headers", p.Name, c)
		}
	}
	for c := range p.Units {
		if _, ok := Lookup(c); !ok {
			return fmt.Errorf("profile %q: unknown column %q in units", p.Name, c)
		}
	}
	for _, c := range p.Required {
		if _, ok := Lookup(c); !ok {
			return fmt.Errorf("profile %q: unknown required column %q", p.Name, c)
		}
	}
	if p.HistogramBins < 0 || p.HistogramBins > MaxHistogramBins {
		return fmt.Errorf("profile %q: histogram_bins must be between 1 and %d, got %d", p.Name, MaxHistogramBins, p.HistogramBins)
	}
	layout, err := NormalizeLayout(p.TimestampLayout)
	if err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	p.TimestampLayout = layout
	return nil
}
