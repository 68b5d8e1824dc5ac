/*
Package factory converts policy documents into wage.Policy values.

PURPOSE:
  Statutory constants change every year (minimum wage) and occasionally in
  structure (thresholds, weeks per month). Policies are therefore data:
  JSON or YAML documents stored in the database or shipped as files, turned
  into a validated wage.Policy here.

JSON SCHEMA:
  {
    "id": "kr-2025",
    "name": "Korea 2025",
    "version": 1,
    "effective_from": "2025-01-01",
    "eligibility_threshold_hours": 15,
    "standard_weekly_hours": 40,
    "max_weekly_holiday_hours": 8,
    "weeks_per_month": 4.345,
    "minimum_hourly_wage": 10030,
    "rounding": "legacy"
  }

  Omitted numeric fields take wage.DefaultPolicy values.

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.ParsePolicy(jsonString)
  policy, err := f.LoadPolicyFile("policies/kr-2025.yaml")

SEE ALSO:
  - wage/policy.go:    Policy type and defaults
  - factory/presets.go: yearly statutory presets
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/wage-engine/wage"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// =============================================================================
// DOCUMENT SCHEMA
// =============================================================================

// PolicyJSON is the document form of a wage policy. The same struct is used
// for YAML.
type PolicyJSON struct {
	ID                        string  `json:"id" yaml:"id"`
	Name                      string  `json:"name" yaml:"name"`
	Version                   int     `json:"version,omitempty" yaml:"version,omitempty"`
	EffectiveFrom             string  `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	EligibilityThresholdHours float64 `json:"eligibility_threshold_hours,omitempty" yaml:"eligibility_threshold_hours,omitempty"`
	StandardWeeklyHours       float64 `json:"standard_weekly_hours,omitempty" yaml:"standard_weekly_hours,omitempty"`
	MaxWeeklyHolidayHours     float64 `json:"max_weekly_holiday_hours,omitempty" yaml:"max_weekly_holiday_hours,omitempty"`
	WeeksPerMonth             float64 `json:"weeks_per_month,omitempty" yaml:"weeks_per_month,omitempty"`
	MinimumHourlyWage         int64   `json:"minimum_hourly_wage,omitempty" yaml:"minimum_hourly_wage,omitempty"`
	Rounding                  string  `json:"rounding,omitempty" yaml:"rounding,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts policy documents to wage.Policy.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses a JSON document.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (wage.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return wage.Policy{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// ParsePolicyYAML parses a YAML document.
func (f *PolicyFactory) ParsePolicyYAML(data []byte) (wage.Policy, error) {
	var pj PolicyJSON
	if err := yaml.Unmarshal(data, &pj); err != nil {
		return wage.Policy{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	return f.FromJSON(pj)
}

// LoadPolicyFile reads a policy document; .yaml/.yml files are YAML,
// everything else is JSON.
func (f *PolicyFactory) LoadPolicyFile(path string) (wage.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wage.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParsePolicyYAML(data)
	default:
		return f.ParsePolicy(string(data))
	}
}

// FromJSON converts a document to a validated wage.Policy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (wage.Policy, error) {
	if strings.TrimSpace(pj.ID) == "" {
		return wage.Policy{}, &wage.InvalidInputError{Field: "id", Value: pj.ID, Reason: "policy id is required"}
	}

	policy := wage.Policy{
		ID:                        pj.ID,
		Name:                      pj.Name,
		Version:                   pj.Version,
		EligibilityThresholdHours: pj.EligibilityThresholdHours,
		StandardWeeklyHours:       pj.StandardWeeklyHours,
		MaxWeeklyHolidayHours:     pj.MaxWeeklyHolidayHours,
		WeeksPerMonth:             pj.WeeksPerMonth,
		MinimumHourlyWage:         wage.Won(pj.MinimumHourlyWage),
		Rounding:                  wage.RoundingMode(pj.Rounding),
	}
	if pj.EffectiveFrom != "" {
		t, err := time.Parse(dateLayout, pj.EffectiveFrom)
		if err != nil {
			return wage.Policy{}, fmt.Errorf("invalid effective_from %q (use YYYY-MM-DD): %w", pj.EffectiveFrom, err)
		}
		policy.EffectiveFrom = t
	}

	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return wage.Policy{}, fmt.Errorf("invalid policy %s: %w", pj.ID, err)
	}
	return policy, nil
}

// ToJSON converts a policy back to its document form.
func ToJSON(p wage.Policy) PolicyJSON {
	pj := PolicyJSON{
		ID:                        p.ID,
		Name:                      p.Name,
		Version:                   p.Version,
		EligibilityThresholdHours: p.EligibilityThresholdHours,
		StandardWeeklyHours:       p.StandardWeeklyHours,
		MaxWeeklyHolidayHours:     p.MaxWeeklyHolidayHours,
		WeeksPerMonth:             p.WeeksPerMonth,
		MinimumHourlyWage:         int64(p.MinimumHourlyWage),
		Rounding:                  string(p.Rounding),
	}
	if !p.EffectiveFrom.IsZero() {
		pj.EffectiveFrom = p.EffectiveFrom.Format(dateLayout)
	}
	return pj
}

// MarshalPolicy renders a policy as indented JSON.
func MarshalPolicy(p wage.Policy) (string, error) {
	data, err := json.MarshalIndent(ToJSON(p), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
