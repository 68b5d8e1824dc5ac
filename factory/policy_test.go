package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/wage"
)

func TestParsePolicy_JSON(t *testing.T) {
	f := factory.NewPolicyFactory()

	p, err := f.ParsePolicy(`{
		"id": "kr-2025",
		"name": "Korea 2025",
		"effective_from": "2025-01-01",
		"minimum_hourly_wage": 10030,
		"rounding": "single_point"
	}`)
	require.NoError(t, err)

	want := wage.Policy{
		ID:                        "kr-2025",
		Name:                      "Korea 2025",
		Version:                   1,
		EffectiveFrom:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EligibilityThresholdHours: 15,
		StandardWeeklyHours:       40,
		MaxWeeklyHolidayHours:     8,
		WeeksPerMonth:             4.345,
		MinimumHourlyWage:         10030,
		Rounding:                  wage.RoundingSinglePoint,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("policy mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePolicy_YAML(t *testing.T) {
	f := factory.NewPolicyFactory()

	p, err := f.ParsePolicyYAML([]byte(`
id: custom
name: Reduced threshold pilot
eligibility_threshold_hours: 12
weeks_per_month: 4.3
`))
	require.NoError(t, err)
	assert.Equal(t, 12.0, p.EligibilityThresholdHours)
	assert.Equal(t, 4.3, p.WeeksPerMonth)
	assert.Equal(t, wage.RoundingLegacy, p.Rounding)
}

func TestParsePolicy_Errors(t *testing.T) {
	f := factory.NewPolicyFactory()

	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"id":`},
		{"missing id", `{"name":"x"}`},
		{"bad date", `{"id":"x","effective_from":"01/01/2025"}`},
		{"bad rounding", `{"id":"x","rounding":"up"}`},
		{"negative weeks", `{"id":"x","weeks_per_month":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParsePolicy(tt.doc)
			assert.Error(t, err)
		})
	}

	_, err := f.ParsePolicy(`{"id":"x","standard_weekly_hours":-40}`)
	assert.ErrorIs(t, err, wage.ErrInvalidInput)

	_, err = f.ParsePolicy(`{"id":"  "}`)
	assert.ErrorIs(t, err, wage.ErrInvalidInput)
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	f := factory.NewPolicyFactory()

	yamlPath := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("id: from-yaml\nminimum_hourly_wage: 10320\n"), 0o600))
	p, err := f.LoadPolicyFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", p.ID)
	assert.Equal(t, wage.Won(10320), p.MinimumHourlyWage)

	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"id":"from-json"}`), 0o600))
	p, err = f.LoadPolicyFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", p.ID)

	_, err = f.LoadPolicyFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMarshalPolicy_RoundTrip(t *testing.T) {
	f := factory.NewPolicyFactory()
	orig := factory.Statutory2026()

	doc, err := factory.MarshalPolicy(orig)
	require.NoError(t, err)
	back, err := f.ParsePolicy(doc)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

func TestPresets(t *testing.T) {
	ps := factory.Presets()
	require.Len(t, ps, 3)
	for i := 1; i < len(ps); i++ {
		assert.True(t, ps[i-1].EffectiveFrom.Before(ps[i].EffectiveFrom))
	}

	assert.Equal(t, "kr-2024", factory.PresetFor(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)).ID)
	assert.Equal(t, "kr-2025", factory.PresetFor(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)).ID)
	assert.Equal(t, "kr-2026", factory.PresetFor(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).ID)

	p, ok := factory.PresetByID("kr-2025")
	require.True(t, ok)
	assert.Equal(t, wage.Won(10030), p.MinimumHourlyWage)

	_, ok = factory.PresetByID("kr-1999")
	assert.False(t, ok)
}
