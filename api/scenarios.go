/*
scenarios.go - Worked examples of common working patterns

PURPOSE:
  Canned shifts that show how the rules play out: a full-time job, a
  part-time job just over the eligibility threshold, one just under it, an
  overnight shift and a long-hours job where holiday hours hit the cap.
  Each scenario is computed under the active policy on request, so the
  numbers follow policy changes. The hourly wage is the active policy's
  minimum wage, or 10,030 KRW when the policy has none.

AVAILABLE SCENARIOS:
  full-time:    09:00-18:00, 1h break, 5 days  (40h/week, full holiday pay)
  part-time:    10:00-16:00, 30m break, 3 days (16.5h/week, eligible)
  short-hours:  18:00-22:00, no break, 3 days  (12h/week, not eligible)
  overnight:    22:00-06:00, 1h break, 5 days  (crosses midnight)
  capped:       08:00-20:00, 1h break, 5 days  (55h/week, capped at 8h)

USAGE VIA API:
  GET /api/scenarios
  GET /api/scenarios/part-time

SEE ALSO:
  - handlers.go: shared helpers
  - wage/service.go: Estimate
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/wage-engine/wage"
)

// scenarioWage is used when the active policy sets no minimum wage.
// Otherwise scenarios run at that policy's minimum.
const scenarioWage wage.Won = 10030

var scenarios = []ScenarioDTO{
	{
		Name:        "full-time",
		Title:       "Full-time office job",
		Description: "Eight paid hours a day, five days a week",
		Input:       wage.EstimateInput{HourlyWage: scenarioWage, StartTime: "09:00", EndTime: "18:00", BreakMinutes: 60, WorkDaysPerWeek: 5},
	},
	{
		Name:        "part-time",
		Title:       "Part-time, just eligible",
		Description: "16.5 hours a week, over the 15 hour threshold",
		Input:       wage.EstimateInput{HourlyWage: scenarioWage, StartTime: "10:00", EndTime: "16:00", BreakMinutes: 30, WorkDaysPerWeek: 3},
	},
	{
		Name:        "short-hours",
		Title:       "Evening job, not eligible",
		Description: "12 hours a week, under the threshold, so no weekly holiday pay",
		Input:       wage.EstimateInput{HourlyWage: scenarioWage, StartTime: "18:00", EndTime: "22:00", WorkDaysPerWeek: 3},
	},
	{
		Name:        "overnight",
		Title:       "Overnight shift",
		Description: "Shift crossing midnight with a one hour break",
		Input:       wage.EstimateInput{HourlyWage: scenarioWage, StartTime: "22:00", EndTime: "06:00", BreakMinutes: 60, WorkDaysPerWeek: 5},
	},
	{
		Name:        "capped",
		Title:       "Long hours",
		Description: "55 hours a week; paid rest hours stop growing at 8",
		Input:       wage.EstimateInput{HourlyWage: scenarioWage, StartTime: "08:00", EndTime: "20:00", BreakMinutes: 60, WorkDaysPerWeek: 5},
	},
}

// ListScenarios returns the available scenarios without results.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// RunScenario computes one scenario under the active policy.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var found *ScenarioDTO
	for i := range scenarios {
		if scenarios[i].Name == name {
			found = &scenarios[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "unknown scenario: "+name, nil)
		return
	}

	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	sc := *found
	if minimum := svc.Policy().MinimumHourlyWage; minimum > 0 {
		sc.Input.HourlyWage = minimum
	}
	est, err := svc.Estimate(sc.Input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioResultDTO{ScenarioDTO: sc, Estimate: est})
}
