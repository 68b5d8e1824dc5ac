/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO:     Response types returned to clients

  Calculation results (wage.WeeklyHolidayPayResult, wage.WageBreakdown,
  wage.Estimate, wage.MinimumWageCheck) are returned as-is; their JSON tags
  are the API contract.

VALIDATION:
  Validation is done by the wage package, not in DTOs. DTOs are pure data
  carriers.
*/
package api

import (
	"time"

	"github.com/warp/wage-engine/contract"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// CALCULATION REQUESTS
// =============================================================================

// WorkTimeRequest is the body of POST /api/wages/work-time.
type WorkTimeRequest struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

// WorkTimeDTO is the parsed shift length.
type WorkTimeDTO struct {
	Hours float64 `json:"hours"`
}

// ScheduleRequest is the body of the weekly and monthly endpoints.
type ScheduleRequest struct {
	HourlyWage      wage.Won `json:"hourly_wage"`
	WorkDaysPerWeek float64  `json:"work_days_per_week"`
	DailyWorkHours  float64  `json:"daily_work_hours"`
	WeeksPerMonth   float64  `json:"weeks_per_month,omitempty"`
}

// MinimumWageRequest is the body of POST /api/wages/minimum-wage.
type MinimumWageRequest struct {
	HourlyWage wage.Won `json:"hourly_wage"`
}

// =============================================================================
// RECORDED CALCULATIONS
// =============================================================================

// CalculationRequest records a calculation for a contract.
type CalculationRequest struct {
	ContractID     string             `json:"contract_id"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	Input          wage.EstimateInput `json:"input"`
}

// BatchCalculationRequest records several calculations at once.
type BatchCalculationRequest struct {
	Calculations []CalculationRequest `json:"calculations"`
}

// CalculationDTO represents a recorded calculation.
type CalculationDTO struct {
	ID             string             `json:"id"`
	ContractID     string             `json:"contract_id"`
	PolicyID       string             `json:"policy_id"`
	PolicyVersion  int                `json:"policy_version"`
	Input          wage.EstimateInput `json:"input"`
	Result         wage.Estimate      `json:"result"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	CreatedAt      string             `json:"created_at"`
	StatementURL   string             `json:"statement_url"`
}

func toCalculationDTO(r contract.Record) CalculationDTO {
	return CalculationDTO{
		ID:             r.ID,
		ContractID:     r.ContractID,
		PolicyID:       r.PolicyID,
		PolicyVersion:  r.PolicyVersion,
		Input:          r.Input,
		Result:         r.Result,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		StatementURL:   "/api/calculations/" + r.ID + "/statement.pdf",
	}
}

// =============================================================================
// POLICIES
// =============================================================================

// PolicyDTO represents a policy in API responses.
type PolicyDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Version   int                `json:"version"`
	Config    factory.PolicyJSON `json:"config"`
	CreatedAt string             `json:"created_at,omitempty"`
}

func toPolicyDTO(p wage.Policy, createdAt time.Time) PolicyDTO {
	dto := PolicyDTO{
		ID:      p.ID,
		Name:    p.Name,
		Version: p.Version,
		Config:  factory.ToJSON(p),
	}
	if !createdAt.IsZero() {
		dto.CreatedAt = createdAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a canned example.
type ScenarioDTO struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Input       wage.EstimateInput `json:"input"`
}

// ScenarioResultDTO is a scenario with its computed estimate.
type ScenarioResultDTO struct {
	ScenarioDTO
	Estimate wage.Estimate `json:"estimate"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
