/*
handlers.go - HTTP API handlers for the wage engine

PURPOSE:
  Exposes the wage calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Calculations (stateless, active policy):
    POST   /api/wages/work-time            Paid hours of one shift
    POST   /api/wages/weekly-holiday-pay   Weekly holiday pay
    POST   /api/wages/monthly              Monthly wage breakdown
    POST   /api/wages/estimate             Shift to monthly estimate
    POST   /api/wages/minimum-wage         Minimum wage check

  Policies:
    GET    /api/policies                   List stored policies
    POST   /api/policies                   Store a new policy version
    GET    /api/policies/active            Policy new calculations use
    POST   /api/policies/presets           Store missing statutory presets
    GET    /api/policies/{id}              Latest (or ?version=N) policy

  Recorded calculations:
    POST   /api/calculations               Record one calculation
    POST   /api/calculations/batch         Record several atomically
    GET    /api/calculations/{id}          Get a recorded calculation
    GET    /api/calculations/{id}/statement.pdf  PDF wage statement
    GET    /api/contracts/{id}/calculations      History of a contract

ERROR MAPPING:
  contract.ErrPolicyUnavailable           500 (logged)
  wage.ErrParse, wage.ErrInvalidInput     400
  contract.ErrContractRequired            400
  contract.ErrNotFound                    404
  contract.ErrDuplicateIdempotencyKey     409
  anything else                           500 (logged)

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/wage-engine/contract"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/statement"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
	"go.uber.org/zap"
)

const (
	maxBodyBytes        = 1 << 20
	defaultMaxBatchSize = 100
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	PolicyFactory *factory.PolicyFactory
	Policies      *ActivePolicy
	Calculations  *contract.Service
	Logger        *zap.Logger
	MaxBatchSize  int
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, policies *ActivePolicy, logger *zap.Logger) *Handler {
	return &Handler{
		Store:         store,
		PolicyFactory: factory.NewPolicyFactory(),
		Policies:      policies,
		Calculations:  contract.NewService(store, policies),
		Logger:        logger,
		MaxBatchSize:  defaultMaxBatchSize,
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// STATELESS CALCULATIONS
// =============================================================================

// WorkTime returns the paid hours of one shift.
func (h *Handler) WorkTime(w http.ResponseWriter, r *http.Request) {
	var req WorkTimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	hours, err := svc.WorkTime(req.StartTime, req.EndTime, req.BreakMinutes)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WorkTimeDTO{Hours: hours})
}

// WeeklyHolidayPay computes weekly holiday pay.
func (h *Handler) WeeklyHolidayPay(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	result, err := svc.WeeklyHolidayPay(req.HourlyWage, req.WorkDaysPerWeek, req.DailyWorkHours)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MonthlyWage computes a monthly wage breakdown. Omitted weeks_per_month
// uses the policy value.
func (h *Handler) MonthlyWage(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	result, err := svc.MonthlyWageBreakdown(req.HourlyWage, req.WorkDaysPerWeek, req.DailyWorkHours, req.WeeksPerMonth)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Estimate runs the full shift-to-month pipeline without recording it.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req wage.EstimateInput
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	est, err := svc.Estimate(req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// MinimumWage checks an hourly wage against the active policy's minimum.
func (h *Handler) MinimumWage(w http.ResponseWriter, r *http.Request) {
	var req MinimumWageRequest
	if !h.decode(w, r, &req) {
		return
	}
	svc, ok := h.wageService(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.CheckMinimumWage(req.HourlyWage))
}

// =============================================================================
// POLICIES
// =============================================================================

// ListPolicies returns the latest version of every stored policy.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]PolicyDTO, 0, len(records))
	for _, rec := range records {
		p, err := h.Policies.fromRecord(rec)
		if err != nil {
			h.Logger.Warn("skipping unreadable policy", zap.String("policy_id", rec.ID), zap.Error(err))
			continue
		}
		dtos = append(dtos, toPolicyDTO(p, rec.CreatedAt))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy stores a policy document as a new version.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req factory.PolicyJSON
	if !h.decode(w, r, &req) {
		return
	}
	policy, err := h.PolicyFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid policy", err)
		return
	}

	version, err := SavePolicy(r.Context(), h.Store, policy)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	policy.Version = version
	h.reloadPolicies(r.Context())

	writeJSON(w, http.StatusCreated, toPolicyDTO(policy, h.now()))
}

// GetPolicy returns a stored policy, or a statutory preset that has not
// been stored.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		rec *sqlite.PolicyRecord
		err error
	)
	if v := r.URL.Query().Get("version"); v != "" {
		version, convErr := strconv.Atoi(v)
		if convErr != nil || version <= 0 {
			writeError(w, http.StatusBadRequest, "invalid version", convErr)
			return
		}
		rec, err = h.Store.GetPolicyVersion(r.Context(), id, version)
	} else {
		rec, err = h.Store.GetPolicy(r.Context(), id)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if rec == nil {
		if p, ok := factory.PresetByID(id); ok && r.URL.Query().Get("version") == "" {
			writeJSON(w, http.StatusOK, toPolicyDTO(p.WithDefaults(), time.Time{}))
			return
		}
		writeError(w, http.StatusNotFound, "policy not found", nil)
		return
	}

	p, err := h.Policies.fromRecord(*rec)
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("%w: %w", contract.ErrPolicyUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p, rec.CreatedAt))
}

// GetActivePolicy returns the policy new calculations use.
func (h *Handler) GetActivePolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.ActivePolicy(r.Context())
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("%w: %w", contract.ErrPolicyUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p, time.Time{}))
}

// InstallPresets stores the statutory presets that are missing.
func (h *Handler) InstallPresets(w http.ResponseWriter, r *http.Request) {
	added, err := SeedPresets(r.Context(), h.Store)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.reloadPolicies(r.Context())

	dtos := make([]PolicyDTO, 0, len(added))
	for _, p := range added {
		dtos = append(dtos, toPolicyDTO(p, h.now()))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) reloadPolicies(ctx context.Context) {
	if _, err := h.Policies.Reload(ctx); err != nil {
		h.Logger.Warn("failed to reload active policy", zap.Error(err))
	}
}

// =============================================================================
// RECORDED CALCULATIONS
// =============================================================================

// CreateCalculation records one calculation. The idempotency key may come
// from the body or the Idempotency-Key header.
func (h *Handler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	rec, err := h.Calculations.Calculate(r.Context(), toCalculateRequest(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCalculationDTO(rec))
}

// CreateCalculationBatch records several calculations in one transaction.
func (h *Handler) CreateCalculationBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCalculationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Calculations) == 0 {
		writeError(w, http.StatusBadRequest, "calculations must not be empty", nil)
		return
	}
	if limit := h.maxBatchSize(); len(req.Calculations) > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d calculations per batch", limit), nil)
		return
	}

	reqs := make([]contract.CalculateRequest, len(req.Calculations))
	for i, c := range req.Calculations {
		reqs[i] = toCalculateRequest(c)
	}

	recs, err := h.Calculations.CalculateBatch(r.Context(), reqs)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]CalculationDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toCalculationDTO(rec)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// GetCalculation returns one recorded calculation.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Calculations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(rec))
}

// GetStatement renders a recorded calculation as a PDF.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Calculations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := statement.Render(&buf, rec); err != nil {
		h.writeDomainError(w, r, fmt.Errorf("failed to render statement: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="statement-%s.pdf"`, rec.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListContractCalculations returns a contract's calculations, oldest first.
func (h *Handler) ListContractCalculations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Calculations.ListByContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]CalculationDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toCalculationDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func toCalculateRequest(c CalculationRequest) contract.CalculateRequest {
	return contract.CalculateRequest{
		ContractID:     c.ContractID,
		IdempotencyKey: c.IdempotencyKey,
		Input:          c.Input,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) wageService(w http.ResponseWriter, r *http.Request) (*wage.Service, bool) {
	p, err := h.Policies.ActivePolicy(r.Context())
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("%w: %w", contract.ErrPolicyUnavailable, err))
		return nil, false
	}
	svc, err := wage.NewService(p)
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("%w: policy %s v%d: %w", contract.ErrPolicyUnavailable, p.ID, p.Version, err))
		return nil, false
	}
	return svc, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) maxBatchSize() int {
	if h.MaxBatchSize > 0 {
		return h.MaxBatchSize
	}
	return defaultMaxBatchSize
}

func (h *Handler) now() time.Time {
	if h.Policies != nil && h.Policies.Now != nil {
		return h.Policies.Now()
	}
	return time.Now()
}

// writeDomainError maps an error from the domain packages to a status code.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contract.ErrPolicyUnavailable):
		h.Logger.Error("active policy unavailable",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "policy unavailable", nil)
	case wage.IsClientError(err), errors.Is(err, contract.ErrContractRequired):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, contract.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, contract.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "duplicate idempotency key", err)
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
