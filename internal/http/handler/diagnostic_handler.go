package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/mapper"
	"github.com/straye-as/preflight/internal/service"
	"go.uber.org/zap"
)

type DiagnosticHandler struct {
	diagnosticService *service.DiagnosticService
	runTimeout        time.Duration
	logger            *zap.Logger
}

func NewDiagnosticHandler(diagnosticService *service.DiagnosticService, runTimeout time.Duration, logger *zap.Logger) *DiagnosticHandler {
	return &DiagnosticHandler{
		diagnosticService: diagnosticService,
		runTimeout:        runTimeout,
		logger:            logger,
	}
}

// TriggerRun godoc
// @Summary Trigger a diagnostic run
// @Description Runs the connectivity stages in order (storage, database, warehouse when enabled) and returns the outcome.
// @Description The response is 200 whether the diagnosis passed or failed; a failing stage is reported in the payload,
// @Description with result set to the stage error and failedStage naming the stage that broke the sequence.
// @Tags Runs
// @Accept json
// @Produce json
// @Param request body domain.TriggerRunRequest false "Optional run metadata"
// @Success 200 {object} domain.RunDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /runs [post]
func (h *DiagnosticHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	// Body is optional; an empty body means a run without notes
	var req domain.TriggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	run, err := h.diagnosticService.Execute(ctx, domain.TriggerAPI, req.Notes)
	if err != nil {
		// The run itself carries the failure, so this is not an HTTP error
		h.logger.Warn("diagnostic run finished with failure", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, mapper.ToRunDTO(run))
}

// ListRuns godoc
// @Summary List diagnostic runs
// @Description Get a page of recorded runs, newest first
// @Tags Runs
// @Produce json
// @Param limit query int false "Page size (max 200)" default(20)
// @Param offset query int false "Offset into the result set" default(0)
// @Param status query string false "Filter by run status" Enums(succeeded, failed)
// @Success 200 {object} domain.RunListResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse "Run history is not enabled"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /runs [get]
func (h *DiagnosticHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	result, err := h.diagnosticService.ListRuns(r.Context(), limit, offset, status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrHistoryDisabled) {
			h.respondHistoryDisabled(w)
			return
		}
		h.logger.Error("failed to list runs", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list runs",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRun godoc
// @Summary Get run by ID
// @Tags Runs
// @Produce json
// @Param id path string true "Run ID" format(uuid)
// @Success 200 {object} domain.RunDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse "Run history is not enabled"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /runs/{id} [get]
func (h *DiagnosticHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid run ID format",
		})
		return
	}

	run, err := h.diagnosticService.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Run not found",
			})
			return
		}
		if errors.Is(err, service.ErrHistoryDisabled) {
			h.respondHistoryDisabled(w)
			return
		}
		h.logger.Error("failed to get run", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get run",
		})
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// GetLatestRun godoc
// @Summary Get the most recent run
// @Tags Runs
// @Produce json
// @Success 200 {object} domain.RunDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "No runs recorded yet"
// @Failure 503 {object} domain.ErrorResponse "Run history is not enabled"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /runs/latest [get]
func (h *DiagnosticHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.diagnosticService.LatestRun(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "No runs recorded yet",
			})
			return
		}
		if errors.Is(err, service.ErrHistoryDisabled) {
			h.respondHistoryDisabled(w)
			return
		}
		h.logger.Error("failed to get latest run", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get latest run",
		})
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (h *DiagnosticHandler) respondHistoryDisabled(w http.ResponseWriter) {
	respondJSON(w, http.StatusServiceUnavailable, domain.ErrorResponse{
		Error:   "Service Unavailable",
		Message: "Run history is not enabled on this deployment",
	})
}
