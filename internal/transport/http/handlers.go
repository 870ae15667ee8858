// Package httptransport is the thin HTTP layer over the lifecycle service.
// Handlers delegate to domain services without embedding business logic so
// transport concerns remain isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/ingestion"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
	"github.com/Raoof128/ILAE/pkg/sentinel"
)

// EventService executes a validated HR event.
type EventService interface {
	ProcessEvent(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error)
	ValidateEvent(event domain.HREvent) error
}

// Enqueuer queues an event for background execution instead of running it
// inline. Optional; nil means all events execute inline.
type Enqueuer interface {
	EnqueueEvent(ctx context.Context, event domain.HREvent) error
}

// Handler serves the lifecycle API.
type Handler struct {
	service   EventService
	enqueuer  Enqueuer
	store     *state.Store
	trail     *audit.Trail
	ingestion *ingestion.Registry
	logger    *slog.Logger
}

func NewHandler(service EventService, enqueuer Enqueuer, store *state.Store,
	trail *audit.Trail, reg *ingestion.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		enqueuer:  enqueuer,
		store:     store,
		trail:     trail,
		ingestion: reg,
		logger:    logger,
	}
}

// Register mounts the lifecycle routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.handleSubmitEvent)
	r.Post("/events/import", h.handleImportEvents)
	r.Get("/users", h.handleListUsers)
	r.Get("/users/summary", h.handleUserSummary)
	r.Get("/users/{employeeID}", h.handleGetUser)
	r.Get("/audit", h.handleAuditList)
	r.Get("/audit/compliance-report", h.handleComplianceReport)
}

// handleSubmitEvent accepts a normalized HR event. With a queue configured
// the event is validated, enqueued, and acknowledged with 202; otherwise the
// workflow runs inline and the full result comes back.
func (h *Handler) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.HREvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SourceSystem == "" {
		event.SourceSystem = "API"
	}

	if h.enqueuer != nil {
		if err := h.service.ValidateEvent(event); err != nil {
			writeError(w, err)
			return
		}
		if err := h.enqueuer.EnqueueEvent(r.Context(), event); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":      "accepted",
			"employee_id": event.EmployeeID,
			"event":       event.Kind.String(),
		})
		return
	}

	result, err := h.service.ProcessEvent(r.Context(), event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// importResponse reports what a raw HR payload produced.
type importResponse struct {
	SourceSystem string                  `json:"source_system"`
	Parsed       int                     `json:"parsed"`
	Results      []domain.WorkflowResult `json:"results"`
	Skipped      []string                `json:"skipped,omitempty"`
}

// handleImportEvents accepts a raw payload in any supported HR format
// (Workday, BambooHR, CSV), detects the format, and runs every parsed event.
// Events that fail validation are skipped and reported, not fatal.
func (h *Handler) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		writeError(w, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "read request body"))
		return
	}

	parser, err := h.ingestion.Detect(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := parser.Parse(payload)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := importResponse{SourceSystem: parser.Name(), Parsed: len(events)}
	for _, event := range events {
		result, err := h.service.ProcessEvent(r.Context(), event)
		if err != nil {
			resp.Skipped = append(resp.Skipped, event.EmployeeID+": "+err.Error())
			continue
		}
		resp.Results = append(resp.Results, result)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	identity, err := h.store.Get(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = jmlerrors.Wrap(err, jmlerrors.CodeNotFound, "no identity for employee "+employeeID)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	identities := h.store.ListAll(r.Context())

	department := r.URL.Query().Get("department")
	status := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", 100)

	filtered := make([]domain.Identity, 0, len(identities))
	for _, identity := range identities {
		if department != "" && !strings.EqualFold(identity.Department, department) {
			continue
		}
		if status != "" && !strings.EqualFold(identity.Status.String(), status) {
			continue
		}
		filtered = append(filtered, identity)
		if len(filtered) >= limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (h *Handler) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Summary(r.Context()))
}

func (h *Handler) handleAuditList(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Limit:      queryInt(r, "limit", 100),
	}
	var err error
	if filter.Start, err = queryTime(r, "start"); err != nil {
		writeError(w, err)
		return
	}
	if filter.End, err = queryTime(r, "end"); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.trail.GetEvents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	end, err := queryTime(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	start, err := queryTime(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}

	var frameworks []string
	if raw := r.URL.Query().Get("frameworks"); raw != "" {
		frameworks = strings.Split(raw, ",")
	}

	report, err := h.trail.ComplianceReport(r.Context(), start, end, frameworks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, jmlerrors.Newf(jmlerrors.CodeInvalidInput,
			"%s must be RFC 3339: %s", key, raw)
	}
	return t.UTC(), nil
}
