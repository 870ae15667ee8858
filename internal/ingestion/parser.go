// Package ingestion normalizes HR payloads from external systems into
// lifecycle events. Each source format implements Parser; Detect picks the
// parser that recognizes a payload so callers do not have to declare the
// source up front.
package ingestion

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// Parser turns one source format into normalized events.
type Parser interface {
	// Name identifies the source system recorded on parsed events.
	Name() string
	// CanParse reports whether the payload looks like this parser's format.
	CanParse(payload []byte) bool
	// Parse converts the payload into zero or more events. Rows missing
	// required fields are skipped with a warning, not errors.
	Parse(payload []byte) ([]domain.HREvent, error)
}

// Registry holds parsers in detection order.
type Registry struct {
	parsers []Parser
	logger  *slog.Logger
}

// NewRegistry builds a registry with the built-in parsers. Workday and
// BambooHR are probed before CSV because any comma-bearing text satisfies
// the CSV heuristic.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		parsers: []Parser{
			NewWorkdayParser(logger),
			NewBambooHRParser(logger),
			NewCSVParser(logger),
		},
		logger: logger,
	}
}

// Detect returns the first parser that recognizes the payload.
func (r *Registry) Detect(payload []byte) (Parser, error) {
	for _, p := range r.parsers {
		if p.CanParse(payload) {
			return p, nil
		}
	}
	return nil, jmlerrors.New(jmlerrors.CodeInvalidInput, "payload matches no known HR format")
}

// ParseAny detects the format and parses in one call.
func (r *Registry) ParseAny(payload []byte) ([]domain.HREvent, error) {
	p, err := r.Detect(payload)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("detected HR payload format", "parser", p.Name())
	return p.Parse(payload)
}

// eventKindAliases maps source-system vocabulary onto lifecycle event kinds.
var eventKindAliases = map[string]domain.EventKind{
	"HIRE":                   domain.EventNewStarter,
	"NEW HIRE":               domain.EventNewStarter,
	"EMPLOYEE HIRE":          domain.EventNewStarter,
	"EMPLOYEE_HIRE":          domain.EventNewStarter,
	"START":                  domain.EventNewStarter,
	"TERMINATE":              domain.EventTermination,
	"TERMINATED":             domain.EventTermination,
	"EMPLOYEE TERMINATION":   domain.EventTermination,
	"END EMPLOYMENT":         domain.EventTermination,
	"TRANSFER":               domain.EventDepartmentChange,
	"DEPARTMENT CHANGE":      domain.EventDepartmentChange,
	"PROMOTION":              domain.EventRoleChange,
	"JOB CHANGE":             domain.EventRoleChange,
	"ROLE CHANGE":            domain.EventRoleChange,
	"LOA":                    domain.EventLeaveOfAbsence,
	"LEAVE OF ABSENCE":       domain.EventLeaveOfAbsence,
	"RETURN FROM LEAVE":      domain.EventReturnFromLeave,
	"CONTRACT END":           domain.EventContractorOffboarding,
	"CONTRACTOR OFFBOARDING": domain.EventContractorOffboarding,
}

// normalizeEventKind maps a source event label to a lifecycle kind. Labels
// that resolve to nothing default to NEW_STARTER, matching how upstream
// systems report bare hire notifications.
func normalizeEventKind(raw string) domain.EventKind {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if kind, ok := eventKindAliases[trimmed]; ok {
		return kind
	}
	candidate := domain.EventKind(strings.ReplaceAll(trimmed, " ", "_"))
	if candidate.IsValid() {
		return candidate
	}
	return domain.EventNewStarter
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// parseTimestamp tries the date layouts HR exports actually use. Empty or
// unparseable strings fall back to now so events are never dropped over a
// date format.
func parseTimestamp(raw string, now func() time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now().UTC()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return now().UTC()
}
