// Package service hosts workflow execution: it validates incoming events,
// drops duplicate deliveries, serializes runs per employee, and hands each
// event to the right workflow variant.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/platform/metrics"
	"github.com/Raoof128/ILAE/internal/workflow"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// Service is the single entry point the transport and job layers call to
// process an HR event.
type Service struct {
	deps     workflow.Deps
	validate *validator.Validate
	dedupe   DedupeStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a service. dedupe may be nil to disable duplicate detection.
func New(deps workflow.Deps, dedupe DedupeStore, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		validate: validator.New(),
		dedupe:   dedupe,
		logger:   logger,
		metrics:  m,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ProcessEvent validates, dedupes, and executes the workflow for one event.
//
// The error return carries validation failures, unknown event kinds, and
// duplicate deliveries; once a workflow starts, its failures live inside
// the returned result, never in the error.
func (s *Service) ProcessEvent(ctx context.Context, event domain.HREvent) (domain.WorkflowResult, error) {
	if err := s.ValidateEvent(event); err != nil {
		return domain.WorkflowResult{}, err
	}

	if s.dedupe != nil {
		fresh, err := s.dedupe.FirstDelivery(ctx, Fingerprint(event))
		if err != nil {
			// A broken dedupe backend must not block provisioning; log and
			// continue as if the event were fresh.
			s.logger.Warn("dedupe check failed, processing anyway", "error", err)
		} else if !fresh {
			if s.metrics != nil {
				s.metrics.EventsDeduped.Inc()
			}
			s.logger.Info("dropping duplicate event delivery",
				"employee_id", event.EmployeeID, "kind", event.Kind)
			return domain.WorkflowResult{}, jmlerrors.New(jmlerrors.CodeInvalidInput,
				"duplicate event delivery")
		}
	}

	engine, err := workflow.ForEvent(event.Kind, s.deps)
	if err != nil {
		return domain.WorkflowResult{}, err
	}

	// The core defines no locking around state mutation for the same
	// employee; serializing here is the hosting-service obligation.
	unlock := s.lockEmployee(event.EmployeeID)
	defer unlock()

	return engine.Execute(ctx, event)
}

// ValidateEvent checks an event for completeness before it reaches the core.
func (s *Service) ValidateEvent(event domain.HREvent) error {
	if !event.Kind.IsValid() {
		return jmlerrors.Newf(jmlerrors.CodeInvalidInput, "unknown event kind: %s", event.Kind)
	}
	if err := s.validate.Struct(event); err != nil {
		return jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "invalid HR event")
	}
	switch event.Kind {
	case domain.EventRoleChange, domain.EventDepartmentChange:
		if event.PreviousDepartment == "" && event.PreviousTitle == "" {
			return jmlerrors.New(jmlerrors.CodeInvalidInput,
				"previous department or title required for mover events")
		}
	}
	return nil
}

// lockEmployee acquires the per-employee mutex, creating it on first use.
func (s *Service) lockEmployee(employeeID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[employeeID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
