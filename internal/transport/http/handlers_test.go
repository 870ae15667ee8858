package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/connector"
	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/internal/ingestion"
	"github.com/Raoof128/ILAE/internal/policy"
	"github.com/Raoof128/ILAE/internal/service"
	"github.com/Raoof128/ILAE/internal/state"
	"github.com/Raoof128/ILAE/internal/workflow"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	store  *state.Store
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	resolver, err := policy.NewResolverFromConfig(policy.AccessMatrix{
		Departments: map[string]policy.ProfileConfig{
			"Engineering": {GitHubTeams: []string{"engineers"}},
		},
	}, policy.RoleMappings{}, logger)
	s.Require().NoError(err)

	s.store = state.NewStore(ctx, nil, logger)
	trail := audit.NewTrail(audit.NewInMemoryStore(), logger)
	deps := workflow.Deps{
		Policy:   resolver,
		State:    s.store,
		Executor: workflow.NewStepExecutor(connector.NewSimulatedRegistry(), logger, nil),
		Audit:    trail,
		Logger:   logger,
	}
	svc := service.New(deps, nil, logger, nil)

	handler := NewHandler(svc, nil, s.store, trail, ingestion.NewRegistry(logger), logger)
	s.router = NewRouter(handler, nil)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const hireBody = `{
  "event": "NEW_STARTER",
  "employee_id": "EMP001",
  "name": "Ada Wong",
  "email": "ada.wong@company.com",
  "department": "Engineering",
  "title": "Engineer"
}`

// TestSubmitEvent verifies the inline execution path and its error
// translation.
func (s *HandlerSuite) TestSubmitEvent() {
	s.Run("valid event executes and returns the result", func() {
		rec := s.do(http.MethodPost, "/events", hireBody)
		s.Require().Equal(http.StatusOK, rec.Code)

		var result domain.WorkflowResult
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
		s.True(result.Success)
		s.NotEmpty(result.Steps)
	})

	s.Run("malformed json is a 400", func() {
		rec := s.do(http.MethodPost, "/events", "{nope")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid event is a 400 with an error envelope", func() {
		rec := s.do(http.MethodPost, "/events", `{"event":"NEW_STARTER","employee_id":"E"}`)
		s.Require().Equal(http.StatusBadRequest, rec.Code)

		var envelope map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
		s.Equal("invalid_input", envelope["error"])
	})

	s.Run("unknown event kind is a 400", func() {
		rec := s.do(http.MethodPost, "/events",
			`{"event":"PIZZA_PARTY","employee_id":"E","name":"N","email":"e@c.com","department":"D"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// TestUserEndpoints verifies lookups, listing with filters, and the
// summary.
func (s *HandlerSuite) TestUserEndpoints() {
	rec := s.do(http.MethodPost, "/events", hireBody)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.Run("get known user", func() {
		rec := s.do(http.MethodGet, "/users/EMP001", "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var identity domain.Identity
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &identity))
		s.Equal("Ada Wong", identity.Name)
		s.Len(identity.Entitlements, 1)
	})

	s.Run("unknown user is a 404", func() {
		rec := s.do(http.MethodGet, "/users/GHOST", "")
		s.Require().Equal(http.StatusNotFound, rec.Code)

		var envelope map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
		s.Equal("not_found", envelope["error"])
	})

	s.Run("list filters by department", func() {
		rec := s.do(http.MethodGet, "/users?department=Engineering", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var identities []domain.Identity
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &identities))
		s.Len(identities, 1)

		rec = s.do(http.MethodGet, "/users?department=Sales", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &identities))
		s.Empty(identities)
	})

	s.Run("summary aggregates", func() {
		rec := s.do(http.MethodGet, "/users/summary", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var summary state.Summary
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &summary))
		s.Equal(1, summary.TotalUsers)
	})
}

// TestAuditEndpoints verifies the trail query and the compliance report.
func (s *HandlerSuite) TestAuditEndpoints() {
	rec := s.do(http.MethodPost, "/events", hireBody)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.Run("audit records for the employee", func() {
		rec := s.do(http.MethodGet, "/audit?employee_id=EMP001", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var records []domain.AuditRecord
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &records))
		s.NotEmpty(records)
	})

	s.Run("bad time bound is a 400", func() {
		rec := s.do(http.MethodGet, "/audit?start=yesterday", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("compliance report over a clean period", func() {
		rec := s.do(http.MethodGet, "/audit/compliance-report?frameworks=SOC2,ISO27001", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var report audit.ComplianceReport
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &report))
		s.Equal(100.0, report.ComplianceScore)
		s.Equal([]string{"SOC2", "ISO27001"}, report.Frameworks)
	})
}

// TestImportEndpoint verifies raw payload detection and batch execution.
func (s *HandlerSuite) TestImportEndpoint() {
	csvBody := "Employee ID,Full Name,Email,Department,Event Type\n" +
		"EMP200,Bulk One,bulk.one@company.com,Engineering,NEW_STARTER\n" +
		"EMP201,Bulk Two,bulk.two@company.com,Engineering,NEW_STARTER\n"

	rec := s.do(http.MethodPost, "/events/import", csvBody)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		SourceSystem string                  `json:"source_system"`
		Parsed       int                     `json:"parsed"`
		Results      []domain.WorkflowResult `json:"results"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("CSV", resp.SourceSystem)
	s.Equal(2, resp.Parsed)
	s.Len(resp.Results, 2)

	_, err := s.store.Get(context.Background(), "EMP200")
	s.NoError(err)

	s.Run("unrecognized payload is a 400", func() {
		rec := s.do(http.MethodPost, "/events/import", `{"mystery":"payload"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// TestHealth verifies the liveness endpoint.
func (s *HandlerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "healthy")
}
