package ingestion

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// BambooHRParser handles BambooHR webhook payloads.
type BambooHRParser struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewBambooHRParser(logger *slog.Logger) *BambooHRParser {
	return &BambooHRParser{logger: logger, now: time.Now}
}

func (p *BambooHRParser) Name() string { return "BambooHR" }

type bambooEvent struct {
	EmployeeID    json.Number `json:"employeeId"`
	Action        string      `json:"action"`
	ChangedFields []string    `json:"changedFields"`
	Employee      struct {
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		WorkEmail       string `json:"workEmail"`
		Department      string `json:"department"`
		JobTitle        string `json:"jobTitle"`
		HireDate        string `json:"hireDate"`
		TerminationDate string `json:"terminationDate"`
		Location        string `json:"location"`
		SupervisorEmail string `json:"supervisorEmail"`
		EmployeeType    string `json:"employeeType"`
	} `json:"employee"`
}

func (p *BambooHRParser) CanParse(payload []byte) bool {
	probe := firstObject(payload)
	if probe == nil {
		return false
	}
	for _, indicator := range []string{"employeeId", "action", "changedFields", "employee", "webhook"} {
		if _, ok := probe[indicator]; ok {
			return true
		}
	}
	return false
}

func (p *BambooHRParser) Parse(payload []byte) ([]domain.HREvent, error) {
	var batch []bambooEvent
	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("[")) {
		if err := json.Unmarshal(payload, &batch); err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "malformed BambooHR payload")
		}
	} else {
		var single bambooEvent
		if err := json.Unmarshal(payload, &single); err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "malformed BambooHR payload")
		}
		batch = []bambooEvent{single}
	}

	events := make([]domain.HREvent, 0, len(batch))
	for _, raw := range batch {
		employeeID := raw.EmployeeID.String()
		if employeeID == "" {
			p.logger.Warn("skipping BambooHR event without employee id")
			continue
		}
		name := strings.TrimSpace(raw.Employee.FirstName + " " + raw.Employee.LastName)
		if name == "" || raw.Employee.WorkEmail == "" {
			p.logger.Warn("skipping BambooHR event missing name or email", "employee_id", employeeID)
			continue
		}

		contractType := domain.DefaultContractType
		if raw.Employee.EmployeeType == "Contractor" {
			contractType = "CONTRACTOR"
		}

		ts := raw.Employee.HireDate
		kind := bambooActionKind(raw.Action, raw.ChangedFields)
		if kind == domain.EventTermination {
			ts = raw.Employee.TerminationDate
		}

		events = append(events, domain.HREvent{
			Kind:         kind,
			EmployeeID:   employeeID,
			Name:         name,
			Email:        raw.Employee.WorkEmail,
			Department:   raw.Employee.Department,
			Title:        raw.Employee.JobTitle,
			ManagerEmail: raw.Employee.SupervisorEmail,
			Location:     raw.Employee.Location,
			ContractType: contractType,
			Timestamp:    parseTimestamp(ts, p.now),
			SourceSystem: p.Name(),
		})
	}
	return events, nil
}

// bambooActionKind maps BambooHR action strings onto lifecycle kinds. A bare
// "updated" with a department change is a transfer; otherwise updates are
// treated as role changes.
func bambooActionKind(action string, changedFields []string) domain.EventKind {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "hired", "hire", "rehired":
		return domain.EventNewStarter
	case "terminated", "termination":
		return domain.EventTermination
	case "transfer":
		return domain.EventDepartmentChange
	case "updated", "changed", "promotion":
		for _, f := range changedFields {
			if strings.EqualFold(f, "department") {
				return domain.EventDepartmentChange
			}
		}
		return domain.EventRoleChange
	default:
		return domain.EventNewStarter
	}
}
