package ingestion

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// WorkdayParser handles Workday business-process webhook payloads, which
// arrive as a single JSON object or an array of them.
type WorkdayParser struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewWorkdayParser(logger *slog.Logger) *WorkdayParser {
	return &WorkdayParser{logger: logger, now: time.Now}
}

func (p *WorkdayParser) Name() string { return "Workday" }

type workdayEvent struct {
	WorkerID            string `json:"Worker_ID"`
	EmployeeID          string `json:"Employee_ID"`
	BusinessProcessType string `json:"Business_Process_Type"`
	EventType           string `json:"Event_Type"`
	Worker              struct {
		LegalName string `json:"Legal_Name"`
		Email     string `json:"Email"`
	} `json:"Worker"`
	EmploymentData struct {
		Position struct {
			JobTitle   string `json:"Job_Title"`
			Department string `json:"Department"`
		} `json:"Position"`
		StartDate      string `json:"Start_Date"`
		Manager        string `json:"Manager"`
		Location       string `json:"Location"`
		EmploymentType string `json:"Employment_Type"`
	} `json:"Employment_Data"`
}

// CanParse probes for Workday's field vocabulary on the first object.
func (p *WorkdayParser) CanParse(payload []byte) bool {
	probe := firstObject(payload)
	if probe == nil {
		return false
	}
	for _, indicator := range []string{
		"Worker_ID", "Employee_ID", "Business_Process_Type",
		"Event_Type", "Worker", "Employment_Data",
	} {
		if _, ok := probe[indicator]; ok {
			return true
		}
	}
	return false
}

func (p *WorkdayParser) Parse(payload []byte) ([]domain.HREvent, error) {
	var batch []workdayEvent
	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("[")) {
		if err := json.Unmarshal(payload, &batch); err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "malformed Workday payload")
		}
	} else {
		var single workdayEvent
		if err := json.Unmarshal(payload, &single); err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "malformed Workday payload")
		}
		batch = []workdayEvent{single}
	}

	events := make([]domain.HREvent, 0, len(batch))
	for _, raw := range batch {
		employeeID := raw.EmployeeID
		if employeeID == "" {
			employeeID = raw.WorkerID
		}
		if employeeID == "" {
			p.logger.Warn("skipping Workday event without employee id")
			continue
		}

		kindLabel := raw.EventType
		if kindLabel == "" {
			kindLabel = raw.BusinessProcessType
		}
		contractType := raw.EmploymentData.EmploymentType
		if contractType == "" {
			contractType = domain.DefaultContractType
		}

		events = append(events, domain.HREvent{
			Kind:         normalizeEventKind(kindLabel),
			EmployeeID:   employeeID,
			Name:         raw.Worker.LegalName,
			Email:        raw.Worker.Email,
			Department:   raw.EmploymentData.Position.Department,
			Title:        raw.EmploymentData.Position.JobTitle,
			ManagerEmail: raw.EmploymentData.Manager,
			Location:     raw.EmploymentData.Location,
			ContractType: contractType,
			Timestamp:    parseTimestamp(raw.EmploymentData.StartDate, p.now),
			SourceSystem: p.Name(),
		})
	}
	return events, nil
}

// firstObject decodes the payload far enough to inspect top-level keys.
// Arrays contribute their first element.
func firstObject(payload []byte) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var arr []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil || len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil
	}
	return obj
}
