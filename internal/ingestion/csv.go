package ingestion

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

// CSVParser handles exports from HR systems that only speak spreadsheets.
// Column headers vary by system, so each field accepts several aliases.
type CSVParser struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewCSVParser(logger *slog.Logger) *CSVParser {
	return &CSVParser{logger: logger, now: time.Now}
}

func (p *CSVParser) Name() string { return "CSV" }

// columnAliases lists accepted header names per field, lowercase. First
// matching header wins.
var columnAliases = map[string][]string{
	"employee_id":         {"employee id", "employee_id", "emp id", "id"},
	"name":                {"full name", "name", "employee name"},
	"email":               {"email", "email address", "work email"},
	"department":          {"department", "dept", "business unit"},
	"title":               {"job title", "title", "position", "role"},
	"event_type":          {"event type", "event", "action", "type"},
	"start_date":          {"start date", "hire date", "join date", "start_date"},
	"manager_email":       {"manager email", "manager", "supervisor email", "manager_email"},
	"location":            {"location", "office", "site"},
	"contract_type":       {"contract type", "employment type", "contract_type"},
	"previous_department": {"previous department", "old department", "previous_department"},
	"previous_title":      {"previous title", "old title", "previous_title"},
}

func (p *CSVParser) CanParse(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return false
	}
	return bytes.ContainsRune(trimmed, ',') && bytes.ContainsRune(trimmed, '\n')
}

func (p *CSVParser) Parse(payload []byte) ([]domain.HREvent, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "unreadable CSV header")
	}
	columns := resolveColumns(header)

	var events []domain.HREvent
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, jmlerrors.Wrap(err, jmlerrors.CodeInvalidInput, "malformed CSV row")
		}

		get := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		employeeID := get("employee_id")
		if employeeID == "" {
			p.logger.Warn("skipping CSV row without employee id")
			continue
		}
		name, email := get("name"), get("email")
		if name == "" || email == "" {
			p.logger.Warn("skipping CSV row missing name or email", "employee_id", employeeID)
			continue
		}

		contractType := get("contract_type")
		if contractType == "" {
			contractType = domain.DefaultContractType
		}

		events = append(events, domain.HREvent{
			Kind:               normalizeEventKind(get("event_type")),
			EmployeeID:         employeeID,
			Name:               name,
			Email:              email,
			Department:         get("department"),
			Title:              get("title"),
			ManagerEmail:       get("manager_email"),
			Location:           get("location"),
			ContractType:       contractType,
			PreviousDepartment: get("previous_department"),
			PreviousTitle:      get("previous_title"),
			Timestamp:          parseTimestamp(get("start_date"), p.now),
			SourceSystem:       p.Name(),
		})
	}
	return events, nil
}

// resolveColumns maps internal field names to header positions.
func resolveColumns(header []string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}
	columns := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := positions[alias]; ok {
				columns[field] = idx
				break
			}
		}
	}
	return columns
}
