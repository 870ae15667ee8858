package audit

import (
	"context"
	"time"
)

// ComplianceReport summarizes audit activity over a period against a set of
// named frameworks (ISO 27001, SOC 2, and so on; the frameworks are labels,
// not rule engines).
type ComplianceReport struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	Frameworks      []string  `json:"frameworks"`
	TotalEvents     int       `json:"total_events"`
	Successful      int       `json:"successful_operations"`
	Failed          int       `json:"failed_operations"`
	ComplianceScore float64   `json:"compliance_score"`
	Recommendations []string  `json:"recommendations"`
}

// failedOpsRecommendation is appended whenever the period saw any failure.
const failedOpsRecommendation = "Investigate failed IAM operations"

// ComplianceReport counts events in the period and computes the score as
// successful/total*100, with an empty period scoring 100.
func (t *Trail) ComplianceReport(ctx context.Context, start, end time.Time, frameworks []string) (ComplianceReport, error) {
	events, err := t.store.List(ctx, Filter{Start: start, End: end})
	if err != nil {
		return ComplianceReport{}, err
	}

	report := ComplianceReport{
		PeriodStart: start,
		PeriodEnd:   end,
		Frameworks:  frameworks,
		TotalEvents: len(events),
	}
	for _, event := range events {
		if event.Success {
			report.Successful++
		} else {
			report.Failed++
		}
	}
	if report.TotalEvents == 0 {
		report.ComplianceScore = 100
	} else {
		report.ComplianceScore = float64(report.Successful) / float64(report.TotalEvents) * 100
	}
	if report.Failed > 0 {
		report.Recommendations = append(report.Recommendations, failedOpsRecommendation)
	}
	return report, nil
}
