package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Raoof128/ILAE/internal/app"
	"github.com/Raoof128/ILAE/internal/audit"
	"github.com/Raoof128/ILAE/internal/domain"
)

func runSubmit(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("submit")
	file := fs.String("file", "", "read the event from a JSON file instead of flags")
	kind := fs.String("event", "", "event kind (NEW_STARTER, ROLE_CHANGE, ...)")
	employeeID := fs.String("employee-id", "", "employee id")
	name := fs.String("name", "", "employee name")
	email := fs.String("email", "", "employee email")
	department := fs.String("department", "", "department")
	title := fs.String("title", "", "job title")
	contractType := fs.String("contract-type", "", "contract type (default PERMANENT)")
	prevDepartment := fs.String("previous-department", "", "previous department (mover events)")
	prevTitle := fs.String("previous-title", "", "previous title (mover events)")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var event domain.HREvent
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("parse event file: %w", err)
		}
	} else {
		parsed, err := domain.ParseEventKind(*kind)
		if err != nil {
			return err
		}
		event = domain.HREvent{
			Kind:               parsed,
			EmployeeID:         *employeeID,
			Name:               *name,
			Email:              *email,
			Department:         *department,
			Title:              *title,
			ContractType:       *contractType,
			PreviousDepartment: *prevDepartment,
			PreviousTitle:      *prevTitle,
		}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SourceSystem == "" {
		event.SourceSystem = "CLI"
	}

	result, err := a.Service.ProcessEvent(ctx, event)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(result)
	}
	printResult(result)
	return nil
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("import")
	asJSON := fs.Bool("json", false, "print full results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: jmlctl import [flags] <file>")
	}

	payload, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	parser, err := a.Ingestion.Detect(payload)
	if err != nil {
		return err
	}
	events, err := parser.Parse(payload)
	if err != nil {
		return err
	}
	fmt.Printf("parsed %d event(s) from %s payload\n", len(events), parser.Name())

	var results []domain.WorkflowResult
	for _, event := range events {
		result, err := a.Service.ProcessEvent(ctx, event)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipped %s: %v\n", event.EmployeeID, err)
			continue
		}
		results = append(results, result)
		if !*asJSON {
			printResult(result)
		}
	}
	if *asJSON {
		return writeJSON(results)
	}
	return nil
}

func runUsers(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("users")
	department := fs.String("department", "", "filter by department")
	status := fs.String("status", "", "filter by status")
	asJSON := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	identities := a.State.ListAll(ctx)
	filtered := identities[:0]
	for _, identity := range identities {
		if *department != "" && !strings.EqualFold(identity.Department, *department) {
			continue
		}
		if *status != "" && !strings.EqualFold(identity.Status.String(), *status) {
			continue
		}
		filtered = append(filtered, identity)
	}
	if *asJSON {
		return writeJSON(filtered)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMPLOYEE\tNAME\tDEPARTMENT\tTITLE\tSTATUS\tENTITLEMENTS")
	for _, identity := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			identity.EmployeeID, identity.Name, identity.Department,
			identity.Title, identity.Status, len(identity.Entitlements))
	}
	return w.Flush()
}

func runShow(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("show")
	asJSON := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: jmlctl show [flags] <employee-id>")
	}

	identity, err := a.State.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(identity)
	}

	fmt.Printf("%s  %s <%s>\n", identity.EmployeeID, identity.Name, identity.Email)
	fmt.Printf("  department: %s\n  title:      %s\n  status:     %s\n",
		identity.Department, identity.Title, identity.Status)
	if len(identity.Entitlements) == 0 {
		fmt.Println("  entitlements: none")
		return nil
	}
	fmt.Println("  entitlements:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, ent := range identity.Entitlements {
		fmt.Fprintf(w, "    %s\t%s\t%s\t%s\n",
			ent.System, ent.ResourceType, ent.ResourceName, ent.PermissionLevel)
	}
	return w.Flush()
}

func runSummary(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return writeJSON(a.State.Summary(ctx))
}

func runAudit(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("audit")
	employeeID := fs.String("employee-id", "", "filter by employee id")
	limit := fs.Int("limit", 50, "maximum records")
	asJSON := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := a.Trail.GetEvents(ctx, audit.Filter{
		EmployeeID: *employeeID,
		Limit:      *limit,
	})
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEMPLOYEE\tTYPE\tSYSTEM\tACTION\tOUTCOME")
	for _, rec := range records {
		outcome := "ok"
		if !rec.Success {
			outcome = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Timestamp.Format(time.RFC3339), rec.EmployeeID,
			rec.EventType, rec.System, rec.Action, outcome)
	}
	return w.Flush()
}

func runCompliance(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("compliance")
	days := fs.Int("days", 30, "period length in days, ending now")
	frameworks := fs.StringSlice("framework", nil, "framework labels to stamp on the report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	end := time.Now().UTC()
	report, err := a.Trail.ComplianceReport(ctx, end.AddDate(0, 0, -*days), end, *frameworks)
	if err != nil {
		return err
	}
	return writeJSON(report)
}

func runResolve(_ context.Context, a *app.App, args []string) error {
	fs := newFlagSet("resolve")
	department := fs.String("department", "", "department")
	title := fs.String("title", "", "job title")
	contractType := fs.String("contract-type", "", "contract type")
	asJSON := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profile := a.Policy.Resolve(*department, *title, *contractType)
	if *asJSON {
		return writeJSON(profile)
	}

	fmt.Printf("profile: %s\n", profile.Description)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tTYPE\tRESOURCE\tPERMISSION")
	for _, ent := range profile.Entitlements().Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ent.System, ent.ResourceType, ent.ResourceName, ent.PermissionLevel)
	}
	return w.Flush()
}

func printResult(result domain.WorkflowResult) {
	status := "succeeded"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Printf("workflow %s (%s) for %s %s: %d step(s), %d error(s)\n",
		result.WorkflowID, result.EventKind, result.EmployeeID, status,
		len(result.Steps), len(result.Errors))
	for _, step := range result.Steps {
		mark := "+"
		if !step.Success {
			mark = "!"
		}
		fmt.Printf("  %s %s %s\n", mark, step.System, step.Operation)
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}
