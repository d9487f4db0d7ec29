package workflows

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// Report types a monthly run can request.
const (
	ReportFinancial = "financial"
	ReportEmployee  = "employee"
	ReportInventory = "inventory"
)

// reportTypes is the generation order; every run evaluates all of them
// and marks the ones not requested as skipped.
var reportTypes = []string{ReportFinancial, ReportEmployee, ReportInventory}

// ReportResult is one report-generation step's outcome.
type ReportResult struct {
	Type     string `json:"type"`
	Skipped  bool   `json:"skipped"`
	Location string `json:"location,omitempty"`
}

// LogEntry is one log file with its write time, as listed by whatever
// storage holds the logs.
type LogEntry struct {
	Name     string    `json:"name"`
	LoggedAt time.Time `json:"loggedAt"`
}

// CleanupResult is one log class's cleanup outcome.
type CleanupResult struct {
	Class  string    `json:"class"`
	Cutoff time.Time `json:"cutoff"`
	DryRun bool      `json:"dryRun,omitempty"`
}

// expiredLogs returns the entries older than the retention window at the
// given instant. An entry exactly at the window boundary is kept; only
// strictly older entries are eligible for deletion.
func expiredLogs(entries []LogEntry, retention time.Duration, now time.Time) []LogEntry {
	cutoff := now.Add(-retention)
	var expired []LogEntry
	for _, e := range entries {
		if e.LoggedAt.Before(cutoff) {
			expired = append(expired, e)
		}
	}
	return expired
}

// DailyBackup handles system/backup.daily. The snapshot steps are
// simulated; a real deployment swaps them for actual storage calls.
func DailyBackup(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.DailyBackup) error {
		env := run.Event()

		if _, err := run.Stub(ctx, "backup-database", "database snapshot awaits storage integration"); err != nil {
			return err
		}

		if p.IncludeFiles {
			if _, err := run.Stub(ctx, "backup-files", "file snapshot awaits storage integration"); err != nil {
				return err
			}
		} else {
			if _, err := run.Skip(ctx, "backup-files", "files not included"); err != nil {
				return err
			}
		}

		retentionDays := p.RetentionDays
		if retentionDays <= 0 {
			retentionDays = deps.Settings.BackupRetentionDays
		}
		_, err := erpflow.Step(ctx, run, "prune-old-backups", func(ctx context.Context) (time.Time, error) {
			// Pruning itself lives with the storage integration; the
			// cutoff is recorded so the completion notice can carry it.
			return time.Now().UTC().AddDate(0, 0, -retentionDays), nil
		})
		if err != nil {
			return err
		}

		_, err = erpflow.Step(ctx, run, "notify-completion", func(ctx context.Context) (string, error) {
			return p.NotifyEmail, deps.Email.Send(ctx, collab.Email{
				To:       p.NotifyEmail,
				Subject:  "Daily backup completed",
				Template: "backup-completed",
				Fields: map[string]string{
					"backupId":      p.BackupID,
					"retentionDays": strconv.Itoa(retentionDays),
				},
				DedupKey: collab.DedupeKey(env.ID, "notify-completion"),
			})
		})
		return err
	})
}

// MonthlyReports handles system/reports.monthly: generate each requested
// report type (marking the rest skipped), compile the executive summary,
// and distribute one email per recipient.
func MonthlyReports(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.MonthlyReports) error {
		env := run.Event()

		results := make([]ReportResult, 0, len(reportTypes))
		for _, reportType := range reportTypes {
			result, err := erpflow.Step(ctx, run, "generate-"+reportType+"-report", func(ctx context.Context) (ReportResult, error) {
				if !slices.Contains(p.ReportTypes, reportType) {
					return ReportResult{Type: reportType, Skipped: true}, nil
				}
				// Rendering awaits the reporting engine; the location
				// is where the rendered report will land.
				return ReportResult{
					Type:     reportType,
					Location: "reports/" + p.Month + "/" + reportType + ".pdf",
				}, nil
			})
			if err != nil {
				return err
			}
			results = append(results, result)
		}

		summary, err := erpflow.Step(ctx, run, "compile-summary", func(ctx context.Context) ([]string, error) {
			var included []string
			for _, r := range results {
				if !r.Skipped {
					included = append(included, r.Type)
				}
			}
			return included, nil
		})
		if err != nil {
			return err
		}

		// One send per recipient, each its own step: a redelivery after a
		// mid-list failure resumes with the first unsent recipient.
		for i, recipient := range p.Recipients {
			stepID := "distribute-" + strconv.Itoa(i)
			_, err := erpflow.Step(ctx, run, stepID, func(ctx context.Context) (string, error) {
				return recipient, deps.Email.Send(ctx, collab.Email{
					To:       recipient,
					Subject:  "Monthly reports for " + p.Month,
					Template: "monthly-reports",
					Fields: map[string]string{
						"month":   p.Month,
						"reports": strconv.Itoa(len(summary)),
					},
					DedupKey: collab.DedupeKey(env.ID, stepID),
				})
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LogCleanup handles system/cleanup.logs. Each log class has its own
// retention window: audit logs survive longest (compliance), error logs
// longer than app logs.
func LogCleanup(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.LogCleanup) error {
		now := time.Now().UTC()

		classes := []struct {
			name      string
			retention time.Duration
		}{
			{"app", deps.Settings.AppLogRetention},
			{"error", deps.Settings.ErrorLogRetention},
			{"audit", deps.Settings.AuditLogRetention},
		}

		for _, class := range classes {
			retention := class.retention
			_, err := erpflow.Step(ctx, run, "cleanup-"+class.name+"-logs", func(ctx context.Context) (CleanupResult, error) {
				// Deletion lives with the log storage integration; the
				// cutoff is the contract: nothing younger than it may go.
				return CleanupResult{
					Class:  class.name,
					Cutoff: now.Add(-retention),
					DryRun: p.DryRun,
				}, nil
			})
			if err != nil {
				return err
			}
		}

		_, err := run.Stub(ctx, "aggregate-metrics", "log volume metrics pending metrics pipeline")
		return err
	})
}

// ExternalSync handles system/sync.external.
func ExternalSync(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.ExternalSync) error {
		if p.Direction == "push" || p.Direction == "both" {
			if _, err := run.Stub(ctx, "push-changes", "push to "+p.System+" not integrated"); err != nil {
				return err
			}
		} else {
			if _, err := run.Skip(ctx, "push-changes", "pull-only sync"); err != nil {
				return err
			}
		}

		if p.Direction == "pull" || p.Direction == "both" {
			if _, err := run.Stub(ctx, "pull-changes", "pull from "+p.System+" not integrated"); err != nil {
				return err
			}
		} else {
			if _, err := run.Skip(ctx, "pull-changes", "push-only sync"); err != nil {
				return err
			}
		}

		_, err := erpflow.Step(ctx, run, "notify-sync-done", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "ops",
				Title: "External sync finished",
				Body:  p.System + " (" + p.Direction + ")",
			})
		})
		return err
	})
}
