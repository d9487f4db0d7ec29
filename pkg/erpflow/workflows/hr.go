package workflows

import (
	"context"
	"strconv"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// EmployeeOnboarded handles employee/onboarded: welcome pack, HR heads-up,
// and (eventually) account provisioning.
func EmployeeOnboarded(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.EmployeeOnboarded) error {
		env := run.Event()

		_, err := erpflow.Step(ctx, run, "send-welcome-pack", func(ctx context.Context) (string, error) {
			to := p.Email
			if to == "" {
				var lookupErr error
				to, lookupErr = deps.Store.EmployeeEmail(ctx, p.EmployeeID)
				if lookupErr != nil {
					return "", lookupErr
				}
			}
			return to, deps.Email.Send(ctx, collab.Email{
				To:       to,
				Subject:  "Welcome to the team",
				Template: "employee-welcome",
				Fields: map[string]string{
					"name":       p.Name,
					"department": p.Department,
					"startDate":  p.StartDate,
				},
				DedupKey: collab.DedupeKey(env.ID, "send-welcome-pack"),
			})
		})
		if err != nil {
			return err
		}

		_, err = erpflow.Step(ctx, run, "notify-hr-team", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "hr",
				Title: "Employee onboarded",
				Body:  p.Name + " starts in " + p.Department + " on " + p.StartDate,
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "provision-accounts", "account provisioning awaits IT integration")
		return err
	})
}

// PayrollProcess handles payroll/process for one period.
func PayrollProcess(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.PayrollProcess) error {
		if _, err := run.Stub(ctx, "generate-payslips", "payslip rendering awaits payroll engine"); err != nil {
			return err
		}

		_, err := erpflow.Step(ctx, run, "notify-payroll-ready", func(ctx context.Context) (int, error) {
			return len(p.EmployeeIDs), deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "finance",
				Title: "Payroll processed",
				Body: "Period " + p.Month + ": " +
					strconv.Itoa(len(p.EmployeeIDs)) + " employees",
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "record-ledger-entry", "payroll ledger posting not wired")
		return err
	})
}

// AttendanceSync handles attendance/sync: import the day's records and
// flag anomalies to HR. Import itself is still a stub.
func AttendanceSync(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.AttendanceSync) error {
		if _, err := run.Stub(ctx, "import-attendance", "attendance source "+p.Source+" not integrated"); err != nil {
			return err
		}

		if len(p.Anomalies) == 0 {
			_, err := run.Skip(ctx, "notify-exceptions", "no anomalies")
			return err
		}

		_, err := erpflow.Step(ctx, run, "notify-exceptions", func(ctx context.Context) (int, error) {
			return len(p.Anomalies), deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "hr",
				Title: "Attendance anomalies",
				Body: strconv.Itoa(len(p.Anomalies)) +
					" records need review for " + p.Date,
			})
		})
		return err
	})
}

// LeaveSubmitted handles leave/request.submitted: route to the approver.
func LeaveSubmitted(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.LeaveSubmitted) error {
		_, err := erpflow.Step(ctx, run, "notify-approver", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				UserID: p.ApproverID,
				Title:  "Leave request pending",
				Body:   p.EmployeeID + " requested " + p.Kind + " leave " + p.From + " to " + p.To,
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "block-calendar", "calendar integration not wired")
		return err
	})
}
