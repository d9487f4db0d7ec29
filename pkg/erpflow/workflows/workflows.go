// Package workflows contains the ERP's event handlers: one step sequence
// per catalogued event type.
//
// Handlers follow a single-effect-per-step discipline: each step performs
// at most one externally visible effect (one email, one notification, one
// scheduled event). Combined with per-step memoization, a retried
// invocation never repeats a sibling step's side effect.
package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/config"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// Deps carries the collaborators and settings every handler closes over.
// Constructed once at startup and passed to RegisterAll.
type Deps struct {
	Client   *erpflow.Client
	Email    collab.EmailSender
	Notifier collab.Notifier
	Store    collab.DataStore
	Settings config.Settings
	Logger   *slog.Logger

	// Pause is the bulk-email inter-batch pause. Nil means a real
	// context-aware sleep; tests inject a recording fake.
	Pause func(ctx context.Context, d time.Duration) error
}

func (d Deps) pause(ctx context.Context, dur time.Duration) error {
	if d.Pause != nil {
		return d.Pause(ctx, dur)
	}
	if dur <= 0 {
		return nil
	}
	select {
	case <-time.After(dur):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterAll binds every workflow handler to its event name on the
// deps' client. Call once at process start.
func RegisterAll(deps Deps) error {
	bindings := []struct {
		name    string
		handler erpflow.Handler
	}{
		{event.NameClientCreated, ClientCreated(deps)},
		{event.NameInvoiceCreated, InvoiceGenerated(deps)},
		{event.NamePaymentReceived, PaymentReceived(deps)},
		{event.NamePaymentOverdue, PaymentOverdue(deps)},
		{event.NameEmployeeOnboarded, EmployeeOnboarded(deps)},
		{event.NamePayrollProcess, PayrollProcess(deps)},
		{event.NameAttendanceSync, AttendanceSync(deps)},
		{event.NameLeaveSubmitted, LeaveSubmitted(deps)},
		{event.NameStockCheck, StockCheck(deps)},
		{event.NameReorderTrigger, ReorderTrigger(deps)},
		{event.NameGoodsReceived, GoodsReceived(deps)},
		{event.NameDailyBackup, DailyBackup(deps)},
		{event.NameMonthlyReports, MonthlyReports(deps)},
		{event.NameLogCleanup, LogCleanup(deps)},
		{event.NameExternalSync, ExternalSync(deps)},
		{event.NameEmailSend, EmailSend(deps)},
		{event.NameEmailBulk, EmailBulk(deps)},
		{event.NameNotificationProcess, NotificationProcess(deps)},
	}

	for _, b := range bindings {
		if err := deps.Client.Register(b.name, b.handler); err != nil {
			return fmt.Errorf("register workflows: %w", err)
		}
	}
	return nil
}
