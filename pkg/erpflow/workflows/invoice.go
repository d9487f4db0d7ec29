package workflows

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// dueDateLayout is the wire format of invoice due dates.
const dueDateLayout = "2006-01-02"

// overdueAt computes the delivery instant for an overdue check: the due
// date (midnight UTC) minus the configured lead time. A malformed due
// date is an error; the scheduling step fails rather than guessing.
func overdueAt(dueDate string, lead time.Duration) (time.Time, error) {
	due, err := time.ParseInLocation(dueDateLayout, dueDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse due date %q: %w", dueDate, err)
	}
	return due.Add(-lead), nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// InvoiceGenerated handles invoice/generated: mail the invoice, schedule
// the overdue check at dueDate minus the configured lead, and (eventually)
// update the revenue metric.
func InvoiceGenerated(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.InvoiceGenerated) error {
		env := run.Event()

		_, err := erpflow.Step(ctx, run, "send-invoice-email", func(ctx context.Context) (string, error) {
			to, err := deps.Store.ClientEmail(ctx, p.ClientID)
			if err != nil {
				return "", err
			}
			return to, deps.Email.Send(ctx, collab.Email{
				To:       to,
				Subject:  "Invoice " + p.InvoiceNumber,
				Template: "invoice-issued",
				Fields: map[string]string{
					"invoiceNumber": p.InvoiceNumber,
					"amount":        formatAmount(p.Amount),
					"dueDate":       p.DueDate,
				},
				DedupKey: collab.DedupeKey(env.ID, "send-invoice-email"),
			})
		})
		if err != nil {
			return err
		}

		// Once sent, the scheduled event cannot be cancelled; the overdue
		// handler guards against the invoice being paid in the interim.
		_, err = erpflow.Step(ctx, run, "schedule-overdue-check", func(ctx context.Context) (int64, error) {
			at, err := overdueAt(p.DueDate, deps.Settings.OverdueLead)
			if err != nil {
				return 0, err
			}
			overdue := event.PaymentOverdue{
				InvoiceID:     p.InvoiceID,
				InvoiceNumber: p.InvoiceNumber,
				ClientID:      p.ClientID,
				Amount:        p.Amount,
				DueDate:       p.DueDate,
			}
			if err := deps.Client.SendAt(ctx, event.NamePaymentOverdue, overdue, at); err != nil {
				return 0, err
			}
			return at.UnixMilli(), nil
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "record-revenue-metric", "financial metric pending metrics pipeline")
		return err
	})
}

// PaymentReceived handles invoice/payment.received: confirm the payment;
// receivables and early-payment discount handling are not built yet.
func PaymentReceived(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.PaymentReceived) error {
		env := run.Event()

		_, err := erpflow.Step(ctx, run, "send-payment-confirmation", func(ctx context.Context) (string, error) {
			to, err := deps.Store.ClientEmail(ctx, p.ClientID)
			if err != nil {
				return "", err
			}
			return to, deps.Email.Send(ctx, collab.Email{
				To:       to,
				Subject:  "Payment received for " + p.InvoiceNumber,
				Template: "payment-confirmation",
				Fields: map[string]string{
					"invoiceNumber": p.InvoiceNumber,
					"amount":        formatAmount(p.Amount),
				},
				DedupKey: collab.DedupeKey(env.ID, "send-payment-confirmation"),
			})
		})
		if err != nil {
			return err
		}

		if _, err := run.Stub(ctx, "update-receivables", "receivables ledger not wired"); err != nil {
			return err
		}
		_, err = run.Stub(ctx, "check-early-discount", "early-payment discount policy undecided")
		return err
	})
}

// PaymentOverdue handles invoice/payment.overdue. The event was scheduled
// days earlier, so the first step re-checks the invoice's current status
// and ends the run without a notice when it was paid in the interim.
func PaymentOverdue(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.PaymentOverdue) error {
		env := run.Event()

		status, err := erpflow.Step(ctx, run, "check-payment-status", func(ctx context.Context) (string, error) {
			return deps.Store.InvoiceStatus(ctx, p.InvoiceID)
		})
		if err != nil {
			return err
		}
		if status == collab.InvoiceStatusPaid {
			_, err := run.Skip(ctx, "send-overdue-notice", "invoice already paid")
			return err
		}

		_, err = erpflow.Step(ctx, run, "send-overdue-notice", func(ctx context.Context) (string, error) {
			to, err := deps.Store.ClientEmail(ctx, p.ClientID)
			if err != nil {
				return "", err
			}
			return to, deps.Email.Send(ctx, collab.Email{
				To:       to,
				Subject:  "Payment overdue: " + p.InvoiceNumber,
				Template: "payment-overdue",
				Fields: map[string]string{
					"invoiceNumber": p.InvoiceNumber,
					"amount":        formatAmount(p.Amount),
					"dueDate":       p.DueDate,
				},
				DedupKey: collab.DedupeKey(env.ID, "send-overdue-notice"),
			})
		})
		if err != nil {
			return err
		}

		if _, err := run.Stub(ctx, "update-credit-status", "credit scoring not wired"); err != nil {
			return err
		}

		// TODO: emit a follow-up reminder at this instant once a reminder
		// event type exists; product has not signed off on a second
		// notice, so the date is computed and logged but never sent.
		_, err = erpflow.Step(ctx, run, "plan-followup", func(ctx context.Context) (int64, error) {
			at := time.Now().UTC().Add(deps.Settings.FollowUpDelay)
			if logger := run.Logger(); logger != nil {
				logger.Info("follow-up planned", "invoice", p.InvoiceNumber, "at", at)
			}
			return at.UnixMilli(), nil
		})
		return err
	})
}
