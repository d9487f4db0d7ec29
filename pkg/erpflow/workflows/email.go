package workflows

import (
	"context"
	"strconv"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// partition splits recipients into batches of at most size. Every
// recipient lands in exactly one batch; the last batch may be short.
func partition(recipients []event.BulkRecipient, size int) [][]event.BulkRecipient {
	if size <= 0 || len(recipients) == 0 {
		return nil
	}
	batches := make([][]event.BulkRecipient, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		batches = append(batches, recipients[start:end])
	}
	return batches
}

// EmailSend handles notification/email.send: one templated email.
func EmailSend(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.EmailSend) error {
		env := run.Event()

		_, err := erpflow.Step(ctx, run, "send-email", func(ctx context.Context) (string, error) {
			return p.To, deps.Email.Send(ctx, collab.Email{
				To:       p.To,
				Subject:  p.Subject,
				Template: p.Template,
				Fields:   p.Fields,
				DedupKey: collab.DedupeKey(env.ID, "send-email"),
			})
		})
		return err
	})
}

// EmailBulk handles notification/email.bulk: partition the recipients
// into fixed-size batches and send each recipient's email as its own
// step, pausing between batches. The pause is a crude fixed-delay
// throttle for the provider's rate limit, not adaptive backpressure.
func EmailBulk(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.EmailBulk) error {
		env := run.Event()
		batches := partition(p.Recipients, deps.Settings.BatchSize)

		for bi, batch := range batches {
			for ri, recipient := range batch {
				stepID := "send-batch-" + strconv.Itoa(bi) + "-recipient-" + strconv.Itoa(ri)
				_, err := erpflow.Step(ctx, run, stepID, func(ctx context.Context) (string, error) {
					return recipient.Email, deps.Email.Send(ctx, collab.Email{
						To:       recipient.Email,
						Subject:  p.Subject,
						Template: p.Template,
						Fields:   recipient.Fields,
						DedupKey: collab.DedupeKey(env.ID, stepID),
					})
				})
				if err != nil {
					return err
				}
			}

			if bi < len(batches)-1 {
				if err := deps.pause(ctx, deps.Settings.BatchPause); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// NotificationProcess handles notification/process: route one generic
// notification through the notification service.
func NotificationProcess(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.NotificationProcess) error {
		_, err := erpflow.Step(ctx, run, "dispatch-notification", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				UserID: p.UserID,
				Title:  p.Title,
				Body:   p.Body,
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "record-delivery", "delivery receipts await notification provider webhooks")
		return err
	})
}
