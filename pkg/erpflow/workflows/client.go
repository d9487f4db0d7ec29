package workflows

import (
	"context"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// ClientCreated handles client/created: welcome the client, tell the
// sales team, and (eventually) update the acquisition metric.
func ClientCreated(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.ClientCreated) error {
		env := run.Event()

		_, err := erpflow.Step(ctx, run, "send-welcome-email", func(ctx context.Context) (string, error) {
			to := p.Email
			if to == "" {
				// The payload snapshot may predate a correction;
				// prefer the record as it is now.
				var lookupErr error
				to, lookupErr = deps.Store.ClientEmail(ctx, p.ClientID)
				if lookupErr != nil {
					return "", lookupErr
				}
			}
			return to, deps.Email.Send(ctx, collab.Email{
				To:       to,
				Subject:  "Welcome aboard",
				Template: "client-welcome",
				Fields: map[string]string{
					"name": p.Name,
				},
				DedupKey: collab.DedupeKey(env.ID, "send-welcome-email"),
			})
		})
		if err != nil {
			return err
		}

		_, err = erpflow.Step(ctx, run, "notify-sales-team", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "sales",
				Title: "New client",
				Body:  p.Name + " was created by " + p.CreatedBy,
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "record-acquisition-metric", "acquisition metric pending metrics pipeline")
		return err
	})
}
