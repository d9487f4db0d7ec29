// Package erpflow is the event-orchestration core of the ERP: a small
// durable workflow layer where application code emits named events and
// registered handlers run ordered, independently retryable steps.
//
// The flow is linear: an emitter calls Client.Send (or SendAt for
// scheduled delivery), a Platform queues and delivers the envelope, and
// the bound Handler runs its steps in declared order. Each step's result
// is memoized per invocation, so when the platform redelivers a failed
// invocation, completed steps replay their recorded results instead of
// repeating their side effects.
//
// Basic usage:
//
//	p := platform.NewMemory(platform.MemoryConfig{Retries: settings.Retries})
//	client := erpflow.NewClient(p,
//		erpflow.WithLogger(logger),
//		erpflow.WithStepStore(store),
//	)
//	if err := workflows.RegisterAll(workflows.Deps{Client: client, ...}); err != nil {
//		return err
//	}
//	client.Send(ctx, event.NameInvoiceCreated, event.InvoiceGenerated{...})
//
// Delivery is at-least-once and unordered across events; handlers for
// scheduled events re-check their triggering condition on delivery.
package erpflow
