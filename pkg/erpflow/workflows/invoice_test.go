package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/config"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

func TestOverdueAt(t *testing.T) {
	at, err := overdueAt("2025-03-01", 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC), at)

	// Zero lead schedules the check at the due date itself.
	at, err = overdueAt("2025-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), at)

	_, err = overdueAt("03/01/2025", 72*time.Hour)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500", formatAmount(500))
	assert.Equal(t, "125.5", formatAmount(125.5))
	assert.Equal(t, "0.01", formatAmount(0.01))
}

func TestInvoiceGeneratedEmailsAndSchedulesOverdue(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetClientEmail("c-1", "billing@acme.test")

	require.NoError(t, env.dispatch(t, "evt-inv-1", event.NameInvoiceCreated, event.InvoiceGenerated{
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-1001",
		ClientID:      "c-1",
		Amount:        500,
		DueDate:       "2025-03-01",
	}))

	emails := env.email.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "billing@acme.test", emails[0].To)
	assert.Equal(t, "invoice-issued", emails[0].Template)
	assert.Equal(t, "INV-1001", emails[0].Fields["invoiceNumber"])
	assert.Equal(t, "500", emails[0].Fields["amount"])
	assert.NotEmpty(t, emails[0].DedupKey)

	// The overdue check is scheduled at due date minus the 3-day lead,
	// as an absolute delivery instant.
	scheduled := env.platform.recorded()
	require.Len(t, scheduled, 1)
	assert.Equal(t, event.NamePaymentOverdue, scheduled[0].Name)
	want := time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want.UnixMilli(), scheduled[0].DeliverAt)

	overdue, err := event.Decode[event.PaymentOverdue](scheduled[0])
	require.NoError(t, err)
	assert.Equal(t, "inv-1", overdue.InvoiceID)
	assert.Equal(t, 500.0, overdue.Amount)
}

func TestInvoiceGeneratedZeroLead(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.OverdueLead = 0 })
	env.store.SetClientEmail("c-1", "billing@acme.test")

	require.NoError(t, env.dispatch(t, "evt-inv-2", event.NameInvoiceCreated, event.InvoiceGenerated{
		InvoiceID:     "inv-2",
		InvoiceNumber: "INV-1002",
		ClientID:      "c-1",
		Amount:        80,
		DueDate:       "2025-03-01",
	}))

	scheduled := env.platform.recorded()
	require.Len(t, scheduled, 1)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), scheduled[0].DeliverAt)
}

func TestInvoiceGeneratedMalformedDueDate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetClientEmail("c-1", "billing@acme.test")

	err := env.dispatch(t, "evt-inv-3", event.NameInvoiceCreated, event.InvoiceGenerated{
		InvoiceID:     "inv-3",
		InvoiceNumber: "INV-1003",
		ClientID:      "c-1",
		Amount:        10,
		DueDate:       "03/01/2025",
	})
	require.Error(t, err)

	// The invoice email step completed before scheduling failed; nothing
	// was scheduled.
	assert.Len(t, env.email.emails(), 1)
	assert.Empty(t, env.platform.recorded())
}

func TestPaymentOverdueSendsNotice(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetClientEmail("c-1", "billing@acme.test")
	env.store.SetInvoiceStatus("inv-1", collab.InvoiceStatusOverdue)

	require.NoError(t, env.dispatch(t, "evt-od-1", event.NamePaymentOverdue, event.PaymentOverdue{
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-1001",
		ClientID:      "c-1",
		Amount:        500,
		DueDate:       "2025-03-01",
	}))

	emails := env.email.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "payment-overdue", emails[0].Template)
	assert.Equal(t, "INV-1001", emails[0].Fields["invoiceNumber"])

	// The follow-up date is planned but no follow-up event is emitted.
	assert.Empty(t, env.platform.recorded())
}

func TestPaymentOverdueSkipsPaidInvoice(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetClientEmail("c-1", "billing@acme.test")
	env.store.SetInvoiceStatus("inv-1", collab.InvoiceStatusPaid)

	require.NoError(t, env.dispatch(t, "evt-od-2", event.NamePaymentOverdue, event.PaymentOverdue{
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-1001",
		ClientID:      "c-1",
		Amount:        500,
		DueDate:       "2025-03-01",
	}))

	// Paid in the interim: no notice, no emission of anything.
	assert.Empty(t, env.email.emails())
	assert.Empty(t, env.platform.recorded())
}

func TestPaymentReceivedConfirms(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.SetClientEmail("c-1", "billing@acme.test")

	require.NoError(t, env.dispatch(t, "evt-pr-1", event.NamePaymentReceived, event.PaymentReceived{
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-1001",
		ClientID:      "c-1",
		Amount:        500,
		PaidAt:        "2025-02-20",
	}))

	emails := env.email.emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "payment-confirmation", emails[0].Template)
}
