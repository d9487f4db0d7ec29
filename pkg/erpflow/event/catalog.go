package event

// Event name constants. These are stable wire-level routing keys; renaming
// one breaks every scheduled event of that type still waiting for delivery.
const (
	NameClientCreated   = "client/created"
	NameInvoiceCreated  = "invoice/generated"
	NamePaymentReceived = "invoice/payment.received"
	NamePaymentOverdue  = "invoice/payment.overdue"

	NameEmployeeOnboarded = "employee/onboarded"
	NamePayrollProcess    = "payroll/process"
	NameAttendanceSync    = "attendance/sync"
	NameLeaveSubmitted    = "leave/request.submitted"

	NameStockCheck     = "inventory/stock.check"
	NameReorderTrigger = "inventory/reorder.trigger"
	NameGoodsReceived  = "inventory/goods.received"

	NameDailyBackup    = "system/backup.daily"
	NameMonthlyReports = "system/reports.monthly"
	NameLogCleanup     = "system/cleanup.logs"
	NameExternalSync   = "system/sync.external"

	NameEmailSend           = "notification/email.send"
	NameEmailBulk           = "notification/email.bulk"
	NameNotificationProcess = "notification/process"
)

// Names lists every event name in the catalog.
func Names() []string {
	return []string{
		NameClientCreated,
		NameInvoiceCreated,
		NamePaymentReceived,
		NamePaymentOverdue,
		NameEmployeeOnboarded,
		NamePayrollProcess,
		NameAttendanceSync,
		NameLeaveSubmitted,
		NameStockCheck,
		NameReorderTrigger,
		NameGoodsReceived,
		NameDailyBackup,
		NameMonthlyReports,
		NameLogCleanup,
		NameExternalSync,
		NameEmailSend,
		NameEmailBulk,
		NameNotificationProcess,
	}
}

// Sales & accounting payloads.

type ClientCreated struct {
	ClientID  string `json:"clientId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedBy string `json:"createdBy"`
}

type InvoiceGenerated struct {
	InvoiceID     string  `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	ClientID      string  `json:"clientId"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"dueDate"` // YYYY-MM-DD
	CreatedBy     string  `json:"createdBy"`
}

type PaymentReceived struct {
	InvoiceID     string  `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	ClientID      string  `json:"clientId"`
	Amount        float64 `json:"amount"`
	PaidAt        string  `json:"paidAt"`
	Method        string  `json:"method,omitempty"`
}

type PaymentOverdue struct {
	InvoiceID     string  `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	ClientID      string  `json:"clientId"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"dueDate"`
}

// HR & payroll payloads.

type EmployeeOnboarded struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	StartDate  string `json:"startDate"`
}

type PayrollProcess struct {
	PeriodID    string   `json:"periodId"`
	Month       string   `json:"month"` // YYYY-MM
	EmployeeIDs []string `json:"employeeIds"`
	RequestedBy string   `json:"requestedBy"`
}

type AttendanceSync struct {
	Source string `json:"source"`
	Date   string `json:"date"`
	// Anomalies lists employee ids whose records need review.
	Anomalies []string `json:"anomalies,omitempty"`
}

type LeaveSubmitted struct {
	RequestID  string `json:"requestId"`
	EmployeeID string `json:"employeeId"`
	ApproverID string `json:"approverId"`
	From       string `json:"from"`
	To         string `json:"to"`
	Kind       string `json:"kind"`
}

// Inventory payloads.

// StockLevel is one item's current count inside a stock-check payload.
type StockLevel struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type StockCheck struct {
	WarehouseID string       `json:"warehouseId"`
	Levels      []StockLevel `json:"levels"`
}

type ReorderTrigger struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	WarehouseID string `json:"warehouseId"`
}

type GoodsReceived struct {
	OrderID     string `json:"orderId"`
	ItemID      string `json:"itemId"`
	Quantity    int    `json:"quantity"`
	RequestedBy string `json:"requestedBy"`
}

// System maintenance payloads.

type DailyBackup struct {
	BackupID      string `json:"backupId"`
	IncludeFiles  bool   `json:"includeFiles"`
	RetentionDays int    `json:"retentionDays"`
	NotifyEmail   string `json:"notifyEmail"`
}

type MonthlyReports struct {
	Month       string   `json:"month"` // YYYY-MM
	ReportTypes []string `json:"reportTypes"`
	Recipients  []string `json:"recipients"`
}

type LogCleanup struct {
	RequestedBy string `json:"requestedBy,omitempty"`
	DryRun      bool   `json:"dryRun,omitempty"`
}

type ExternalSync struct {
	System    string `json:"system"`
	Direction string `json:"direction"` // push, pull, or both
}

// Notification payloads.

type EmailSend struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// BulkRecipient is one addressee in a bulk dispatch.
type BulkRecipient struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
}

type EmailBulk struct {
	CampaignID string          `json:"campaignId"`
	Subject    string          `json:"subject"`
	Template   string          `json:"template"`
	Recipients []BulkRecipient `json:"recipients"`
}

type NotificationProcess struct {
	UserID  string `json:"userId"`
	Channel string `json:"channel"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}
