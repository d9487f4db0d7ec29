// Package config holds the tunable settings of the orchestration layer.
//
// Everything that used to be a hard-coded literal in the workflows (retry
// budget, bulk batch size, overdue lead time, retention windows) lives here
// so environments can tune them and tests can override them
// deterministically.
package config

import (
	"fmt"
	"time"
)

// Settings configures the client, platform, and workflow handlers.
type Settings struct {
	// Retries is the delivery attempt budget per invocation, including
	// the first attempt.
	Retries int `yaml:"retries" json:"retries"`

	// Workers is the number of concurrent delivery workers of the
	// in-process platform.
	Workers int `yaml:"workers" json:"workers"`

	// QueueSize is the in-process platform's buffer.
	QueueSize int `yaml:"queue_size" json:"queue_size"`

	// BatchSize is the bulk-email batch size.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// BatchPause is the fixed pause between bulk-email batches, a crude
	// throttle for the downstream provider's rate limit.
	BatchPause time.Duration `yaml:"batch_pause" json:"batch_pause"`

	// OverdueLead is how long before an invoice due date the overdue
	// check fires.
	OverdueLead time.Duration `yaml:"overdue_lead" json:"overdue_lead"`

	// FollowUpDelay is how long after an overdue notice the follow-up
	// would fire.
	FollowUpDelay time.Duration `yaml:"follow_up_delay" json:"follow_up_delay"`

	// LowStockThreshold is the quantity at or below which a stock check
	// triggers a reorder.
	LowStockThreshold int `yaml:"low_stock_threshold" json:"low_stock_threshold"`

	// Log retention windows per class. Audit logs survive longest
	// (compliance), error logs longer than app logs.
	AppLogRetention   time.Duration `yaml:"app_log_retention" json:"app_log_retention"`
	ErrorLogRetention time.Duration `yaml:"error_log_retention" json:"error_log_retention"`
	AuditLogRetention time.Duration `yaml:"audit_log_retention" json:"audit_log_retention"`

	// BackupRetentionDays is the default backup retention when the
	// triggering event does not carry one.
	BackupRetentionDays int `yaml:"backup_retention_days" json:"backup_retention_days"`
}

const day = 24 * time.Hour

// Default returns the settings matching the original deployment's
// literals: 3 delivery attempts, 50-recipient batches, 3-day overdue lead.
func Default() Settings {
	return Settings{
		Retries:             3,
		Workers:             4,
		QueueSize:           256,
		BatchSize:           50,
		BatchPause:          2 * time.Second,
		OverdueLead:         3 * day,
		FollowUpDelay:       7 * day,
		LowStockThreshold:   10,
		AppLogRetention:     30 * day,
		ErrorLogRetention:   90 * day,
		AuditLogRetention:   365 * day,
		BackupRetentionDays: 30,
	}
}

// Validate checks the settings for values the runtime cannot work with.
func (s Settings) Validate() error {
	if s.Retries < 1 {
		return fmt.Errorf("config: retries must be at least 1, got %d", s.Retries)
	}
	if s.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", s.Workers)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("config: batch_size must be at least 1, got %d", s.BatchSize)
	}
	if s.OverdueLead < 0 {
		return fmt.Errorf("config: overdue_lead must not be negative")
	}
	if s.AppLogRetention > s.ErrorLogRetention || s.ErrorLogRetention > s.AuditLogRetention {
		return fmt.Errorf("config: log retention must be ordered app <= error <= audit")
	}
	return nil
}
