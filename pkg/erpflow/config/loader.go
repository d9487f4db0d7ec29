package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Missing keys keep their defaults. Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings over the defaults.
func FromYAML(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromJSON parses JSON data into Settings over the defaults.
func FromJSON(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// settingsFile mirrors Settings for decoding. Pointer fields distinguish
// absent keys from explicit zeros, and durations accept both "2s" strings
// and bare seconds.
type settingsFile struct {
	Retries             *int      `yaml:"retries" json:"retries"`
	Workers             *int      `yaml:"workers" json:"workers"`
	QueueSize           *int      `yaml:"queue_size" json:"queue_size"`
	BatchSize           *int      `yaml:"batch_size" json:"batch_size"`
	BatchPause          *duration `yaml:"batch_pause" json:"batch_pause"`
	OverdueLead         *duration `yaml:"overdue_lead" json:"overdue_lead"`
	FollowUpDelay       *duration `yaml:"follow_up_delay" json:"follow_up_delay"`
	LowStockThreshold   *int      `yaml:"low_stock_threshold" json:"low_stock_threshold"`
	AppLogRetention     *duration `yaml:"app_log_retention" json:"app_log_retention"`
	ErrorLogRetention   *duration `yaml:"error_log_retention" json:"error_log_retention"`
	AuditLogRetention   *duration `yaml:"audit_log_retention" json:"audit_log_retention"`
	BackupRetentionDays *int      `yaml:"backup_retention_days" json:"backup_retention_days"`
}

func (f settingsFile) apply(s *Settings) {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *duration) {
		if src != nil {
			*dst = time.Duration(*src)
		}
	}
	setInt(&s.Retries, f.Retries)
	setInt(&s.Workers, f.Workers)
	setInt(&s.QueueSize, f.QueueSize)
	setInt(&s.BatchSize, f.BatchSize)
	setDur(&s.BatchPause, f.BatchPause)
	setDur(&s.OverdueLead, f.OverdueLead)
	setDur(&s.FollowUpDelay, f.FollowUpDelay)
	setInt(&s.LowStockThreshold, f.LowStockThreshold)
	setDur(&s.AppLogRetention, f.AppLogRetention)
	setDur(&s.ErrorLogRetention, f.ErrorLogRetention)
	setDur(&s.AuditLogRetention, f.AuditLogRetention)
	setInt(&s.BackupRetentionDays, f.BackupRetentionDays)
}

// UnmarshalYAML decodes over whatever values the receiver already holds,
// so loading layers file values on top of Default().
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	var f settingsFile
	if err := value.Decode(&f); err != nil {
		return err
	}
	f.apply(s)
	return nil
}

// UnmarshalJSON decodes over the receiver's current values, like
// UnmarshalYAML.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	f.apply(s)
	return nil
}
