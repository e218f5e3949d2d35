package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BroadcastSession — сущность мультиплатформенной сессии (GORM).
type BroadcastSession struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string     `gorm:"type:uuid;not null;index"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	Thumbnail   string     `gorm:"type:text"`
	Status      string     `gorm:"size:20;not null;default:SCHEDULED"`
	StartAt     time.Time  `gorm:"column:start_at;not null"`
	EndAt       *time.Time `gorm:"column:end_at"`
	CreatedBy   string     `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`

	Bindings []PlatformBinding `gorm:"foreignKey:SessionID"`
}

func (BroadcastSession) TableName() string { return "broadcast_sessions" }

// PlatformBinding — участие одной платформы в сессии (GORM).
// Unique on (session_id, platform); mutated only by the orchestrator.
type PlatformBinding struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID  string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_bindings_session_platform"`
	Platform   string    `gorm:"size:20;not null;uniqueIndex:idx_bindings_session_platform"`
	ExternalID string    `gorm:"column:external_id;size:255"`
	URL        string    `gorm:"type:text"`
	Status     string    `gorm:"size:20;not null;default:PENDING"`
	Error      string    `gorm:"type:text"`
	Settings   JSONMap   `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (PlatformBinding) TableName() string { return "platform_bindings" }

// PlatformConnection — подключение платформы для тенанта (GORM).
// Credentials are stored encrypted; decryption happens in internal/connection.
type PlatformConnection struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string     `gorm:"type:uuid;not null;index;uniqueIndex:idx_connections_tenant_platform"`
	Platform    string     `gorm:"size:20;not null;uniqueIndex:idx_connections_tenant_platform"`
	Status      string     `gorm:"size:20;not null;default:CONNECTED"`
	Credentials string     `gorm:"type:text;not null"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	LastError   *string    `gorm:"column:last_error"`
	LastErrorAt *time.Time `gorm:"column:last_error_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (PlatformConnection) TableName() string { return "platform_connections" }

// MeetingSeries — определение (возможно повторяющейся) встречи (GORM).
// Occurrences are derived by internal/recurrence, never stored.
type MeetingSeries struct {
	ID          string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    string      `gorm:"type:uuid;not null;index"`
	BranchID    *string     `gorm:"type:uuid;index"`
	Title       string      `gorm:"size:255;not null"`
	Description string      `gorm:"type:text"`
	StartAt     time.Time   `gorm:"column:start_at;not null"`
	EndAt       *time.Time  `gorm:"column:end_at"`
	Timezone    string      `gorm:"size:64"`
	Recurrence  *Recurrence `gorm:"type:jsonb"`
	CreatedBy   string      `gorm:"type:uuid"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (MeetingSeries) TableName() string { return "meeting_series" }

// RecurrenceFrequency is the repeat cadence of a series.
type RecurrenceFrequency string

const (
	FrequencyWeekly  RecurrenceFrequency = "WEEKLY"
	FrequencyMonthly RecurrenceFrequency = "MONTHLY"
	// FrequencyCustom is a storage/display tag; expansion picks weekly or
	// monthly depending on which fields are set.
	FrequencyCustom RecurrenceFrequency = "CUSTOM"
)

// Recurrence holds expansion parameters, embedded in MeetingSeries as jsonb.
type Recurrence struct {
	Frequency  RecurrenceFrequency `json:"frequency"`
	Interval   int                 `json:"interval,omitempty"`
	ByWeekday  []int               `json:"byWeekday,omitempty"`
	ByMonthDay int                 `json:"byMonthDay,omitempty"`
	Until      *time.Time          `json:"until,omitempty"`
}

// Value implements driver.Valuer for jsonb storage.
func (r *Recurrence) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *Recurrence) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("recurrence: unsupported scan type %T", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, r)
}

// JSONMap is a jsonb column holding free-form per-platform settings.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("jsonmap: unsupported scan type %T", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, m)
}
