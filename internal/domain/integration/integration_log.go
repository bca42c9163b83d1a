package integration

import (
	"time"

	"github.com/google/uuid"
)

// LogType categorizes an integration log entry
type LogType string

const (
	// LogTypeSyncComplete records a successful sync
	LogTypeSyncComplete LogType = "sync_complete"
	// LogTypeError records a failed sync or provider error
	LogTypeError LogType = "error"
	// LogTypeDataUpdate records a provider push of new data
	LogTypeDataUpdate LogType = "data_update"
	// LogTypeStatusChange records an explicit status change
	LogTypeStatusChange LogType = "status_change"
)

// IsValid returns true if the log type is valid
func (t LogType) IsValid() bool {
	switch t {
	case LogTypeSyncComplete, LogTypeError, LogTypeDataUpdate, LogTypeStatusChange:
		return true
	default:
		return false
	}
}

// String returns the string representation of LogType
func (t LogType) String() string {
	return string(t)
}

// IntegrationLog is an append-only event recorded against an integration.
// Entries are never mutated; they are removed only with their integration.
type IntegrationLog struct {
	ID            uuid.UUID
	IntegrationID uuid.UUID
	Type          LogType
	Message       string
	Data          map[string]any
	Timestamp     time.Time
}

// NewIntegrationLog creates a log entry stamped now
func NewIntegrationLog(integrationID uuid.UUID, logType LogType, message string, data map[string]any) *IntegrationLog {
	return &IntegrationLog{
		ID:            uuid.New(),
		IntegrationID: integrationID,
		Type:          logType,
		Message:       message,
		Data:          data,
		Timestamp:     time.Now(),
	}
}

// At overrides the entry timestamp
func (l *IntegrationLog) At(ts time.Time) *IntegrationLog {
	l.Timestamp = ts
	return l
}
