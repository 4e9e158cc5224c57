package types

import "time"

// State is the switch engine's lifecycle state.
type State string

const (
	StateUnknown     State = "unknown"
	StateHomeApplied State = "home_applied"
	StateAwayApplied State = "away_applied"
	StateDegraded    State = "degraded"
)

// Mode is an addressing mode as applied to an adapter.
type Mode string

const (
	ModeUnknown Mode = "unknown"
	ModeStatic  Mode = "static"
	ModeDHCP    Mode = "dhcp"
)

// NetworkObservation is one reading of the wireless adapter.
type NetworkObservation struct {
	SSID       string
	Associated bool
	Adapter    string
	ObservedAt time.Time
}

// Status is the read-only view of the switch engine handed to callers.
type Status struct {
	State          State     `json:"state"`
	AppliedMode    Mode      `json:"applied_mode"`
	LastSSID       string    `json:"last_ssid"`
	Associated     bool      `json:"associated"`
	Adapter        string    `json:"adapter"`
	LastError      string    `json:"last_error,omitempty"`
	LastAppliedAt  time.Time `json:"last_applied_at"`
	RetryAt        time.Time `json:"retry_at"`
	Attempts       int       `json:"attempts"`
	CurrentGateway string    `json:"current_gateway,omitempty"`
	Override       Mode      `json:"override,omitempty"`
}

// Outcome of a recorded switch attempt.
const (
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
)

// SwitchEvent is one apply attempt as stored in the switch journal.
type SwitchEvent struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	SSID       string    `json:"ssid"`
	Adapter    string    `json:"adapter"`
	Mode       Mode      `json:"mode"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}
