package models

// Emergency type identifiers
const (
	EmergencyFire           = "fire"
	EmergencyFlood          = "flood"
	EmergencyGasLeak        = "gas-leak"
	EmergencyCarbonMonoxide = "carbon-monoxide"
	EmergencyIntruder       = "intruder"
	EmergencyMedical        = "medical"
	EmergencyPowerFailure   = "power-failure"
	EmergencyStorm          = "storm"
	EmergencyEarthquake     = "earthquake"
	EmergencyGeneric        = "generic"
)

// ActionKind tagged variant over the protocol actions an incident can execute.
// Interpreted by the incident executor; serializable so protocols can be
// overridden from the catalog file and tested without real side effects.
type ActionKind string

const (
	ActionActivateLighting ActionKind = "activate_lighting"
	ActionLockdown         ActionKind = "lockdown"
	ActionUnlockExits      ActionKind = "unlock_exits"
	ActionNotifyContacts   ActionKind = "notify_contacts"
	ActionGasShutoff       ActionKind = "gas_shutoff"
	ActionVentilate        ActionKind = "ventilate"
	ActionPowerCheck       ActionKind = "power_check"
	ActionBroadcast        ActionKind = "broadcast"
	ActionMedicalInfo      ActionKind = "medical_info"
	ActionDocument         ActionKind = "document"
)

// ActionStep one step of a response protocol
type ActionStep struct {
	Kind        ActionKind `json:"kind" yaml:"kind"`
	Description string     `json:"description" yaml:"description"`
}

// EmergencyType immutable configuration for one emergency class
type EmergencyType struct {
	ID               string       `json:"id" yaml:"id"`
	Label            string       `json:"label" yaml:"label"`
	BaseSeverity     int          `json:"base_severity" yaml:"base_severity"` // 1-5
	ResponseProtocol []ActionStep `json:"response_protocol" yaml:"response_protocol"`
	RecoverySteps    []string     `json:"recovery_steps,omitempty" yaml:"recovery_steps,omitempty"`
}
