package models

import (
	"time"
)

// Backup unit names
const (
	BackupUPS       = "ups"
	BackupBattery   = "battery"
	BackupGenerator = "generator"
)

// BackupStatus state of one backup unit
type BackupStatus string

const (
	BackupStandby     BackupStatus = "standby"
	BackupActive      BackupStatus = "active"
	BackupDischarging BackupStatus = "discharging"
	BackupStarting    BackupStatus = "starting"
	BackupRunning     BackupStatus = "running"
)

// Overall backup health
const (
	BackupHealthOptimal  = "optimal"
	BackupHealthDegraded = "degraded"
)

// BackupUnit one power backup system. Level is battery charge for the UPS
// and battery, fuel for the generator (percent).
type BackupUnit struct {
	Name      string       `json:"name"`
	Status    BackupStatus `json:"status"`
	Level     int          `json:"level"`
	AutoStart bool         `json:"auto_start"`
	ReadyAt   *time.Time   `json:"ready_at,omitempty"` // generator only, while starting
}

// PowerBackupStatus snapshot returned by the supervisor
type PowerBackupStatus struct {
	Health      string       `json:"health"` // optimal / degraded
	GridOnline  bool         `json:"grid_online"`
	Units       []BackupUnit `json:"units"`
	LastFailure *time.Time   `json:"last_failure,omitempty"`
}
