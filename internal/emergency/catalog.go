package emergency

import (
	"fmt"
	"os"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog immutable set of emergency types keyed by id
type Catalog struct {
	types  map[string]models.EmergencyType
	order  []string
	logger *zap.Logger
}

// NewCatalog creates a catalog with the built-in ten types
func NewCatalog(logger *zap.Logger) *Catalog {
	c := &Catalog{
		types:  make(map[string]models.EmergencyType),
		logger: logger,
	}
	for _, t := range builtinTypes() {
		c.types[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c
}

// NewCatalogFromFile creates a catalog, then applies overrides from a YAML
// file. Types in the file replace the built-in type with the same id.
func NewCatalogFromFile(path string, logger *zap.Logger) (*Catalog, error) {
	c := NewCatalog(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file struct {
		Types []models.EmergencyType `yaml:"types"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for _, t := range file.Types {
		if t.ID == "" || t.BaseSeverity < 1 || t.BaseSeverity > 5 {
			return nil, fmt.Errorf("catalog type %q: %w", t.ID, models.ErrValidation)
		}
		if _, exists := c.types[t.ID]; !exists {
			c.order = append(c.order, t.ID)
		}
		c.types[t.ID] = t
		logger.Info("Emergency type overridden from catalog file",
			zap.String("type_id", t.ID),
			zap.Int("base_severity", t.BaseSeverity),
		)
	}

	return c, nil
}

// Get looks up a type by id
func (c *Catalog) Get(id string) (models.EmergencyType, error) {
	t, ok := c.types[id]
	if !ok {
		return models.EmergencyType{}, fmt.Errorf("emergency type %s: %w", id, models.ErrNotFound)
	}
	return t, nil
}

// All returns every type in registration order
func (c *Catalog) All() []models.EmergencyType {
	out := make([]models.EmergencyType, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.types[id])
	}
	return out
}

func builtinTypes() []models.EmergencyType {
	return []models.EmergencyType{
		{
			ID:           models.EmergencyFire,
			Label:        "Fire",
			BaseSeverity: 5,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionActivateLighting, Description: "Activate emergency lighting"},
				{Kind: models.ActionUnlockExits, Description: "Unlock all exit doors"},
				{Kind: models.ActionGasShutoff, Description: "Shut off gas supply"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
				{Kind: models.ActionBroadcast, Description: "Broadcast evacuation announcement"},
			},
			RecoverySteps: []string{
				"Ventilate smoke from all rooms",
				"Inspect electrical wiring for heat damage",
				"Restock fire extinguishers",
				"Reset smoke detectors",
			},
		},
		{
			ID:           models.EmergencyFlood,
			Label:        "Flood",
			BaseSeverity: 4,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionPowerCheck, Description: "Cut power to affected floor"},
				{Kind: models.ActionActivateLighting, Description: "Activate emergency lighting"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
				{Kind: models.ActionDocument, Description: "Start water-level documentation"},
			},
			RecoverySteps: []string{
				"Pump out standing water",
				"Run dehumidifiers for 48 hours",
				"Inspect for mold growth",
			},
		},
		{
			ID:           models.EmergencyGasLeak,
			Label:        "Gas Leak",
			BaseSeverity: 5,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionGasShutoff, Description: "Shut off gas supply at main valve"},
				{Kind: models.ActionVentilate, Description: "Open ventilation on all floors"},
				{Kind: models.ActionUnlockExits, Description: "Unlock all exit doors"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
				{Kind: models.ActionBroadcast, Description: "Broadcast no-ignition warning"},
			},
			RecoverySteps: []string{
				"Professional leak inspection before gas restore",
				"Ventilate until gas readings are nominal",
			},
		},
		{
			ID:           models.EmergencyCarbonMonoxide,
			Label:        "Carbon Monoxide",
			BaseSeverity: 5,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionVentilate, Description: "Maximize fresh-air ventilation"},
				{Kind: models.ActionUnlockExits, Description: "Unlock all exit doors"},
				{Kind: models.ActionBroadcast, Description: "Broadcast evacuation announcement"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
			},
			RecoverySteps: []string{
				"Identify and service the CO source",
				"Ventilate until CO readings are nominal",
				"Reset CO detectors",
			},
		},
		{
			ID:           models.EmergencyIntruder,
			Label:        "Intruder",
			BaseSeverity: 4,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionLockdown, Description: "Activate lockdown"},
				{Kind: models.ActionActivateLighting, Description: "Activate perimeter lighting"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
				{Kind: models.ActionDocument, Description: "Start camera recording"},
			},
			RecoverySteps: []string{
				"Review camera footage",
				"Inspect entry points for damage",
			},
		},
		{
			ID:           models.EmergencyMedical,
			Label:        "Medical",
			BaseSeverity: 5,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionUnlockExits, Description: "Unlock entrance for responders"},
				{Kind: models.ActionActivateLighting, Description: "Light the path to the incident"},
				{Kind: models.ActionMedicalInfo, Description: "Prepare occupant medical summary"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
			},
		},
		{
			ID:           models.EmergencyPowerFailure,
			Label:        "Power Failure",
			BaseSeverity: 3,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionActivateLighting, Description: "Activate emergency lighting"},
				{Kind: models.ActionPowerCheck, Description: "Verify backup power engagement"},
				{Kind: models.ActionBroadcast, Description: "Announce backup power in use"},
			},
			RecoverySteps: []string{
				"Verify all circuits restored",
				"Recharge UPS and battery banks",
				"Refuel generator",
			},
		},
		{
			ID:           models.EmergencyStorm,
			Label:        "Severe Storm",
			BaseSeverity: 3,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionBroadcast, Description: "Announce shelter-in-place"},
				{Kind: models.ActionPowerCheck, Description: "Pre-arm power backup"},
				{Kind: models.ActionDocument, Description: "Log storm readings"},
			},
			RecoverySteps: []string{
				"Inspect roof and windows for damage",
			},
		},
		{
			ID:           models.EmergencyEarthquake,
			Label:        "Earthquake",
			BaseSeverity: 5,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionGasShutoff, Description: "Shut off gas supply"},
				{Kind: models.ActionUnlockExits, Description: "Unlock all exit doors"},
				{Kind: models.ActionActivateLighting, Description: "Activate emergency lighting"},
				{Kind: models.ActionBroadcast, Description: "Broadcast drop-cover-hold warning"},
				{Kind: models.ActionNotifyContacts, Description: "Notify emergency contacts"},
			},
			RecoverySteps: []string{
				"Structural inspection before re-entry",
				"Check gas and water lines for rupture",
				"Inspect foundation sensors",
			},
		},
		{
			ID:           models.EmergencyGeneric,
			Label:        "General Emergency",
			BaseSeverity: 2,
			ResponseProtocol: []models.ActionStep{
				{Kind: models.ActionDocument, Description: "Log emergency details"},
				{Kind: models.ActionBroadcast, Description: "Announce caution advisory"},
			},
		},
	}
}
