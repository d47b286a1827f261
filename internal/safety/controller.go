package safety

import (
	"time"

	"homeguard-engine/internal/models"
	"homeguard-engine/internal/notifier"

	"go.uber.org/zap"
)

// Controller owns the global safety modes: lockdown, panic flag and the
// emergency lights. Lockdown toggles are idempotent: a repeated call in the
// target state changes nothing and emits no notification.
type Controller struct {
	lockdown       bool
	lockdownReason string
	panic          bool
	lights         []*models.EmergencyLight
	minBattery     int
	notifier       notifier.Notifier
	logger         *zap.Logger
}

// NewController creates a controller over the given lights. minBattery is the
// usable battery floor (percent) below which a light is not activated.
func NewController(lights []models.EmergencyLight, minBattery int, n notifier.Notifier, logger *zap.Logger) *Controller {
	c := &Controller{
		minBattery: minBattery,
		notifier:   n,
		logger:     logger,
	}
	for i := range lights {
		l := lights[i]
		if l.Status == "" {
			l.Status = models.LightReady
		}
		c.lights = append(c.lights, &l)
	}
	return c
}

// DefaultLights the simulated emergency-light inventory
func DefaultLights() []models.EmergencyLight {
	return []models.EmergencyLight{
		{ID: "light-entrance", Location: "entrance", Floor: 1, Battery: 95},
		{ID: "light-hall-1f", Location: "hallway", Floor: 1, Battery: 88},
		{ID: "light-hall-2f", Location: "hallway", Floor: 2, Battery: 91},
		{ID: "light-basement", Location: "basement", Floor: 0, Battery: 72},
		{ID: "light-stairs", Location: "stairwell", Floor: 1, Battery: 3}, // depleted
	}
}

// ActivateLockdown enters lockdown and turns on usable emergency lights.
// Returns false (no-op) when lockdown is already active.
func (c *Controller) ActivateLockdown(reason string) bool {
	if c.lockdown {
		return false
	}
	c.lockdown = true
	c.lockdownReason = reason
	lit := c.ActivateLighting()

	c.logger.Info("Lockdown activated",
		zap.String("reason", reason),
		zap.Int("lights_on", lit),
	)
	c.notifier.Publish(notifier.KindLockdownActivated, map[string]interface{}{
		"reason":    reason,
		"lights_on": lit,
		"timestamp": time.Now(),
	})
	return true
}

// DeactivateLockdown lifts lockdown and returns the lights to ready.
// Returns false (no-op) when lockdown is not active.
func (c *Controller) DeactivateLockdown(reason string) bool {
	if !c.lockdown {
		return false
	}
	c.lockdown = false
	c.lockdownReason = ""
	c.DeactivateLighting()

	c.logger.Info("Lockdown deactivated",
		zap.String("reason", reason),
	)
	c.notifier.Publish(notifier.KindLockdownDeactivated, map[string]interface{}{
		"reason":    reason,
		"timestamp": time.Now(),
	})
	return true
}

// LockdownActive reports the lockdown flag
func (c *Controller) LockdownActive() bool {
	return c.lockdown
}

// ActivateLighting turns on every light with usable battery and returns how
// many are on.
func (c *Controller) ActivateLighting() int {
	n := 0
	for _, l := range c.lights {
		if l.Battery <= c.minBattery {
			c.logger.Warn("Emergency light battery too low",
				zap.String("light_id", l.ID),
				zap.Int("battery", l.Battery),
			)
			continue
		}
		l.Status = models.LightOn
		n++
	}
	return n
}

// DeactivateLighting returns all lights to ready and reports how many were on
func (c *Controller) DeactivateLighting() int {
	n := 0
	for _, l := range c.lights {
		if l.Status == models.LightOn {
			n++
		}
		l.Status = models.LightReady
	}
	return n
}

// SetPanic sets or clears the global panic flag. The caller (engine) opens
// the medical incident; deactivation clears the flag only.
func (c *Controller) SetPanic(active bool) {
	c.panic = active
}

// PanicActive reports the panic flag
func (c *Controller) PanicActive() bool {
	return c.panic
}

// Lights returns a snapshot of the light inventory
func (c *Controller) Lights() []models.EmergencyLight {
	out := make([]models.EmergencyLight, 0, len(c.lights))
	for _, l := range c.lights {
		out = append(out, *l)
	}
	return out
}

// Reset clears transient mode state on engine stop (lockdown, panic, lights)
func (c *Controller) Reset() {
	c.lockdown = false
	c.lockdownReason = ""
	c.panic = false
	c.DeactivateLighting()
}
