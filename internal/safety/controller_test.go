package safety

import (
	"sync"
	"testing"

	"homeguard-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recorder captures published notifications
type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) Publish(kind string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func newTestController() (*Controller, *recorder) {
	rec := &recorder{}
	return NewController(DefaultLights(), 5, rec, zap.NewNop()), rec
}

func TestActivateLockdown_Idempotent(t *testing.T) {
	c, rec := newTestController()

	assert.True(t, c.ActivateLockdown("intruder detected"))
	assert.False(t, c.ActivateLockdown("intruder detected again"))
	assert.True(t, c.LockdownActive())

	// exactly one activation notification despite two calls
	assert.Equal(t, 1, rec.count("lockdown_activated"))
}

func TestDeactivateLockdown_Idempotent(t *testing.T) {
	c, rec := newTestController()

	require.True(t, c.ActivateLockdown("test"))
	assert.True(t, c.DeactivateLockdown("all clear"))
	assert.False(t, c.DeactivateLockdown("all clear"))
	assert.False(t, c.LockdownActive())

	assert.Equal(t, 1, rec.count("lockdown_deactivated"))
}

func TestLighting_SkipsDepletedBattery(t *testing.T) {
	c, _ := newTestController()

	// DefaultLights has one light at 3% battery, below the 5% floor
	lit := c.ActivateLighting()
	assert.Equal(t, len(DefaultLights())-1, lit)

	for _, l := range c.Lights() {
		if l.ID == "light-stairs" {
			assert.Equal(t, models.LightReady, l.Status)
		} else {
			assert.Equal(t, models.LightOn, l.Status)
		}
	}
}

func TestDeactivateLighting_ReturnsAllToReady(t *testing.T) {
	c, _ := newTestController()

	c.ActivateLighting()
	wasOn := c.DeactivateLighting()
	assert.Equal(t, len(DefaultLights())-1, wasOn)

	for _, l := range c.Lights() {
		assert.Equal(t, models.LightReady, l.Status)
	}
}

func TestLockdownActivatesLighting(t *testing.T) {
	c, _ := newTestController()

	c.ActivateLockdown("test")
	on := 0
	for _, l := range c.Lights() {
		if l.Status == models.LightOn {
			on++
		}
	}
	assert.Equal(t, len(DefaultLights())-1, on)
}

func TestPanicFlag(t *testing.T) {
	c, _ := newTestController()

	c.SetPanic(true)
	assert.True(t, c.PanicActive())
	c.SetPanic(false)
	assert.False(t, c.PanicActive())
}

func TestReset_ClearsTransientState(t *testing.T) {
	c, _ := newTestController()

	c.ActivateLockdown("test")
	c.SetPanic(true)
	c.Reset()

	assert.False(t, c.LockdownActive())
	assert.False(t, c.PanicActive())
	for _, l := range c.Lights() {
		assert.Equal(t, models.LightReady, l.Status)
	}
}
