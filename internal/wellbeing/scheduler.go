package wellbeing

import (
	"fmt"
	"time"

	"homeguard-engine/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler tracks post-incident occupant check-ins. Checks move from the
// pending list to the completed list on response and are never deleted.
type Scheduler struct {
	pending   map[string]*models.WellbeingCheck
	completed []models.WellbeingCheck
	order     []string
	logger    *zap.Logger
}

// NewScheduler creates an empty scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		pending: make(map[string]*models.WellbeingCheck),
		logger:  logger,
	}
}

// Schedule appends a pending check for the incident
func (s *Scheduler) Schedule(incidentID string, now time.Time) models.WellbeingCheck {
	check := models.WellbeingCheck{
		ID:          uuid.New().String(),
		IncidentID:  incidentID,
		ScheduledAt: now,
		Status:      models.CheckPending,
	}
	s.pending[check.ID] = &check
	s.order = append(s.order, check.ID)

	s.logger.Info("Wellbeing check scheduled",
		zap.String("check_id", check.ID),
		zap.String("incident_id", incidentID),
	)
	return check
}

// Respond completes a pending check with the occupant's response
func (s *Scheduler) Respond(checkID, response string, now time.Time) (models.WellbeingCheck, error) {
	check, ok := s.pending[checkID]
	if !ok {
		return models.WellbeingCheck{}, fmt.Errorf("wellbeing check %s: %w", checkID, models.ErrNotFound)
	}

	check.Status = models.CheckCompleted
	check.Response = &response
	ts := now
	check.RespondedAt = &ts

	delete(s.pending, checkID)
	s.completed = append(s.completed, *check)

	s.logger.Info("Wellbeing check completed",
		zap.String("check_id", checkID),
		zap.String("response", response),
	)
	return *check, nil
}

// Pending returns pending checks in scheduling order
func (s *Scheduler) Pending() []models.WellbeingCheck {
	out := make([]models.WellbeingCheck, 0, len(s.pending))
	for _, id := range s.order {
		if c, ok := s.pending[id]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// Completed returns completed checks in completion order
func (s *Scheduler) Completed() []models.WellbeingCheck {
	out := make([]models.WellbeingCheck, len(s.completed))
	copy(out, s.completed)
	return out
}

// OverdueCount counts pending checks older than maxAge (wellbeing poll)
func (s *Scheduler) OverdueCount(now time.Time, maxAge time.Duration) int {
	n := 0
	for _, c := range s.pending {
		if now.Sub(c.ScheduledAt) > maxAge {
			n++
		}
	}
	return n
}
