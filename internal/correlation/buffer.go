package correlation

import (
	"fmt"
	"strings"
	"time"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// Match one successful rule match: the inferred emergency type plus the
// consumed events and a human-readable reason.
type Match struct {
	RuleID        string
	EmergencyType string
	Reason        string
	Events        []models.SensorEvent
}

// Warning a single sensor event that matched no rule on its first scan
type Warning struct {
	Event   models.SensorEvent
	Message string
}

type bufferedEvent struct {
	event  models.SensorEvent
	warned bool
}

// Buffer time-bounded queue of raw sensor events, scanned on a fixed cadence
// against the registered correlation rules. Events consumed by a match are
// removed so the same match never fires twice; unmatched events emit one
// warning and stay until pruned.
type Buffer struct {
	window time.Duration
	rules  []Rule
	events []*bufferedEvent
	logger *zap.Logger
}

// NewBuffer creates a buffer with the given window and rule set
func NewBuffer(window time.Duration, rules []Rule, logger *zap.Logger) *Buffer {
	return &Buffer{
		window: window,
		rules:  rules,
		logger: logger,
	}
}

// Add appends a validated event. The caller has already checked the sensor
// against the registry and stamped the timestamp.
func (b *Buffer) Add(event models.SensorEvent) {
	b.events = append(b.events, &bufferedEvent{event: event})
}

// Len current number of buffered events
func (b *Buffer) Len() int {
	return len(b.events)
}

// Clear drops all buffered events (engine stop)
func (b *Buffer) Clear() {
	b.events = nil
}

// Scan prunes events older than the window relative to now, then matches the
// remaining events against the rules. Matched events are consumed; events
// matching no rule produce a one-shot warning each.
func (b *Buffer) Scan(now time.Time) ([]Match, []Warning) {
	b.prune(now)

	var matches []Match
	for _, rule := range b.rules {
		if m, ok := b.matchRule(rule); ok {
			matches = append(matches, m)
			b.logger.Info("Correlation rule matched",
				zap.String("rule_id", rule.ID),
				zap.String("emergency_type", rule.EmergencyType),
				zap.Int("event_count", len(m.Events)),
			)
		}
	}

	var warnings []Warning
	for _, be := range b.events {
		if be.warned {
			continue
		}
		be.warned = true
		warnings = append(warnings, Warning{
			Event: be.event,
			Message: fmt.Sprintf("Sensor %s reported %s at %s (no correlated pattern yet)",
				be.event.SensorID, be.event.EventType, be.event.Location),
		})
	}

	return matches, warnings
}

// prune removes events older than the correlation window
func (b *Buffer) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.events[:0]
	dropped := 0
	for _, be := range b.events {
		if be.event.Timestamp.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, be)
	}
	b.events = kept

	if dropped > 0 {
		b.logger.Debug("Pruned stale sensor events",
			zap.Int("dropped", dropped),
			zap.Int("remaining", len(b.events)),
		)
	}
}

// matchRule attempts one match for the rule and consumes the events on success
func (b *Buffer) matchRule(rule Rule) (Match, bool) {
	switch rule.Match {
	case MatchAllOf:
		return b.matchAllOf(rule)
	case MatchCount:
		return b.matchCount(rule)
	default:
		return Match{}, false
	}
}

func (b *Buffer) matchAllOf(rule Rule) (Match, bool) {
	used := make(map[int]bool, len(rule.AllOf))
	picked := make([]int, 0, len(rule.AllOf))

	for _, combo := range rule.AllOf {
		found := -1
		for i, be := range b.events {
			if used[i] {
				continue
			}
			if be.event.SensorType == combo.SensorType && be.event.EventType == combo.EventType {
				found = i
				break
			}
		}
		if found < 0 {
			return Match{}, false
		}
		used[found] = true
		picked = append(picked, found)
	}

	return b.consume(rule, picked), true
}

func (b *Buffer) matchCount(rule Rule) (Match, bool) {
	seen := make(map[string]bool)
	picked := make([]int, 0, rule.MinCount)

	for i, be := range b.events {
		if be.event.SensorType != rule.SensorType {
			continue
		}
		if rule.EventType != "" && be.event.EventType != rule.EventType {
			continue
		}
		if seen[be.event.SensorID] {
			continue
		}
		seen[be.event.SensorID] = true
		picked = append(picked, i)
		if len(picked) == rule.MinCount {
			break
		}
	}

	if len(picked) < rule.MinCount {
		return Match{}, false
	}

	return b.consume(rule, picked), true
}

// consume removes the picked events and builds the match
func (b *Buffer) consume(rule Rule, picked []int) Match {
	pickedSet := make(map[int]bool, len(picked))
	for _, i := range picked {
		pickedSet[i] = true
	}

	var events []models.SensorEvent
	var parts []string
	kept := make([]*bufferedEvent, 0, len(b.events))
	for i, be := range b.events {
		if pickedSet[i] {
			events = append(events, be.event)
			parts = append(parts, fmt.Sprintf("%s (%s) at %s", be.event.SensorID, be.event.EventType, be.event.Location))
			continue
		}
		kept = append(kept, be)
	}
	b.events = kept

	return Match{
		RuleID:        rule.ID,
		EmergencyType: rule.EmergencyType,
		Reason:        fmt.Sprintf("Correlated sensor events: %s", strings.Join(parts, ", ")),
		Events:        events,
	}
}
