package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// IncidentLogRepository append-only incident log in PostgreSQL. The engine
// is the single writer; the repository never mutates engine state.
type IncidentLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIncidentLogRepository creates the repository
func NewIncidentLogRepository(db *sql.DB, logger *zap.Logger) *IncidentLogRepository {
	return &IncidentLogRepository{
		db:     db,
		logger: logger,
	}
}

// SaveIncident inserts a newly created incident
func (r *IncidentLogRepository) SaveIncident(ctx context.Context, inc *models.Incident) error {
	if inc.ID == "" {
		return fmt.Errorf("incident id is required")
	}

	detailsJSON, err := marshalOrEmptyObject(inc.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}
	actionsJSON, err := json.Marshal(inc.ActionsExecuted)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}
	alertsJSON, err := json.Marshal(inc.AlertsSent)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	query := `
		INSERT INTO incidents (
			incident_id, type_id, severity, status, reason,
			details, triggered_at, actions_executed, alerts_sent, updates
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '[]')
	`
	_, err = r.db.ExecContext(ctx, query,
		inc.ID,
		inc.TypeID,
		inc.Severity,
		string(inc.Status),
		inc.Reason,
		detailsJSON,
		inc.TriggeredAt,
		string(actionsJSON),
		string(alertsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}

	r.logger.Debug("Incident persisted",
		zap.String("incident_id", inc.ID),
		zap.String("type_id", inc.TypeID),
	)
	return nil
}

// MarkResolved updates the resolution fields of a logged incident
func (r *IncidentLogRepository) MarkResolved(ctx context.Context, inc *models.Incident) error {
	if inc.ID == "" {
		return fmt.Errorf("incident id is required")
	}
	if inc.ResolvedAt == nil || inc.Resolution == nil || inc.ResponseTimeMs == nil {
		return fmt.Errorf("incident %s is not resolved", inc.ID)
	}

	updatesJSON, err := json.Marshal(inc.Updates)
	if err != nil {
		return fmt.Errorf("failed to marshal updates: %w", err)
	}

	query := `
		UPDATE incidents
		SET status = $2,
		    resolved_at = $3,
		    resolution = $4,
		    response_time_ms = $5,
		    updates = $6
		WHERE incident_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		inc.ID,
		string(inc.Status),
		*inc.ResolvedAt,
		*inc.Resolution,
		*inc.ResponseTimeMs,
		string(updatesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("incident %s: %w", inc.ID, models.ErrNotFound)
	}

	return nil
}

// ListRecent returns logged incidents newest first, up to limit
func (r *IncidentLogRepository) ListRecent(ctx context.Context, limit int) ([]models.Incident, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			incident_id, type_id, severity, status, reason,
			details, triggered_at, resolved_at, resolution, response_time_ms,
			actions_executed, alerts_sent, updates
		FROM incidents
		ORDER BY triggered_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		var inc models.Incident
		var status string
		var detailsJSON, actionsJSON, alertsJSON, updatesJSON []byte
		var resolvedAt sql.NullTime
		var resolution sql.NullString
		var responseTimeMs sql.NullInt64

		if err := rows.Scan(
			&inc.ID,
			&inc.TypeID,
			&inc.Severity,
			&status,
			&inc.Reason,
			&detailsJSON,
			&inc.TriggeredAt,
			&resolvedAt,
			&resolution,
			&responseTimeMs,
			&actionsJSON,
			&alertsJSON,
			&updatesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}

		inc.Status = models.IncidentStatus(status)
		if resolvedAt.Valid {
			t := resolvedAt.Time
			inc.ResolvedAt = &t
		}
		if resolution.Valid {
			s := resolution.String
			inc.Resolution = &s
		}
		if responseTimeMs.Valid {
			n := responseTimeMs.Int64
			inc.ResponseTimeMs = &n
		}

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &inc.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal details: %w", err)
			}
		}
		if err := json.Unmarshal(actionsJSON, &inc.ActionsExecuted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
		if err := json.Unmarshal(alertsJSON, &inc.AlertsSent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
		}
		if err := json.Unmarshal(updatesJSON, &inc.Updates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal updates: %w", err)
		}

		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}

	return incidents, nil
}

func marshalOrEmptyObject(v map[string]interface{}) (string, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
