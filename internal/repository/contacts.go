package repository

import (
	"context"
	"database/sql"
	"fmt"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// ContactRepository loads the emergency-contact book from PostgreSQL at
// startup. Contact CRUD during operation happens in memory; this repository
// is the durable source.
type ContactRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContactRepository creates the repository
func NewContactRepository(db *sql.DB, logger *zap.Logger) *ContactRepository {
	return &ContactRepository{
		db:     db,
		logger: logger,
	}
}

// ListContacts returns all contacts ordered by ascending priority
func (r *ContactRepository) ListContacts(ctx context.Context) ([]models.EmergencyContact, error) {
	query := `
		SELECT contact_id, name, number, contact_type, priority
		FROM emergency_contacts
		ORDER BY priority ASC, contact_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.EmergencyContact
	for rows.Next() {
		var c models.EmergencyContact
		if err := rows.Scan(&c.ID, &c.Name, &c.Number, &c.Type, &c.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	r.logger.Info("Emergency contacts loaded",
		zap.Int("count", len(contacts)),
	)
	return contacts, nil
}

// SaveContact upserts one contact
func (r *ContactRepository) SaveContact(ctx context.Context, c models.EmergencyContact) error {
	if c.ID == "" || c.Name == "" || c.Number == "" {
		return fmt.Errorf("contact needs id, name and number: %w", models.ErrValidation)
	}

	query := `
		INSERT INTO emergency_contacts (contact_id, name, number, contact_type, priority)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contact_id) DO UPDATE
		SET name = $2, number = $3, contact_type = $4, priority = $5
	`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Number, c.Type, c.Priority); err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}
