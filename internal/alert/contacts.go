package alert

import (
	"fmt"
	"sort"

	"homeguard-engine/internal/models"

	"github.com/google/uuid"
)

// ContactBook the emergency-contact list consumed by the dispatcher for
// severity >= 4 incidents. CRUD here is a pass-through surface; the engine
// core only reads it in priority order.
type ContactBook struct {
	contacts map[string]models.EmergencyContact
}

// NewContactBook creates an empty contact book
func NewContactBook() *ContactBook {
	return &ContactBook{
		contacts: make(map[string]models.EmergencyContact),
	}
}

// NewDefaultContactBook seeds the simulated household contacts
func NewDefaultContactBook() *ContactBook {
	b := NewContactBook()
	for _, c := range []models.EmergencyContact{
		{ID: "contact-security", Name: "Secure Home Monitoring", Number: "+1-555-0100", Type: "security", Priority: 1},
		{ID: "contact-family", Name: "Alex Morgan", Number: "+1-555-0101", Type: "family", Priority: 2},
		{ID: "contact-neighbor", Name: "Sam Rivera", Number: "+1-555-0102", Type: "neighbor", Priority: 3},
	} {
		b.contacts[c.ID] = c
	}
	return b
}

// Add validates and stores a contact. Name and number are required; a missing
// id is generated.
func (b *ContactBook) Add(contact models.EmergencyContact) (models.EmergencyContact, error) {
	if contact.Name == "" || contact.Number == "" {
		return models.EmergencyContact{}, fmt.Errorf("contact needs name and number: %w", models.ErrValidation)
	}
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.Type == "" {
		contact.Type = "other"
	}
	b.contacts[contact.ID] = contact
	return contact, nil
}

// Remove deletes a contact by id
func (b *ContactBook) Remove(id string) error {
	if _, ok := b.contacts[id]; !ok {
		return fmt.Errorf("contact %s: %w", id, models.ErrNotFound)
	}
	delete(b.contacts, id)
	return nil
}

// Replace swaps the whole book (startup load from the contact repository)
func (b *ContactBook) Replace(contacts []models.EmergencyContact) {
	b.contacts = make(map[string]models.EmergencyContact, len(contacts))
	for _, c := range contacts {
		b.contacts[c.ID] = c
	}
}

// List returns contacts ordered by ascending priority (lower first)
func (b *ContactBook) List() []models.EmergencyContact {
	out := make([]models.EmergencyContact, 0, len(b.contacts))
	for _, c := range b.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}
