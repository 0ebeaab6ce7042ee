package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Establishment is a sub-entity scoped to exactly one organisation. It is not
// independently authorized; access goes through the parent organisation.
type Establishment struct {
	ID             uuid.UUID       `json:"id"`
	OrganisationID uuid.UUID       `json:"organisation_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    *string         `json:"description,omitempty"`
	Logo           *string         `json:"logo,omitempty"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	Email          *string         `json:"email,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	Website        *string         `json:"website,omitempty"`
	Address        *string         `json:"address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewEstablishment creates an Establishment belonging to the given organisation.
func NewEstablishment(orgID uuid.UUID, name, slug string) *Establishment {
	now := time.Now()
	return &Establishment{
		ID:             uuid.New(),
		OrganisationID: orgID,
		Name:           name,
		Slug:           slug,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
