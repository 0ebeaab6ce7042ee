package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisation is the top-level tenant entity. It is owned by a single user
// and carries a membership list through the organisation_user pivot.
//
// The slug is unique among non-deleted organisations and always derived from
// the name. Destroying an organisation sets DeletedAt; the row and its pivot
// rows are kept for audit purposes.
type Organisation struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	Logo        *string    `json:"logo,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Address     *string    `json:"address,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewOrganisation creates an Organisation owned by the given user.
func NewOrganisation(name, slug string, ownerID uuid.UUID) *Organisation {
	now := time.Now()
	return &Organisation{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDeleted returns true if the organisation has been soft-deleted.
func (o *Organisation) IsDeleted() bool {
	return o.DeletedAt != nil
}

// OrganisationSummary is the list read model: the organisation with its
// owner's public profile and a count of dependent establishments.
type OrganisationSummary struct {
	Organisation
	Owner               PublicProfile `json:"owner"`
	EstablishmentsCount int           `json:"establishments_count"`
}

// OrganisationDetail is the show read model. Each read operation declares
// exactly which related collections it returns.
type OrganisationDetail struct {
	Organisation
	Owner          PublicProfile    `json:"owner"`
	Establishments []*Establishment `json:"establishments"`
	Members        []PublicProfile  `json:"users"`
}

// PageMeta describes a pagination envelope.
type PageMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// OrganisationPage is one page of organisation summaries.
type OrganisationPage struct {
	Data []*OrganisationSummary `json:"data"`
	Meta PageMeta               `json:"meta"`
}
