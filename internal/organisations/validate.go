// Package organisations implements the organisation lifecycle: listing,
// creation, display, update, and soft deletion, with authorization and slug
// management.
package organisations

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Input carries the submitted organisation fields. Optional fields are nil
// when absent; an empty string after trimming is treated as absent.
type Input struct {
	Name        string  `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
	Email       *string `json:"email" form:"email"`
	Phone       *string `json:"phone" form:"phone"`
	Website     *string `json:"website" form:"website"`
	Address     *string `json:"address" form:"address"`
}

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// normalize trims whitespace and collapses empty optional fields to nil.
func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	for _, field := range []**string{&in.Description, &in.Email, &in.Phone, &in.Website, &in.Address} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		if trimmed == "" {
			*field = nil
			continue
		}
		**field = trimmed
	}
}

// Validate normalizes the input and checks every field, collecting all
// failures rather than stopping at the first.
func (in *Input) Validate() error {
	in.normalize()

	fields := make(map[string]string)

	if in.Name == "" {
		fields["name"] = "Le nom de l'organisation est obligatoire."
	} else if utf8.RuneCountInString(in.Name) > 255 {
		fields["name"] = "Le nom ne peut pas dépasser 255 caractères."
	}

	if in.Email != nil {
		if utf8.RuneCountInString(*in.Email) > 255 {
			fields["email"] = "L'email ne peut pas dépasser 255 caractères."
		} else if _, err := mail.ParseAddress(*in.Email); err != nil {
			fields["email"] = "L'email doit être une adresse valide."
		}
	}

	if in.Phone != nil && utf8.RuneCountInString(*in.Phone) > 20 {
		fields["phone"] = "Le téléphone ne peut pas dépasser 20 caractères."
	}

	if in.Website != nil {
		if utf8.RuneCountInString(*in.Website) > 255 {
			fields["website"] = "Le site web ne peut pas dépasser 255 caractères."
		} else if !isValidURL(*in.Website) {
			fields["website"] = "Le site web doit être une URL valide."
		}
	}

	if in.Address != nil && utf8.RuneCountInString(*in.Address) > 500 {
		fields["address"] = "L'adresse ne peut pas dépasser 500 caractères."
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
