package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resume stores user CV data. A resume belongs either to an anonymous
// session (SessionID) or to an authenticated user (UserID); section data
// is kept as JSON sequences so templates stay schema-flexible.
type Resume struct {
	ID        uuid.UUID  `json:"id"`
	SessionID string     `json:"session_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`

	TemplateID *uuid.UUID `json:"template,omitempty"`

	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	Website        string `json:"website"`
	LinkedinURL    string `json:"linkedin_url"`
	GithubURL      string `json:"github_url"`
	Photo          string `json:"photo"`
	DateOfBirth    string `json:"date_of_birth"`
	Nationality    string `json:"nationality"`
	DrivingLicense string `json:"driving_license"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`

	Experience     []interface{} `json:"experience_data"`
	Education      []interface{} `json:"education_data"`
	Skills         []interface{} `json:"skills_data"`
	Languages      []interface{} `json:"languages_data"`
	Certifications []interface{} `json:"certifications_data"`
	Projects       []interface{} `json:"projects_data"`
	CustomSections []interface{} `json:"custom_sections"`

	IsPaid      bool   `json:"is_paid"`
	PaymentType string `json:"payment_type"`

	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Template is authored content: HTML with embedded directives plus a
// stylesheet. Immutable at render time.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	IsPremium   bool      `json:"is_premium"`
	IsActive    bool      `json:"is_active"`
	HTML        string    `json:"template_html,omitempty"`
	CSS         string    `json:"template_css,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
