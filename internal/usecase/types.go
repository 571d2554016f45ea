package usecase

import (
	"context"

	"cvbuilder-backend/internal/domain"

	"github.com/google/uuid"
)

// Rasterizer drives a headless engine to turn a print-ready HTML document
// into PDF bytes.
type Rasterizer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// TemplatesRepo provides read-only access to authored templates.
type TemplatesRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
	// FirstActiveFree returns the fallback template used when a resume has
	// no stored selection.
	FirstActiveFree(ctx context.Context) (*domain.Template, error)
}

// ResumesRepo provides access to stored resume records.
type ResumesRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error)
}

// EntitlementsRepo reads the requester's current billing state. Entitlement
// must reflect payment state at call time, so results are never cached.
type EntitlementsRepo interface {
	GetRequester(ctx context.Context, userID uuid.UUID) (domain.Requester, error)
}

// Identity is the caller as established by the auth boundary: an
// authenticated user, an anonymous session, or both during migration.
type Identity struct {
	UserID    *uuid.UUID
	SessionID string
}

// owns reports whether this identity may access the given resume,
// mirroring the owner-or-session access rule.
func (id Identity) owns(r *domain.Resume) bool {
	if id.UserID != nil && r.UserID != nil && *id.UserID == *r.UserID {
		return true
	}
	if id.SessionID != "" && r.SessionID == id.SessionID {
		return true
	}
	return false
}

// Preview is the client-side rendering contract: evaluated markup plus the
// stylesheet, without rasterization.
type Preview struct {
	HTML         string `json:"html"`
	CSS          string `json:"css"`
	TemplateName string `json:"template_name"`
}

// ExportResult carries the finished PDF and its download filename.
type ExportResult struct {
	PDF      []byte
	Filename string
}
