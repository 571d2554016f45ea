package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"cvbuilder-backend/internal/domain"
	"cvbuilder-backend/internal/model"
	"cvbuilder-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionCookie = "cv_session"

// TemplateCatalog lists and fetches authored templates.
type TemplateCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
	List(ctx context.Context, premium *bool) ([]domain.Template, error)
}

// ResumeStore is the persistence surface the CRUD endpoints need.
type ResumeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error)
	Save(ctx context.Context, r *domain.Resume) error
	ListByOwner(ctx context.Context, userID *uuid.UUID, sessionID string) ([]domain.Resume, error)
	TouchLastAccessed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	MigrateSession(ctx context.Context, sessionID string, userID uuid.UUID) ([]uuid.UUID, error)
}

// Renderer is the rendering/export surface, implemented by usecase.Service.
type Renderer interface {
	RenderHTML(ctx context.Context, caller usecase.Identity, resumeID uuid.UUID, templateOverride *uuid.UUID) (*usecase.Preview, error)
	ExportPDF(ctx context.Context, caller usecase.Identity, resumeID uuid.UUID, templateOverride *uuid.UUID) (*usecase.ExportResult, error)
}

type Handler struct {
	templates TemplateCatalog
	resumes   ResumeStore
	renderer  Renderer
}

func NewHandler(templates TemplateCatalog, resumes ResumeStore, renderer Renderer) *Handler {
	return &Handler{templates: templates, resumes: resumes, renderer: renderer}
}

func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/templates", h.ListTemplates)
	api.Get("/templates/free", h.listTemplatesByTier(false))
	api.Get("/templates/premium", h.listTemplatesByTier(true))
	api.Get("/templates/:id", h.GetTemplate)

	api.Post("/resumes", h.CreateResume)
	api.Get("/resumes", h.ListResumes)
	api.Post("/resumes/migrate", h.MigrateSession)
	api.Get("/resumes/:id", h.GetResume)
	api.Patch("/resumes/:id", h.UpdateResume)
	api.Delete("/resumes/:id", h.DeleteResume)
	api.Get("/resumes/:id/render", h.RenderResume)
	api.Post("/resumes/:id/export", h.ExportResume)
}

// identity resolves the caller from the auth boundary: an X-User-ID header
// set by the upstream gateway, plus the anonymous session cookie (or its
// header fallback for non-browser clients).
func (h *Handler) identity(c *fiber.Ctx) usecase.Identity {
	id := usecase.Identity{SessionID: c.Cookies(sessionCookie)}
	if id.SessionID == "" {
		id.SessionID = c.Get("X-Session-ID")
	}
	if raw := c.Get("X-User-ID"); raw != "" {
		if uid, err := uuid.Parse(raw); err == nil {
			id.UserID = &uid
		}
	}
	return id
}

// ensureSession guarantees an anonymous caller has a session to own what
// it creates, minting and setting the cookie when absent.
func (h *Handler) ensureSession(c *fiber.Ctx, id *usecase.Identity) {
	if id.UserID != nil || id.SessionID != "" {
		return
	}
	id.SessionID = uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id.SessionID,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	var premium *bool
	switch c.Query("premium") {
	case "true":
		v := true
		premium = &v
	case "false":
		v := false
		premium = &v
	}
	return h.listCatalog(c, premium)
}

func (h *Handler) listTemplatesByTier(premium bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.listCatalog(c, &premium)
	}
}

func (h *Handler) listCatalog(c *fiber.Ctx, premium *bool) error {
	templates, err := h.templates.List(c.Context(), premium)
	if err != nil {
		return h.respondError(c, err)
	}
	// Catalog listings omit template bodies; GET /templates/:id has them.
	for i := range templates {
		templates[i].HTML = ""
		templates[i].CSS = ""
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (h *Handler) GetTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid template id"})
	}
	tpl, err := h.templates.GetByID(c.Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(tpl)
}

func (h *Handler) CreateResume(c *fiber.Ctx) error {
	payload, err := parsePayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := model.ValidateResumePayload(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	id := h.identity(c)
	h.ensureSession(c, &id)

	resume := &domain.Resume{ID: uuid.New(), UserID: id.UserID, SessionID: id.SessionID}
	if err := applyPayload(resume, payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := h.resumes.Save(c.Context(), resume); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resume)
}

func (h *Handler) ListResumes(c *fiber.Ctx) error {
	id := h.identity(c)
	if id.UserID == nil && id.SessionID == "" {
		return c.JSON(fiber.Map{"resumes": []domain.Resume{}})
	}
	resumes, err := h.resumes.ListByOwner(c.Context(), id.UserID, id.SessionID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"resumes": resumes})
}

func (h *Handler) GetResume(c *fiber.Ctx) error {
	resume, err := h.ownedResume(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.resumes.TouchLastAccessed(c.Context(), resume.ID); err != nil {
		slog.Warn("failed to touch last_accessed", "resume_id", resume.ID, "error", err)
	}
	return c.JSON(resume)
}

func (h *Handler) UpdateResume(c *fiber.Ctx) error {
	resume, err := h.ownedResume(c)
	if err != nil {
		return h.respondError(c, err)
	}
	payload, err := parsePayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if err := model.ValidateResumePayload(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := applyPayload(resume, payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	// Auto-save: every update counts as activity.
	resume.LastAccessed = time.Now().UTC()
	if err := h.resumes.Save(c.Context(), resume); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resume)
}

func (h *Handler) DeleteResume(c *fiber.Ctx) error {
	resume, err := h.ownedResume(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.resumes.Delete(c.Context(), resume.ID); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) RenderResume(c *fiber.Ctx) error {
	resumeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid resume id"})
	}
	override, err := templateOverride(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid template id"})
	}
	preview, err := h.renderer.RenderHTML(c.Context(), h.identity(c), resumeID, override)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(preview)
}

func (h *Handler) ExportResume(c *fiber.Ctx) error {
	resumeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid resume id"})
	}
	override, err := templateOverride(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid template id"})
	}
	result, err := h.renderer.ExportPDF(c.Context(), h.identity(c), resumeID, override)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+result.Filename+`"`)
	return c.Send(result.PDF)
}

func (h *Handler) MigrateSession(c *fiber.Ctx) error {
	id := h.identity(c)
	if id.UserID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = id.SessionID
	}
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id required"})
	}

	ids, err := h.resumes.MigrateSession(c.Context(), sessionID, *id.UserID)
	if err != nil {
		return h.respondError(c, err)
	}
	slog.Info("session migrated", "user_id", *id.UserID, "migrated_count", len(ids))
	return c.JSON(fiber.Map{"migrated_count": len(ids), "resume_ids": ids})
}

// ownedResume fetches the resume and applies the owner-or-session rule.
// A foreign resume reads as absent, never as forbidden.
func (h *Handler) ownedResume(c *fiber.Ctx) (*domain.Resume, error) {
	resumeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, domain.ErrResumeNotFound
	}
	resume, err := h.resumes.GetByID(c.Context(), resumeID)
	if err != nil {
		return nil, err
	}
	id := h.identity(c)
	owned := (id.UserID != nil && resume.UserID != nil && *id.UserID == *resume.UserID) ||
		(id.SessionID != "" && resume.SessionID == id.SessionID)
	if !owned {
		return nil, domain.ErrResumeNotFound
	}
	return resume, nil
}

func templateOverride(c *fiber.Ctx) (*uuid.UUID, error) {
	raw := c.Query("template")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parsePayload(c *fiber.Ctx) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(c.Body(), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// applyPayload merges validated payload fields into the record through its
// JSON tags, keeping identity and billing fields server-controlled.
func applyPayload(resume *domain.Resume, payload map[string]interface{}) error {
	for _, reserved := range []string{"id", "session_id", "user_id", "is_paid", "payment_type",
		"created_at", "updated_at", "last_accessed"} {
		delete(payload, reserved)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, resume)
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var payErr *domain.PaymentRequiredError
	var evalErr *domain.TemplateEvalError
	var engineErr *domain.RenderEngineError

	switch {
	case errors.As(err, &payErr):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":           "payment required",
			"reason":          payErr.Reason,
			"resume_id":       payErr.ResumeID,
			"payment_options": payErr.Options,
		})
	case errors.Is(err, domain.ErrResumeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "resume not found"})
	case errors.Is(err, domain.ErrTemplateNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "template not found"})
	case errors.Is(err, domain.ErrNoTemplateAvailable):
		slog.Error("no active template available")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no template available"})
	case errors.As(err, &evalErr):
		slog.Error("template evaluation failed",
			"template_id", evalErr.TemplateID, "template", evalErr.TemplateName, "error", evalErr.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "template rendering failed"})
	case errors.As(err, &engineErr):
		slog.Error("pdf engine failure", "error", engineErr.Err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "pdf generation unavailable"})
	default:
		slog.Error("request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
