package usecase

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cvbuilder-backend/internal/domain"
	"cvbuilder-backend/pkg/tel"

	"github.com/google/uuid"
)

// Service orchestrates template resolution, document projection, TEL
// evaluation and PDF export.
type Service struct {
	templates    TemplatesRepo
	resumes      ResumesRepo
	entitlements EntitlementsRepo
	rasterizer   Rasterizer

	paymentOptions []domain.PaymentOption
	renderTimeout  time.Duration

	// Parsed programs cached by template id, invalidated when the stored
	// HTML changes. Rendering itself stays a pure function of
	// (template, document).
	mu    sync.RWMutex
	cache map[uuid.UUID]cachedProgram
}

type cachedProgram struct {
	hash    [32]byte
	program *tel.Template
}

func NewService(templates TemplatesRepo, resumes ResumesRepo, entitlements EntitlementsRepo, rasterizer Rasterizer, options []domain.PaymentOption, renderTimeout time.Duration) *Service {
	if renderTimeout <= 0 {
		renderTimeout = 60 * time.Second
	}
	return &Service{
		templates:      templates,
		resumes:        resumes,
		entitlements:   entitlements,
		rasterizer:     rasterizer,
		paymentOptions: options,
		renderTimeout:  renderTimeout,
		cache:          map[uuid.UUID]cachedProgram{},
	}
}

// RenderHTML evaluates the resolved template against the resume and
// returns the preview artifact, without rasterization.
func (s *Service) RenderHTML(ctx context.Context, caller Identity, resumeID uuid.UUID, templateOverride *uuid.UUID) (*Preview, error) {
	_, tpl, html, err := s.renderMarkup(ctx, caller, resumeID, templateOverride)
	if err != nil {
		return nil, err
	}
	return &Preview{HTML: html, CSS: tpl.CSS, TemplateName: tpl.Name}, nil
}

// renderMarkup runs the shared front half of the pipeline:
// RESOLVE_TEMPLATE then RENDER_MARKUP.
func (s *Service) renderMarkup(ctx context.Context, caller Identity, resumeID uuid.UUID, templateOverride *uuid.UUID) (*domain.Resume, *domain.Template, string, error) {
	resume, err := s.resumes.GetByID(ctx, resumeID)
	if err != nil {
		return nil, nil, "", err
	}
	if !caller.owns(resume) {
		return nil, nil, "", domain.ErrResumeNotFound
	}

	tpl, err := s.resolveTemplate(ctx, resume, templateOverride)
	if err != nil {
		return nil, nil, "", err
	}

	program, err := s.program(tpl)
	if err != nil {
		return nil, nil, "", &domain.TemplateEvalError{TemplateID: tpl.ID, TemplateName: tpl.Name, Err: err}
	}

	doc := ProjectResume(resume)
	html, err := program.Execute(doc)
	if err != nil {
		return nil, nil, "", &domain.TemplateEvalError{TemplateID: tpl.ID, TemplateName: tpl.Name, Err: err}
	}
	return resume, tpl, html, nil
}

// resolveTemplate picks the template for a render: explicit override, then
// the resume's stored selection, then the first active free template.
func (s *Service) resolveTemplate(ctx context.Context, resume *domain.Resume, override *uuid.UUID) (*domain.Template, error) {
	if override != nil {
		return s.templates.GetByID(ctx, *override)
	}
	if resume.TemplateID != nil {
		tpl, err := s.templates.GetByID(ctx, *resume.TemplateID)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			return nil, err
		}
		slog.Warn("stored template selection missing, falling back",
			"resume_id", resume.ID, "template_id", *resume.TemplateID)
	}
	return s.templates.FirstActiveFree(ctx)
}

// program returns the parsed TEL program for a template, reusing the cache
// when the stored HTML is unchanged.
func (s *Service) program(tpl *domain.Template) (*tel.Template, error) {
	hash := sha256.Sum256([]byte(tpl.HTML))

	s.mu.RLock()
	entry, ok := s.cache[tpl.ID]
	s.mu.RUnlock()
	if ok && entry.hash == hash {
		return entry.program, nil
	}

	program, err := tel.Parse(tpl.HTML)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[tpl.ID] = cachedProgram{hash: hash, program: program}
	s.mu.Unlock()
	return program, nil
}
