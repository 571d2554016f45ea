package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"cvbuilder-backend/internal/domain"

	"github.com/google/uuid"
)

// ExportPDF runs the full export pipeline for one request:
// RESOLVE_TEMPLATE → CHECK_ENTITLEMENT → RENDER_MARKUP → WRAP_FOR_PRINT →
// RASTERIZE → RETURN_BYTES.
//
// An entitlement refusal is a valid terminal outcome
// (*domain.PaymentRequiredError), distinct from rasterization failure
// (*domain.RenderEngineError).
func (s *Service) ExportPDF(ctx context.Context, caller Identity, resumeID uuid.UUID, templateOverride *uuid.UUID) (*ExportResult, error) {
	resume, tpl, markup, err := s.renderMarkup(ctx, caller, resumeID, templateOverride)
	if err != nil {
		return nil, err
	}

	// Entitlement is decided fresh on every request, before any
	// rasterization work happens.
	requester := domain.Requester{}
	if resume.UserID != nil {
		requester, err = s.entitlements.GetRequester(ctx, *resume.UserID)
		if err != nil {
			return nil, err
		}
	}
	decision := domain.DecideEntitlement(tpl.IsPremium, resume.IsPaid, requester)
	if !decision.Allowed {
		slog.Info("export refused, payment required",
			"resume_id", resume.ID, "template_id", tpl.ID, "reason", decision.Reason)
		return nil, &domain.PaymentRequiredError{
			ResumeID: resume.ID,
			Reason:   decision.Reason,
			Options:  s.paymentOptions,
		}
	}

	doc := wrapForPrint(markup, tpl.CSS)

	rctx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()
	pdf, err := s.rasterizer.RenderHTMLToPDF(rctx, doc)
	if err != nil {
		return nil, &domain.RenderEngineError{Err: err}
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, &domain.RenderEngineError{Err: fmt.Errorf("invalid PDF output (len=%d)", len(pdf))}
	}

	slog.Info("pdf exported",
		"resume_id", resume.ID, "template", tpl.Name, "bytes", len(pdf))
	return &ExportResult{PDF: pdf, Filename: exportFilename(resume.FullName, time.Now())}, nil
}

// printShell carries the rules raw template HTML lacks: fixed A4 geometry,
// zero page margins, and page-break control so structural blocks are not
// split mid-element and headings keep their following content.
const printShell = `@page { size: A4; margin: 0; }
html, body { margin: 0; padding: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
section, article, li, .cv-section, .cv-entry { page-break-inside: avoid; break-inside: avoid; }
h1, h2, h3 { page-break-after: avoid; break-after: avoid; }`

// wrapForPrint embeds the evaluated fragment in a complete print-oriented
// document with the stylesheet inlined.
func wrapForPrint(fragment, css string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"fr\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("<title>CV</title>\n<style>\n")
	sb.WriteString(printShell)
	sb.WriteString("\n")
	sb.WriteString(css)
	sb.WriteString("\n</style>\n</head>\n<body>\n")
	sb.WriteString(fragment)
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String()
}

// exportFilename derives the download name from the resume's display name
// and the current date, e.g. "cv_jean_dupont_2026-08-28.pdf".
func exportFilename(fullName string, now time.Time) string {
	slug := slugify(fullName)
	if slug == "" {
		slug = "cv"
	} else {
		slug = "cv_" + slug
	}
	return fmt.Sprintf("%s_%s.pdf", slug, now.Format("2006-01-02"))
}

func slugify(s string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		case unicode.IsLetter(r):
			// keep accented letters readable by folding common cases
			sb.WriteRune(foldAccent(r))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

func foldAccent(r rune) rune {
	switch r {
	case 'à', 'â', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'î', 'ï':
		return 'i'
	case 'ô', 'ö':
		return 'o'
	case 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	default:
		return r
	}
}
