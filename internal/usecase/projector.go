package usecase

import (
	"net/url"
	"strings"

	"cvbuilder-backend/internal/domain"

	"golang.org/x/net/publicsuffix"
)

// sequenceAliases maps each canonical sequence key to the legacy name some
// stored templates still reference. Aliasing is applied once here, at
// projection time; the evaluator never sees it. New templates should only
// use the canonical *_data names.
var sequenceAliases = map[string]string{
	"experience_data":     "experiences",
	"education_data":      "education",
	"skills_data":         "skills",
	"languages_data":      "languages",
	"certifications_data": "certifications",
	"projects_data":       "projects",
}

// ProjectResume converts a stored resume record into the document the
// template evaluator consumes. Absent scalars project as empty strings and
// absent sequences as empty (never nil) slices, so template truthiness can
// distinguish "empty list" from "absent key".
func ProjectResume(r *domain.Resume) map[string]interface{} {
	firstName, lastName := splitFullName(r.FullName)

	doc := map[string]interface{}{
		"full_name":       r.FullName,
		"first_name":      firstName,
		"last_name":       lastName,
		"email":           r.Email,
		"phone":           r.Phone,
		"address":         r.Address,
		"city":            r.City,
		"postal_code":     r.PostalCode,
		"website":         r.Website,
		"website_label":   websiteLabel(r.Website),
		"linkedin_url":    r.LinkedinURL,
		"github_url":      r.GithubURL,
		"photo":           r.Photo,
		"date_of_birth":   r.DateOfBirth,
		"nationality":     r.Nationality,
		"driving_license": r.DrivingLicense,
		"title":           r.Title,
		"summary":         r.Summary,

		"experience_data":     sequence(r.Experience),
		"education_data":      sequence(r.Education),
		"skills_data":         sequence(r.Skills),
		"languages_data":      sequence(r.Languages),
		"certifications_data": sequence(r.Certifications),
		"projects_data":       sequence(r.Projects),
		"custom_sections":     sequence(r.CustomSections),
	}

	for canonical, alias := range sequenceAliases {
		doc[alias] = doc[canonical]
	}
	return doc
}

func sequence(s []interface{}) []interface{} {
	if s == nil {
		return []interface{}{}
	}
	return s
}

func splitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// websiteLabel derives a tidy display label (eTLD+1) for the website URL.
func websiteLabel(site string) string {
	if site == "" {
		return ""
	}
	candidate := site
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return site
	}
	host := parsed.Hostname()
	if host == "" {
		return site
	}
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return strings.TrimPrefix(etld, "www.")
	}
	return strings.TrimPrefix(host, "www.")
}
