// Command render_preview evaluates a template against a resume JSON file
// and writes the resulting HTML (and optionally a PDF) for local template
// authoring, without a database or server.
//
//	go run ./tools resume.json templates/classic.html templates/classic.css out.html [out.pdf]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cvbuilder-backend/internal/domain"
	"cvbuilder-backend/internal/usecase"
	"cvbuilder-backend/pkg/infrastructure"
	"cvbuilder-backend/pkg/tel"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Fprintln(os.Stderr, "usage: render_preview <resume.json> <template.html> <template.css> <out.html> [out.pdf]")
		os.Exit(2)
	}
	resumeFile, htmlFile, cssFile, outFile := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	raw, err := os.ReadFile(resumeFile)
	if err != nil {
		fail("read resume: %v", err)
	}
	var resume domain.Resume
	if err := json.Unmarshal(raw, &resume); err != nil {
		fail("parse resume: %v", err)
	}

	src, err := os.ReadFile(htmlFile)
	if err != nil {
		fail("read template: %v", err)
	}
	css, err := os.ReadFile(cssFile)
	if err != nil {
		fail("read stylesheet: %v", err)
	}

	program, err := tel.Parse(string(src))
	if err != nil {
		fail("parse template: %v", err)
	}
	markup, err := program.Execute(usecase.ProjectResume(&resume))
	if err != nil {
		fail("evaluate template: %v", err)
	}

	doc := "<!DOCTYPE html>\n<html><head><meta charset=\"UTF-8\"><style>\n" +
		string(css) + "\n</style></head><body>\n" + markup + "\n</body></html>\n"
	if err := os.WriteFile(outFile, []byte(doc), 0o644); err != nil {
		fail("write output: %v", err)
	}
	fmt.Printf("wrote %s\n", outFile)

	if len(os.Args) > 5 {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		renderer := infrastructure.NewChromedpRenderer(os.Getenv("CHROME_PATH"))
		pdf, err := renderer.RenderHTMLToPDF(ctx, doc)
		if err != nil {
			fail("rasterize: %v", err)
		}
		if err := os.WriteFile(os.Args[5], pdf, 0o644); err != nil {
			fail("write pdf: %v", err)
		}
		fmt.Printf("wrote %s\n", os.Args[5])
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
