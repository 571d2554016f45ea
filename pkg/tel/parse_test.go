package tel

import (
	"strings"
	"testing"
)

func TestParseRejectsMalformedNesting(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unclosed if", `{{#if name}}<p>{{name}}</p>`},
		{"unclosed each", `{{#each skills_data}}<li>{{this.name}}</li>`},
		{"stray endif", `<p>hello</p>{{/if}}`},
		{"stray endeach", `{{/each}}`},
		{"crossed blocks", `{{#if a}}{{#each b}}{{/if}}{{/each}}`},
		{"else outside if", `{{#each items}}{{else}}{{/each}}`},
		{"duplicate else", `{{#if a}}x{{else}}y{{else}}z{{/if}}`},
		{"unterminated tag", `<p>{{name</p>`},
		{"empty tag", `<p>{{}}</p>`},
		{"if without path", `{{#if}}x{{/if}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.src); err == nil {
				t.Fatalf("expected parse error for %q", tc.src)
			}
		})
	}
}

func TestParseRejectsUnregisteredHelper(t *testing.T) {
	_, err := Parse(`<p>{{shout full_name}}</p>`)
	if err == nil {
		t.Fatal("expected error for unregistered helper")
	}
	if !strings.Contains(err.Error(), "shout") {
		t.Fatalf("error should name the helper, got: %v", err)
	}
}

func TestParseAcceptsNestedBlocks(t *testing.T) {
	src := `{{#if experience_data}}
		{{#each experience_data}}
			<h3>{{this.position}}</h3>
			{{#if this.is_current}}<em>en cours</em>{{else}}{{year this.end_date}}{{/if}}
		{{/each}}
	{{else}}
		<p>Aucune expérience</p>
	{{/if}}`
	if _, err := Parse(src); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
}

func TestParseReportsOffset(t *testing.T) {
	_, err := Parse(`<p>ok</p>{{/if}}`)
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Offset != 9 {
		t.Fatalf("expected offset 9, got %d", perr.Offset)
	}
}

func TestParseStringLiteralArguments(t *testing.T) {
	tpl, err := Parse(`{{translate_work_mode "remote"}} / {{translate_work_mode 'hybrid'}}`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	out, err := tpl.Execute(map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected execute error: %v", err)
	}
	if out != "Télétravail / Hybride" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseUnterminatedStringLiteral(t *testing.T) {
	if _, err := Parse(`{{first "abc 3}}`); err == nil {
		t.Fatal("expected error for unterminated string literal")
	}
}
