package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"testing"

	"cvbuilder-backend/internal/domain"
	"cvbuilder-backend/internal/model"
	"cvbuilder-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	model.SchemaDir = "../../../templates"
	os.Exit(m.Run())
}

type fakeCatalog struct {
	templates map[uuid.UUID]*domain.Template
}

func (f *fakeCatalog) GetByID(_ context.Context, id uuid.UUID) (*domain.Template, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	cp := *tpl
	return &cp, nil
}

func (f *fakeCatalog) List(_ context.Context, premium *bool) ([]domain.Template, error) {
	out := []domain.Template{}
	for _, tpl := range f.templates {
		if premium != nil && tpl.IsPremium != *premium {
			continue
		}
		out = append(out, *tpl)
	}
	return out, nil
}

type fakeStore struct {
	resumes map[uuid.UUID]*domain.Resume
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Resume, error) {
	r, ok := f.resumes[id]
	if !ok {
		return nil, domain.ErrResumeNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) Save(_ context.Context, r *domain.Resume) error {
	cp := *r
	f.resumes[r.ID] = &cp
	return nil
}

func (f *fakeStore) ListByOwner(_ context.Context, userID *uuid.UUID, sessionID string) ([]domain.Resume, error) {
	out := []domain.Resume{}
	for _, r := range f.resumes {
		if userID != nil && r.UserID != nil && *r.UserID == *userID {
			out = append(out, *r)
			continue
		}
		if sessionID != "" && r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) TouchLastAccessed(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.resumes[id]; !ok {
		return domain.ErrResumeNotFound
	}
	delete(f.resumes, id)
	return nil
}

func (f *fakeStore) MigrateSession(_ context.Context, sessionID string, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for _, r := range f.resumes {
		if r.SessionID == sessionID {
			r.SessionID = ""
			r.UserID = &userID
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

type fakeRenderer struct {
	preview   *usecase.Preview
	export    *usecase.ExportResult
	renderErr error
	exportErr error
}

func (f *fakeRenderer) RenderHTML(_ context.Context, _ usecase.Identity, _ uuid.UUID, _ *uuid.UUID) (*usecase.Preview, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return f.preview, nil
}

func (f *fakeRenderer) ExportPDF(_ context.Context, _ usecase.Identity, _ uuid.UUID, _ *uuid.UUID) (*usecase.ExportResult, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.export, nil
}

type env struct {
	app      *fiber.App
	catalog  *fakeCatalog
	store    *fakeStore
	renderer *fakeRenderer
}

func newEnv() *env {
	e := &env{
		catalog:  &fakeCatalog{templates: map[uuid.UUID]*domain.Template{}},
		store:    &fakeStore{resumes: map[uuid.UUID]*domain.Resume{}},
		renderer: &fakeRenderer{},
	}
	e.app = fiber.New()
	NewHandler(e.catalog, e.store, e.renderer).Register(e.app)
	return e
}

func (e *env) do(t *testing.T, req *stdhttp.Request) *stdhttp.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *stdhttp.Response) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return m
}

func TestCreateResumeMintsSession(t *testing.T) {
	e := newEnv()
	body := []byte(`{"full_name":"Jean Dupont","email":"jean@example.fr"}`)
	req := httptest.NewRequest("POST", "/api/resumes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cookie = c.Value
		}
	}
	if cookie == "" {
		t.Fatal("expected a session cookie on anonymous create")
	}

	created := decodeJSON(t, resp)
	if created["full_name"] != "Jean Dupont" {
		t.Fatalf("full_name = %v", created["full_name"])
	}
	if len(e.store.resumes) != 1 {
		t.Fatalf("stored %d resumes, want 1", len(e.store.resumes))
	}
	for _, r := range e.store.resumes {
		if r.SessionID != cookie {
			t.Fatalf("stored session %q does not match cookie %q", r.SessionID, cookie)
		}
	}
}

func TestCreateResumeIgnoresReservedFields(t *testing.T) {
	e := newEnv()
	body := []byte(`{"full_name":"Jean Dupont","is_paid":true,"user_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest("POST", "/api/resumes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	for _, r := range e.store.resumes {
		if r.IsPaid {
			t.Fatal("client must not set is_paid")
		}
		if r.UserID != nil {
			t.Fatal("client must not set user_id")
		}
	}
}

func TestGetResumeForeignSessionReadsAsAbsent(t *testing.T) {
	e := newEnv()
	id := uuid.New()
	e.store.resumes[id] = &domain.Resume{ID: id, SessionID: "owner-session"}

	req := httptest.NewRequest("GET", "/api/resumes/"+id.String(), nil)
	req.AddCookie(&stdhttp.Cookie{Name: sessionCookie, Value: "other-session"})

	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404 for foreign resume", resp.StatusCode)
	}
}

func TestUpdateResumeMergesPayload(t *testing.T) {
	e := newEnv()
	id := uuid.New()
	e.store.resumes[id] = &domain.Resume{ID: id, SessionID: "s1", FullName: "Jean Dupont", Email: "jean@example.fr"}

	body := []byte(`{"title":"Ingénieur logiciel"}`)
	req := httptest.NewRequest("PATCH", "/api/resumes/"+id.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&stdhttp.Cookie{Name: sessionCookie, Value: "s1"})

	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := e.store.resumes[id]
	if got.Title != "Ingénieur logiciel" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.FullName != "Jean Dupont" {
		t.Fatal("patch must not clear fields it does not mention")
	}
}

func TestListTemplatesOmitsBodies(t *testing.T) {
	e := newEnv()
	id := uuid.New()
	e.catalog.templates[id] = &domain.Template{
		ID: id, Name: "Classic", IsActive: true,
		HTML: "<h1>{{full_name}}</h1>", CSS: "body{}",
	}

	resp := e.do(t, httptest.NewRequest("GET", "/api/templates", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if bytes.Contains(raw, []byte("full_name}}")) {
		t.Fatal("catalog listing must not include template bodies")
	}
}

func TestExportPaymentRequiredEnvelope(t *testing.T) {
	e := newEnv()
	resumeID := uuid.New()
	e.renderer.exportErr = &domain.PaymentRequiredError{
		ResumeID: resumeID,
		Reason:   "premium_template_unpaid",
		Options: []domain.PaymentOption{
			{Type: "single", Label: "Export unique", Amount: 2.99, Currency: "EUR"},
			{Type: "monthly", Label: "Abonnement mensuel", Amount: 9.99, Currency: "EUR"},
			{Type: "yearly", Label: "Abonnement annuel", Amount: 59.99, Currency: "EUR"},
		},
	}

	req := httptest.NewRequest("POST", "/api/resumes/"+resumeID.String()+"/export", nil)
	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["reason"] != "premium_template_unpaid" {
		t.Fatalf("reason = %v", body["reason"])
	}
	options, ok := body["payment_options"].([]interface{})
	if !ok || len(options) != 3 {
		t.Fatalf("payment_options = %v", body["payment_options"])
	}
}

func TestExportSetsDownloadHeaders(t *testing.T) {
	e := newEnv()
	e.renderer.export = &usecase.ExportResult{
		PDF:      []byte("%PDF-1.4 fake"),
		Filename: "cv_jean_dupont_2026-08-28.pdf",
	}

	req := httptest.NewRequest("POST", "/api/resumes/"+uuid.NewString()+"/export", nil)
	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if cd != `attachment; filename="cv_jean_dupont_2026-08-28.pdf"` {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestExportEngineFailureMapsToBadGateway(t *testing.T) {
	e := newEnv()
	e.renderer.exportErr = &domain.RenderEngineError{Err: errors.New("chrome crashed")}

	req := httptest.NewRequest("POST", "/api/resumes/"+uuid.NewString()+"/export", nil)
	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if msg, _ := body["error"].(string); msg == "" || bytes.Contains([]byte(msg), []byte("chrome")) {
		t.Fatalf("engine detail must not leak to clients: %q", msg)
	}
}

func TestRenderBrokenTemplateMapsToInternalError(t *testing.T) {
	e := newEnv()
	e.renderer.renderErr = &domain.TemplateEvalError{
		TemplateID: uuid.New(), TemplateName: "Broken", Err: errors.New("unclosed #if"),
	}

	req := httptest.NewRequest("GET", "/api/resumes/"+uuid.NewString()+"/render", nil)
	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestMigrateRequiresAuthenticatedUser(t *testing.T) {
	e := newEnv()
	req := httptest.NewRequest("POST", "/api/resumes/migrate", nil)
	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestMigrateMovesSessionResumes(t *testing.T) {
	e := newEnv()
	userID := uuid.New()
	for i := 0; i < 2; i++ {
		id := uuid.New()
		e.store.resumes[id] = &domain.Resume{ID: id, SessionID: "anon-1"}
	}
	other := uuid.New()
	e.store.resumes[other] = &domain.Resume{ID: other, SessionID: "anon-2"}

	req := httptest.NewRequest("POST", "/api/resumes/migrate", nil)
	req.Header.Set("X-User-ID", userID.String())
	req.AddCookie(&stdhttp.Cookie{Name: sessionCookie, Value: "anon-1"})

	resp := e.do(t, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["migrated_count"] != float64(2) {
		t.Fatalf("migrated_count = %v, want 2", body["migrated_count"])
	}
	if e.store.resumes[other].SessionID != "anon-2" {
		t.Fatal("migration must not touch other sessions")
	}
}
