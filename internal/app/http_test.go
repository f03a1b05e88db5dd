package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitacora/api/internal/store"
)

func newTestServer(t *testing.T, fake *fakeStore) (*HTTPServer, *Service) {
	t.Helper()
	svc := newTestService(fake)
	return NewHTTPServer(svc, "*"), svc
}

func issueTestSession(t *testing.T, svc *Service, profile store.Profile) Session {
	t.Helper()
	fake := svc.store.(*fakeStore)
	fake.getProfileByID = func(ctx context.Context, id string) (store.Profile, error) {
		return profile, nil
	}
	session, err := svc.CreateSession(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return session
}

func doRequest(server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	recorder := doRequest(server, http.MethodGet, "/api/health", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["ok"] != true {
		t.Errorf("ok = %v, want true", payload["ok"])
	}
}

func TestReadyEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	recorder := doRequest(server, http.MethodGet, "/api/ready", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Status != "ready" {
		t.Errorf("status = %q, want ready", payload.Status)
	}
}

func TestRequiresBearerToken(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/iniciativas"},
		{http.MethodGet, "/api/profile"},
		{http.MethodGet, "/api/iniciativas/ini_1"},
		{http.MethodPost, "/api/iniciativas/ini_1/registros"},
	}
	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			recorder := doRequest(server, tt.method, tt.path, "", "")
			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", recorder.Code)
			}
		})
	}
}

func TestRejectsGarbageToken(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	recorder := doRequest(server, http.MethodGet, "/api/iniciativas", "not-a-token", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestSessionEndpointUnauthenticated(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	recorder := doRequest(server, http.MethodGet, "/api/session", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var payload struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Authenticated {
		t.Error("expected authenticated=false without token")
	}
}

func TestManageRoutesForbiddenForUserRole(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "user"})

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/iniciativas", `{"codigo":"INI-010","nombre":"Nueva"}`},
		{http.MethodPut, "/api/iniciativas/ini_1", `{"nombre":"Otra"}`},
		{http.MethodDelete, "/api/iniciativas/ini_1", ""},
		{http.MethodPost, "/api/iniciativas/ini_1/finalizar", ""},
		{http.MethodPost, "/api/iniciativas/ini_1/miembros", `{"email":"x@example.com"}`},
		{http.MethodDelete, "/api/iniciativas/ini_1/miembros/mem_1", ""},
		{http.MethodPut, "/api/iniciativas/ini_1/registros/reg_1", `{"fecha":"2026-01-01","descripcion":"Editado"}`},
		{http.MethodDelete, "/api/iniciativas/ini_1/registros/reg_1", ""},
	}
	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			recorder := doRequest(server, tt.method, tt.path, session.Token, tt.body)
			if recorder.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", recorder.Code)
			}
		})
	}
}

func TestAdminCreatesIniciativa(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodPost, "/api/iniciativas", session.Token, `{"codigo":"ini-020","nombre":"Digitalización"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", recorder.Code, recorder.Body.String())
	}
	var payload store.Iniciativa
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Codigo != "INI-020" {
		t.Errorf("codigo = %q, want INI-020", payload.Codigo)
	}
}

func TestCreateIniciativaValidationError(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodPost, "/api/iniciativas", session.Token, `{"nombre":"Sin código"}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", payload.Code)
	}
}

func TestListIniciativasAsAdmin(t *testing.T) {
	fake := &fakeStore{
		listIniciativas: func(ctx context.Context) ([]store.Iniciativa, error) {
			return []store.Iniciativa{
				{ID: "ini_1", Codigo: "INI-001", Nombre: "Primera", Etapa: EtapaIdentificacion},
			}, nil
		},
	}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodGet, "/api/iniciativas", session.Token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Iniciativas []store.Iniciativa `json:"iniciativas"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(payload.Iniciativas) != 1 {
		t.Fatalf("got %d iniciativas, want 1", len(payload.Iniciativas))
	}
}

func TestMethodNotAllowedOnIniciativa(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodPatch, "/api/iniciativas/ini_1", session.Token, "")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodGet, "/api/nope", session.Token, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestUnknownSubresourceIs404(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodGet, "/api/iniciativas/ini_1/historial", session.Token, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", recorder.Code, recorder.Body.String())
	}
}

func TestSearchRejectsNegativePagination(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	for _, query := range []string{"limit=-1", "offset=-5"} {
		recorder := doRequest(server, http.MethodGet, "/api/search?q=piloto&"+query, session.Token, "")
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", query, recorder.Code)
		}
	}
}

func TestOptionsPreflight(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	recorder := doRequest(server, http.MethodOptions, "/api/iniciativas", "", "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-fixed-123")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	if got := recorder.Header().Get("X-Request-ID"); got != "req-fixed-123" {
		t.Errorf("X-Request-ID = %q, want req-fixed-123", got)
	}
}

func TestUploadAdjuntoRequiresMultipart(t *testing.T) {
	fake := &fakeStore{}
	server, svc := newTestServer(t, fake)
	session := issueTestSession(t, svc, store.Profile{ID: "usr_1", Email: "ana@example.com", Role: "admin"})

	recorder := doRequest(server, http.MethodPost, "/api/iniciativas/ini_1/adjuntos", session.Token, `{"no":"multipart"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", recorder.Code, recorder.Body.String())
	}
}
