package orgchart_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/organigram/internal/app/features/orgchart"
	"github.com/dalemusser/organigram/internal/app/system/auth"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/domain/models"
	"github.com/dalemusser/organigram/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	svc, store := newService(t, exampleDefs)
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := orgchart.NewHandler(svc, nil, locale.NewTranslator(), locale.Default, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/org-chart", orgchart.Routes(h, sm))
	return r, store
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Issues  []struct {
		Field string `json:"field"`
	} `json:"issues"`
}

func TestHandler_ListAndETag(t *testing.T) {
	router, _ := newRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/api/org-chart"))
	rec.AssertStatus(t, http.StatusOK)

	var nodes []models.OrgNode
	rec.DecodeJSON(t, &nodes)
	if len(nodes) != 2 || nodes[0].Name != "Group" {
		t.Fatalf("unexpected list: %+v", nodes)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := testutil.NewRequest(http.MethodGet, "/api/org-chart")
	req.Header.Set("If-None-Match", etag)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotModified)
}

func TestHandler_CreateRequiresSignIn(t *testing.T) {
	router, _ := newRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/org-chart", map[string]string{"name": "Alice", "roleTitle": "Analyst"}))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "UNAUTHENTICATED")
}

func TestHandler_CreateUpdateDelete(t *testing.T) {
	router, store := newRouter(t)
	router.ServeHTTP(testutil.NewRecorder(), testutil.NewRequest(http.MethodGet, "/api/org-chart"))
	divA := mustNode(t, store, "Division A")
	u := testutil.RegularUser()

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/org-chart", map[string]string{
		"name":      "Alice",
		"roleTitle": "Analyst",
		"parentId":  divA.ID.Hex(),
	}), u)
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var created models.OrgNode
	rec.DecodeJSON(t, &created)
	if created.CreatedByID != u.OID() || created.NodeType != models.NodeTypePerson {
		t.Fatalf("unexpected node: %+v", created)
	}

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.NewJSONRequest(http.MethodPatch, "/api/org-chart", map[string]any{
		"nodeId":      created.ID.Hex(),
		"description": "Team lead",
	}), u)
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Team lead")

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodDelete, "/api/org-chart?id="+created.ID.Hex(), ""), u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"ok":true`)
}

func TestHandler_ErrorsAreLocalized(t *testing.T) {
	router, store := newRouter(t)
	router.ServeHTTP(testutil.NewRecorder(), testutil.NewRequest(http.MethodGet, "/api/org-chart"))
	divA := mustNode(t, store, "Division A")

	tests := []struct {
		name    string
		target  string
		header  string
		status  int
		code    string
		message string
	}{
		{"default german", "/api/org-chart?id=" + divA.ID.Hex(), "", http.StatusBadRequest, "INVALID_NODE_TYPE", "Nur Personenknoten können gelöscht werden"},
		{"query locale", "/api/org-chart?locale=en&id=" + divA.ID.Hex(), "", http.StatusBadRequest, "INVALID_NODE_TYPE", "Only person nodes can be deleted"},
		{"accept-language", "/api/org-chart?id=" + divA.ID.Hex(), "fr-CH, fr;q=0.9", http.StatusBadRequest, "INVALID_NODE_TYPE", "Seuls les nœuds de personne peuvent être supprimés"},
		{"missing id", "/api/org-chart?locale=en", "", http.StatusBadRequest, "MISSING_ID", "Missing id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(http.MethodDelete, tt.target, ""), testutil.AdminUser())
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.status)

			var body errorBody
			rec.DecodeJSON(t, &body)
			if body.Code != tt.code || body.Message != tt.message {
				t.Errorf("got %+v", body)
			}
		})
	}
}

func TestHandler_ValidationIssues(t *testing.T) {
	router, _ := newRouter(t)

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/org-chart?locale=en", map[string]string{
		"name":     "A",
		"photoUrl": "javascript:alert(1)",
	}), testutil.RegularUser())
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	var body errorBody
	rec.DecodeJSON(t, &body)
	if body.Code != "VALIDATION_FAILED" || len(body.Issues) != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/org-chart", "{not json"), testutil.RegularUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandler_TreeAndParentOptions(t *testing.T) {
	router, store := newRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/api/org-chart/tree"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"children"`)

	divA := mustNode(t, store, "Division A")
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/api/org-chart/"+divA.ID.Hex()+"/parent-options"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Group")

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/api/org-chart/nope/parent-options"))
	rec.AssertStatus(t, http.StatusNotFound)
}
