package locale

import (
	"net/http/httptest"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"en", "en"},
		{"de", "de"},
		{"fr-CH", "fr"},
		{"it-IT,it;q=0.9,en;q=0.5", "it"},
		{"es-419", "es"},
		{"ja", ""},
		{"", ""},
		{"!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Match(tt.raw); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/org-chart?locale=fr", nil)
	r.Header.Set("Accept-Language", "en")
	if got := Resolve(r, ""); got != "fr" {
		t.Errorf("query param should win, got %q", got)
	}

	r = httptest.NewRequest("GET", "/api/org-chart", nil)
	r.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	if got := Resolve(r, ""); got != "en" {
		t.Errorf("Accept-Language should be used, got %q", got)
	}

	r = httptest.NewRequest("GET", "/api/org-chart", nil)
	if got := Resolve(r, ""); got != Default {
		t.Errorf("expected default %q, got %q", Default, got)
	}
	if got := Resolve(r, "it"); got != "it" {
		t.Errorf("configured default ignored, got %q", got)
	}
}

func TestPagePath(t *testing.T) {
	if got := PagePath("en"); got != "/en/organigram" {
		t.Errorf("PagePath = %q", got)
	}
}

func TestTranslator(t *testing.T) {
	tr := NewTranslator()

	if got := tr.T("en", MsgParentNotFound); got != "Parent not found" {
		t.Errorf("en: %q", got)
	}
	if got := tr.T("de", MsgInvalidNodeType); got != "Nur Personenknoten können gelöscht werden" {
		t.Errorf("de: %q", got)
	}
	if got := tr.T("en", MsgVirtualRoot); got != "Org Root" {
		t.Errorf("virtual root: %q", got)
	}
	if got := tr.T("en", "No.Such.Message"); got != "No.Such.Message" {
		t.Errorf("unknown id should fall back to the id, got %q", got)
	}
}
