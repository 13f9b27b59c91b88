package inputval

import "testing"

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		// Valid URLs
		{"http://example.com", true},
		{"https://example.com", true},
		{"http://example.com/path", true},
		{"https://example.com/path?query=1", true},
		{"http://localhost:8080", true},
		{"https://res.cloudinary.com/demo/image/upload/v1/photo.jpg", true},

		// Valid with whitespace (trimmed)
		{"  https://example.com  ", true},

		// Invalid URLs
		{"", false},
		{"   ", false},
		{"ftp://example.com", false},
		{"mailto:user@example.com", false},
		{"example.com", false},
		{"//example.com", false},
		{"not a url", false},
		{"file:///path/to/file", false},
		{"javascript:alert(1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := IsValidHTTPURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

type nodeInput struct {
	Name     string `validate:"required,min=2,max=10" label:"Full name"`
	ParentID string `validate:"omitempty,max=64,objectid" label:"Parent"`
	PhotoURL string `validate:"omitempty,max=512,httpurl" label:"Photo URL"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		in        nodeInput
		wantCount int
		wantFirst string
	}{
		{"valid", nodeInput{Name: "Alice"}, 0, ""},
		{"missing name", nodeInput{}, 1, "Full name is required."},
		{"short name", nodeInput{Name: "A"}, 1, "Full name must be at least 2 characters."},
		{"long name", nodeInput{Name: "Alexandra Bergström"}, 1, "Full name must be at most 10 characters."},
		{"bad parent", nodeInput{Name: "Alice", ParentID: "nope"}, 1, "Parent must be a valid id."},
		{"good parent", nodeInput{Name: "Alice", ParentID: "65a1b2c3d4e5f60718293a4b"}, 0, ""},
		{"bad photo", nodeInput{Name: "Alice", PhotoURL: "ftp://x"}, 1, "Photo URL must be a valid http(s) URL."},
		{"two failures", nodeInput{ParentID: "nope"}, 2, "Full name is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.in)
			if len(res.All()) != tt.wantCount {
				t.Fatalf("got %d errors, want %d: %+v", len(res.All()), tt.wantCount, res.All())
			}
			if res.HasErrors() != (tt.wantCount > 0) {
				t.Errorf("HasErrors() = %v", res.HasErrors())
			}
			if got := res.First(); got != tt.wantFirst {
				t.Errorf("First() = %q, want %q", got, tt.wantFirst)
			}
		})
	}
}

func TestValidate_FieldNames(t *testing.T) {
	res := Validate(nodeInput{Name: "Alice", ParentID: "zz"})
	if !res.HasErrors() {
		t.Fatal("expected an error")
	}
	fe := res.All()[0]
	if fe.Field != "Parent" || fe.Tag != "objectid" {
		t.Errorf("unexpected field error: %+v", fe)
	}
}

func TestResult_Nil(t *testing.T) {
	var r *Result
	if r.HasErrors() || r.First() != "" || r.All() != nil {
		t.Error("nil Result should behave as empty")
	}
}
