package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint_only",
			key:  Key{Endpoint: "/api/dash/pdfs/all-documents"},
			want: "dash:api/dash/pdfs/all-documents",
		},
		{
			name: "endpoint_with_query",
			key: Key{
				Endpoint: "/api/dash/status",
				Query:    url.Values{"status": []string{"Aprobado"}, "page": []string{"1"}},
			},
			want: "dash:api/dash/status:page=1:status=Aprobado",
		},
		{
			name: "empty_endpoint",
			key:  Key{},
			want: "dash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Determinism(t *testing.T) {
	// Query parameter order must not change the key.
	a := Key{
		Endpoint: "/api/dash/status",
		Query:    url.Values{"page": []string{"2"}, "pageSize": []string{"10"}, "search": []string{"perez"}},
	}
	b := Key{
		Endpoint: "/api/dash/status",
		Query:    url.Values{"search": []string{"perez"}, "page": []string{"2"}, "pageSize": []string{"10"}},
	}

	for i := 0; i < 50; i++ {
		if a.String() != b.String() {
			t.Fatalf("Keys diverged: %q vs %q", a.String(), b.String())
		}
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"document_views", "/api/dash/pdfs", "dash:api/dash/pdfs*"},
		{"trailing_slash", "/api/dash/pdfs/", "dash:api/dash/pdfs*"},
		{"empty", "", "dash:*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Prefix(tt.endpoint); got != tt.want {
				t.Errorf("Prefix(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}
