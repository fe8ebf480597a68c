package geoip

import (
	"testing"
)

func TestNew_EmptyPath(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location for disabled resolver, got %+v", loc)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	r, err := New("/nonexistent/path.mmdb")
	if err != nil {
		t.Fatalf("expected graceful fallback for missing file, got %v", err)
	}
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location, got %+v", loc)
	}
}

func TestLookup_NilResolver(t *testing.T) {
	var r *Resolver
	if loc := r.Lookup("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected empty location, got %+v", loc)
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing nil resolver, got %v", err)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, ""},
		{Location{Country: "DE"}, "DE"},
		{Location{Country: "DE", City: "Berlin"}, "Berlin, DE"},
		{Location{City: "Berlin"}, ""},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.loc, got, tt.want)
		}
	}
}
