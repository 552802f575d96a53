package pkgmodel

import (
	"errors"
	"testing"
)

func TestParsePackageName(t *testing.T) {
	name, err := ParsePackageName("biff/minimal")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if name.Scope() != "biff" || name.Name() != "minimal" {
		t.Fatalf("unexpected name: %s", name)
	}
	if name.String() != "biff/minimal" {
		t.Fatalf("unexpected string form: %s", name.String())
	}
}

func TestParsePackageNameRejectsUnsafeSegments(t *testing.T) {
	cases := []string{
		"minimal",
		"/minimal",
		"biff/",
		"../minimal",
		"biff/..",
		"biff/a/b",
		`biff/a\b`,
		"Biff/minimal",
		"biff/mini mal",
	}
	for _, raw := range cases {
		if _, err := ParsePackageName(raw); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName for %q, got %v", raw, err)
		}
	}
}

func TestPackageNameTextRoundTrip(t *testing.T) {
	var name PackageName
	if err := name.UnmarshalText([]byte("biff/minimal")); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	text, err := name.MarshalText()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(text) != "biff/minimal" {
		t.Fatalf("unexpected text: %s", text)
	}

	if _, err := (PackageName{}).MarshalText(); err == nil {
		t.Fatalf("zero name should not marshal")
	}
}
