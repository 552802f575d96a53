package pkgmodel

import (
	"bytes"
	"errors"
	"testing"
)

func TestManifestLineRoundTrip(t *testing.T) {
	m := NewManifest(MustPackageName("biff", "minimal"), MustVersion("0.1.0"))
	m.Package.Realm = "shared"
	m.Package.Authors = []string{"biff"}
	m.Dependencies = map[string]string{"zeta": "biff/zeta@1.0.0", "alpha": "biff/alpha@0.1.0"}

	line, err := m.MarshalLine()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if bytes.ContainsRune(line, '\n') {
		t.Fatalf("record must be a single line: %s", line)
	}
	if bytes.Index(line, []byte("alpha")) > bytes.Index(line, []byte("zeta")) {
		t.Fatalf("map keys should be sorted: %s", line)
	}

	again, err := m.MarshalLine()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !bytes.Equal(line, again) {
		t.Fatalf("encoding should be deterministic")
	}

	parsed, err := ParseManifestLine(line)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if parsed.ID().String() != "biff/minimal@0.1.0" {
		t.Fatalf("unexpected id: %s", parsed.ID())
	}
	if parsed.Package.Realm != "shared" || parsed.Dependencies["alpha"] != "biff/alpha@0.1.0" {
		t.Fatalf("metadata lost in round trip: %+v", parsed)
	}
}

func TestParseManifestLineRejectsMissingVersion(t *testing.T) {
	_, err := ParseManifestLine([]byte(`{"package":{"name":"biff/minimal"}}`))
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}

func TestParseManifestLineRejectsGarbage(t *testing.T) {
	if _, err := ParseManifestLine([]byte(`{"package":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParseIndexConfig(t *testing.T) {
	cfg, err := ParseIndexConfig([]byte(`{"api":"http://localhost","fallback_registries":["../other1","../other2"]}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(cfg.FallbackRegistries) != 2 || cfg.FallbackRegistries[1] != "../other2" {
		t.Fatalf("unexpected fallbacks: %v", cfg.FallbackRegistries)
	}
}

func TestContentsAreCopied(t *testing.T) {
	raw := []byte("payload")
	contents := ContentsFromBytes(raw)
	raw[0] = 'X'
	if string(contents.Bytes()) != "payload" {
		t.Fatalf("contents should not alias caller slice")
	}
	out := contents.Bytes()
	out[0] = 'Y'
	if string(contents.Bytes()) != "payload" {
		t.Fatalf("Bytes should return a copy")
	}
}
