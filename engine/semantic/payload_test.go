package semantic

import (
	"testing"
	"time"
)

func TestManifestRoundTrip(t *testing.T) {
	m := Manifest{
		EmbedModel: "nomic-embed-text",
		Dimensions: 768,
		Records:    100,
		Chunks:     412,
		PerCategory: map[string]int{
			"Credit Card":     50,
			"Savings Account": 50,
		},
		BuiltAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	got, err := parseManifest(toPayload(manifestPayload(m)))
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if got.EmbedModel != m.EmbedModel {
		t.Errorf("embed model: got %q, want %q", got.EmbedModel, m.EmbedModel)
	}
	if got.Dimensions != m.Dimensions || got.Records != m.Records || got.Chunks != m.Chunks {
		t.Errorf("counts mismatch: got %+v", got)
	}
	if got.PerCategory["Credit Card"] != 50 {
		t.Errorf("per-category mismatch: %v", got.PerCategory)
	}
	if !got.BuiltAt.Equal(m.BuiltAt) {
		t.Errorf("built_at: got %v, want %v", got.BuiltAt, m.BuiltAt)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	// A chunk payload is not a manifest.
	chunk := toPayload(map[string]any{"kind": kindChunk, "content": "text"})
	if _, err := parseManifest(chunk); err == nil {
		t.Fatal("expected error for non-manifest payload")
	}

	// Manifest without a model identifier is corrupt.
	bad := toPayload(map[string]any{"kind": kindManifest, "dimensions": 768})
	if _, err := parseManifest(bad); err == nil {
		t.Fatal("expected error for manifest without embed model")
	}
}

func TestToPayloadTypes(t *testing.T) {
	p := toPayload(map[string]any{
		"s": "str",
		"i": 7,
		"f": 1.5,
		"b": true,
	})
	if p["s"].GetStringValue() != "str" {
		t.Errorf("string: %v", p["s"])
	}
	if p["i"].GetIntegerValue() != 7 {
		t.Errorf("int: %v", p["i"])
	}
	if p["f"].GetDoubleValue() != 1.5 {
		t.Errorf("float: %v", p["f"])
	}
	if !p["b"].GetBoolValue() {
		t.Errorf("bool: %v", p["b"])
	}
}
