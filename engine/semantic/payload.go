package semantic

import (
	"encoding/json"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
)

// toPayload converts a generic payload map into Qdrant values.
func toPayload(in map[string]any) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(in))
	for k, val := range in {
		switch tv := val.(type) {
		case string:
			out[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
		case int:
			out[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
		case int64:
			out[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
		case float64:
			out[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
		case bool:
			out[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
		default:
			out[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
		}
	}
	return out
}

// manifestPayload flattens a Manifest into payload fields. Per-category
// counts are carried as a JSON object string.
func manifestPayload(m Manifest) map[string]any {
	counts, _ := json.Marshal(m.PerCategory)
	return map[string]any{
		"kind":         kindManifest,
		"embed_model":  m.EmbedModel,
		"dimensions":   m.Dimensions,
		"records":      m.Records,
		"chunks":       m.Chunks,
		"per_category": string(counts),
		"built_at":     m.BuiltAt.UTC().Format(time.RFC3339),
	}
}

// parseManifest reconstructs a Manifest from a manifest point payload.
func parseManifest(payload map[string]*pb.Value) (*Manifest, error) {
	if payload["kind"].GetStringValue() != kindManifest {
		return nil, fmt.Errorf("manifest point has kind %q", payload["kind"].GetStringValue())
	}

	m := &Manifest{
		EmbedModel: payload["embed_model"].GetStringValue(),
		Dimensions: int(payload["dimensions"].GetIntegerValue()),
		Records:    int(payload["records"].GetIntegerValue()),
		Chunks:     int(payload["chunks"].GetIntegerValue()),
	}
	if m.EmbedModel == "" || m.Dimensions <= 0 {
		return nil, fmt.Errorf("manifest missing embed model or dimensions")
	}

	if s := payload["per_category"].GetStringValue(); s != "" {
		if err := json.Unmarshal([]byte(s), &m.PerCategory); err != nil {
			return nil, fmt.Errorf("manifest per_category: %w", err)
		}
	}
	if s := payload["built_at"].GetStringValue(); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("manifest built_at: %w", err)
		}
		m.BuiltAt = t
	}
	return m, nil
}
