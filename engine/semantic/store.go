// Package semantic is the sole owner of all Qdrant operations. Index builds
// write into a fresh staging collection and go live only through an atomic
// alias switch, so the query side never observes a partially written index.
package semantic

import (
	"context"
	"fmt"
	"time"

	"github.com/CrediTrust/complaint-insights/engine/domain"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// manifestPointID is the reserved point that stores the build Manifest.
const manifestPointID = "00000000-0000-0000-0000-000000000001"

// Payload values for the "kind" discriminator.
const (
	kindChunk    = "chunk"
	kindManifest = "manifest"
)

// VectorStore talks to Qdrant over gRPC. The query side addresses the index
// through a collection alias; the build side addresses staging collections
// by name.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	alias       string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
// alias is the published index name the query pipeline opens.
func New(addr string, alias string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		alias:       alias,
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	return v.conn.Close()
}

// Alias returns the published index name.
func (v *VectorStore) Alias() string { return v.alias }

// CreateStaging creates a fresh timestamped collection for a full rebuild
// and returns its name. The previous index, if any, keeps serving queries
// until Publish.
func (v *VectorStore) CreateStaging(ctx context.Context, dims int) (string, error) {
	name := fmt.Sprintf("%s_%d", v.alias, time.Now().UnixNano())
	d := uint64(dims)
	_, err := v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("semantic: create staging collection %s: %w", name, err)
	}
	return name, nil
}

// DropStaging discards a staging collection after a failed build.
func (v *VectorStore) DropStaging(ctx context.Context, staging string) error {
	_, err := v.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: staging})
	if err != nil {
		return fmt.Errorf("semantic: drop staging %s: %w", staging, err)
	}
	return nil
}

// Upsert stores chunk vectors into the named collection.
func (v *VectorStore) Upsert(ctx context.Context, collection string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := toPayload(r.Payload)
		payload["kind"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: kindChunk}}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// WriteManifest writes the build manifest into the collection as the
// reserved point. Called last during a build: a readable manifest means the
// build completed.
func (v *VectorStore) WriteManifest(ctx context.Context, collection string, m Manifest) error {
	payload := toPayload(manifestPayload(m))

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: manifestPointID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: make([]float32, m.Dimensions)},
				},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("semantic: write manifest: %w", err)
	}
	return nil
}

// Publish atomically points the alias at the staging collection and drops
// the collection it previously served.
func (v *VectorStore) Publish(ctx context.Context, staging string) error {
	previous, err := v.resolveAlias(ctx)
	if err != nil {
		return err
	}

	actions := []*pb.AliasOperations{}
	if previous != "" {
		actions = append(actions, &pb.AliasOperations{
			Action: &pb.AliasOperations_DeleteAlias{
				DeleteAlias: &pb.DeleteAlias{AliasName: v.alias},
			},
		})
	}
	actions = append(actions, &pb.AliasOperations{
		Action: &pb.AliasOperations_CreateAlias{
			CreateAlias: &pb.CreateAlias{CollectionName: staging, AliasName: v.alias},
		},
	})

	_, err = v.collections.UpdateAliases(ctx, &pb.ChangeAliases{Actions: actions})
	if err != nil {
		return fmt.Errorf("semantic: switch alias %s -> %s: %w", v.alias, staging, err)
	}

	if previous != "" && previous != staging {
		if _, err := v.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: previous}); err != nil {
			return fmt.Errorf("semantic: drop superseded collection %s: %w", previous, err)
		}
	}
	return nil
}

// resolveAlias returns the collection the alias currently points at, or ""
// if the alias does not exist.
func (v *VectorStore) resolveAlias(ctx context.Context) (string, error) {
	resp, err := v.collections.ListAliases(ctx, &pb.ListAliasesRequest{})
	if err != nil {
		return "", fmt.Errorf("semantic: list aliases: %w", err)
	}
	for _, a := range resp.GetAliases() {
		if a.GetAliasName() == v.alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

// Open verifies that a complete index is published under the alias and
// returns its manifest. A missing alias or an unreadable manifest means the
// index is absent or mid-rebuild.
func (v *VectorStore) Open(ctx context.Context) (*Manifest, error) {
	target, err := v.resolveAlias(ctx)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("semantic: alias %q not found: %w", v.alias, domain.ErrIndexUnavailable)
	}

	withPayload := &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}}
	resp, err := v.points.Get(ctx, &pb.GetPoints{
		CollectionName: v.alias,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: manifestPointID}},
		},
		WithPayload: withPayload,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: read manifest: %w", err)
	}
	if len(resp.GetResult()) == 0 {
		return nil, fmt.Errorf("semantic: collection %q has no manifest: %w", target, domain.ErrIndexUnavailable)
	}

	m, err := parseManifest(resp.GetResult()[0].GetPayload())
	if err != nil {
		return nil, fmt.Errorf("semantic: %w: %w", err, domain.ErrIndexUnavailable)
	}
	return m, nil
}

// Search performs k-NN cosine similarity search over the published index.
// The manifest point is excluded via the kind filter. Results come back in
// descending score order; k larger than the corpus returns everything.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: v.alias,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter: &pb.Filter{
			Must: []*pb.Condition{fieldMatch("kind", kindChunk)},
		},
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	results := make([]SearchResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		sr := SearchResult{
			ID:    r.GetId().GetUuid(),
			Score: r.GetScore(),
		}
		for k, val := range r.GetPayload() {
			switch k {
			case "content":
				sr.Content = val.GetStringValue()
			case "complaint_id":
				sr.ComplaintID = val.GetStringValue()
			case "category":
				sr.Category = val.GetStringValue()
			case "company":
				sr.Company = val.GetStringValue()
			case "state":
				sr.State = val.GetStringValue()
			case "date":
				sr.Date = val.GetStringValue()
			case "chunk_index":
				sr.ChunkIndex = int(val.GetIntegerValue())
			}
		}
		results[i] = sr
	}
	return results, nil
}

// Count returns the number of chunk points in the published index.
func (v *VectorStore) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := v.points.Count(ctx, &pb.CountPoints{
		CollectionName: v.alias,
		Exact:          &exact,
		Filter: &pb.Filter{
			Must: []*pb.Condition{fieldMatch("kind", kindChunk)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("semantic: count: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
