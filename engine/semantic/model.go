package semantic

import "time"

// SearchResult is a single vector search hit with its complaint metadata.
type SearchResult struct {
	ID          string  `json:"id"`
	Score       float32 `json:"score"`
	Content     string  `json:"content"`
	ComplaintID string  `json:"complaint_id"`
	Category    string  `json:"category"`
	Company     string  `json:"company"`
	State       string  `json:"state"`
	Date        string  `json:"date"`
	ChunkIndex  int     `json:"chunk_index"`
}

// VectorRecord is a single chunk vector to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // content, complaint_id, category, company, state, date, chunk_index
}

// Manifest describes how an index was built. It is written into the
// collection as a reserved point only after every chunk is stored, so a
// readable manifest implies a complete build. The retriever validates the
// embedding model against it on open.
type Manifest struct {
	EmbedModel  string         `json:"embed_model"`
	Dimensions  int            `json:"dimensions"`
	Records     int            `json:"records"`
	Chunks      int            `json:"chunks"`
	PerCategory map[string]int `json:"per_category"`
	BuiltAt     time.Time      `json:"built_at"`
}
