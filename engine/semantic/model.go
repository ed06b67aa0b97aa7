package semantic

// SearchResult is a single vector search hit: a transcript segment with its
// source video key, time range, and raw similarity score from the index.
// Results are value objects; nothing mutates them after construction.
type SearchResult struct {
	Text     string            `json:"text"`
	VideoKey string            `json:"video_key"`
	Start    string            `json:"start_time"`
	End      string            `json:"end_time"`
	Score    float32           `json:"score"`
	Meta     map[string]string `json:"metadata,omitempty"`
}

// VectorRecord is a single embedded transcript segment to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // text, video_key, start, end, segment_index
}
