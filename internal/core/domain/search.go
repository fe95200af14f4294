package domain

// StatusNoItems is reported when a document index holds no vectors.
const StatusNoItems = "no items in index"

// StatusOK is reported when the search ran against a populated index.
const StatusOK = "ok"

// SearchHit is a single chunk matched by a semantic query.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Index is the chunk position within the document.
	Index int

	// Text is the chunk text.
	Text string

	// Distance is the L2 distance between query and chunk vectors.
	Distance float64

	// Score is 1/(1+Distance), in (0, 1].
	Score float64
}

// SearchResult is the outcome of a document search.
// An empty Hits slice with StatusNoItems is a valid, non-error result.
type SearchResult struct {
	DocumentID string
	Query      string
	Hits       []SearchHit
	Status     string
}

// SearchOptions configures a document search.
type SearchOptions struct {
	// TopK is the maximum number of hits. Defaults to 3 when zero.
	TopK int
}

// ChatTurn is one message in a document conversation.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatAnswer is the assistant reply plus the chunks it was grounded on.
type ChatAnswer struct {
	Answer  string
	Sources []SearchHit
}
