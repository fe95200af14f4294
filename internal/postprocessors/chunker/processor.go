// Package chunker splits normalised document text into overlapping,
// sentence-aware chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// DefaultMaxChunks is the default chunk cap per document.
const DefaultMaxChunks = 50

// boundaryLookback is how far back from a window end a sentence break is searched for.
const boundaryLookback = 50

// Verify interface compliance.
var _ driven.Chunker = (*Processor)(nil)

// Window is one chunk produced by Split.
// Start and End are rune offsets of the untrimmed window in the input.
type Window struct {
	Index int
	Text  string
	Start int
	End   int
}

// Split cuts text into windows of at most size runes. Windows that do not
// reach the end of the text are shortened to the nearest sentence terminal
// within the last 50 runes. Each window after the first starts overlap runes
// before the previous end. Whitespace-only windows are skipped and do not
// consume an index. capped is true when maxChunks was reached with
// non-blank text remaining.
func Split(text string, size, overlap, maxChunks int) (windows []Window, capped bool, err error) {
	switch {
	case size <= 0:
		return nil, false, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	case overlap < 0:
		return nil, false, fmt.Errorf("%w: overlap must not be negative", domain.ErrInvalidInput)
	case overlap >= size:
		return nil, false, fmt.Errorf("%w: overlap must be smaller than chunk size", domain.ErrInvalidInput)
	case maxChunks <= 0:
		return nil, false, fmt.Errorf("%w: max chunks must be positive", domain.ErrInvalidInput)
	}

	runes := []rune(text)
	n := len(runes)
	start := 0

	for start < n {
		if len(windows) >= maxChunks {
			return windows, strings.TrimSpace(string(runes[start:])) != "", nil
		}

		end := start + size
		if end >= n {
			end = n
		} else if cut := sentenceBreak(runes, start, end); cut > start {
			end = cut
		}

		slice := strings.TrimSpace(string(runes[start:end]))
		if slice == "" {
			start = end
			continue
		}
		windows = append(windows, Window{
			Index: len(windows),
			Text:  slice,
			Start: start,
			End:   end,
		})

		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return windows, false, nil
}

// sentenceBreak returns the offset just past the last sentence terminal and
// its trailing whitespace within the lookback range of [start, end), or -1.
func sentenceBreak(runes []rune, start, end int) int {
	floor := end - boundaryLookback
	if floor < start {
		floor = start
	}
	for i := end - 1; i >= floor; i-- {
		switch runes[i] {
		case '.', '!', '?':
			cut := i + 1
			for cut < end && unicode.IsSpace(runes[cut]) {
				cut++
			}
			return cut
		}
	}
	return -1
}

// Processor splits document content into sentence-aware chunks.
// It implements the driven.Chunker interface.
type Processor struct {
	chunkSize int
	overlap   int
	maxChunks int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithMaxChunks sets the per-document chunk cap.
func WithMaxChunks(limit int) Option {
	return func(p *Processor) {
		if limit > 0 {
			p.maxChunks = limit
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		maxChunks: DefaultMaxChunks,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits content into chunks owned by documentID.
func (p *Processor) Chunk(documentID, content string) ([]domain.Chunk, bool, error) {
	windows, capped, err := Split(content, p.chunkSize, p.overlap, p.maxChunks)
	if err != nil {
		return nil, false, err
	}
	if capped {
		logger.Warn("chunker: document %s hit the %d chunk cap, remaining text not indexed", documentID, p.maxChunks)
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      w.Index,
			Text:       w.Text,
			Start:      w.Start,
			End:        w.End,
		})
	}

	logger.Debug("chunker: %s split into %d chunks", documentID, len(chunks))
	return chunks, capped, nil
}
