package splitter

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/poiesic/larder/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Default sizes, in characters.
const (
	DefaultParentChunkSize = 2000
	DefaultChildChunkSize  = 400
	DefaultOverlap         = 60
)

// ErrInvalidConfig is returned for chunk sizes that cannot produce progress.
var ErrInvalidConfig = errors.New("invalid splitter configuration")

// Config holds the chunk sizes for both tiers.
type Config struct {
	// ParentChunkSize caps the size of a parent document. Records with longer
	// content are split into several parents. Zero disables parent splitting.
	ParentChunkSize int

	// ChildChunkSize is the target size of a child chunk.
	ChildChunkSize int

	// Overlap is the number of characters shared by consecutive child chunks.
	Overlap int
}

// DefaultConfig returns the sizes used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		ParentChunkSize: DefaultParentChunkSize,
		ChildChunkSize:  DefaultChildChunkSize,
		Overlap:         DefaultOverlap,
	}
}

// Validate checks that the configuration can split text.
func (c Config) Validate() error {
	if c.ChildChunkSize <= 0 {
		return fmt.Errorf("%w: child chunk size must be positive, got %d", ErrInvalidConfig, c.ChildChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.ChildChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than child chunk size %d", ErrInvalidConfig, c.Overlap, c.ChildChunkSize)
	}
	if c.ParentChunkSize < 0 {
		return fmt.Errorf("%w: parent chunk size cannot be negative, got %d", ErrInvalidConfig, c.ParentChunkSize)
	}
	return nil
}

// Splitter produces parent documents from records and child chunks from parents.
// Breaks prefer paragraph, line and word boundaries before a hard character cut.
type Splitter struct {
	config Config
	child  textsplitter.RecursiveCharacter
	parent textsplitter.RecursiveCharacter
}

// New creates a Splitter after validating the configuration.
func New(config Config) (*Splitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Splitter{
		config: config,
		child: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChildChunkSize),
			textsplitter.WithChunkOverlap(config.Overlap),
		),
	}
	if config.ParentChunkSize > 0 {
		s.parent = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ParentChunkSize),
			textsplitter.WithChunkOverlap(0),
		)
	}
	return s, nil
}

// Config returns the splitter's configuration.
func (s *Splitter) Config() Config {
	return s.config
}

// Split breaks a parent's content into child chunks that all carry the parent's DocID.
// Content no longer than the child chunk size yields exactly one chunk equal to it.
func (s *Splitter) Split(parent *core.ParentDocument) ([]*core.ChildChunk, error) {
	if parent == nil || parent.Content == "" {
		return nil, nil
	}

	pieces := []string{parent.Content}
	if utf8.RuneCountInString(parent.Content) > s.config.ChildChunkSize {
		var err error
		pieces, err = s.child.SplitText(parent.Content)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", parent.DocID, err)
		}
	}

	chunks := make([]*core.ChildChunk, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		ordinal := len(chunks)
		chunks = append(chunks, &core.ChildChunk{
			ID:      core.ChunkID(parent.DocID, ordinal, piece),
			DocID:   parent.DocID,
			Ordinal: ordinal,
			Content: piece,
		})
	}
	return chunks, nil
}

// Parents builds the parent documents of a record. A record whose combined text
// fits the parent chunk size yields one parent keyed by core.AssignID.
func (s *Splitter) Parents(record core.NormalizedRecord) ([]*core.ParentDocument, error) {
	if record.CombinedText == "" {
		return nil, nil
	}

	contents := []string{record.CombinedText}
	if s.config.ParentChunkSize > 0 && utf8.RuneCountInString(record.CombinedText) > s.config.ParentChunkSize {
		var err error
		contents, err = s.parent.SplitText(record.CombinedText)
		if err != nil {
			return nil, fmt.Errorf("splitting record %s into parents: %w", record.ID, err)
		}
	}

	ids := core.PartDocIDs(record, len(contents))
	metadata := core.ParentMetadata{
		Title:       record.Title,
		Ingredients: record.Ingredients,
		URL:         record.URL,
		OriginalID:  record.ID,
	}

	parents := make([]*core.ParentDocument, 0, len(contents))
	for i, content := range contents {
		if content == "" {
			continue
		}
		parents = append(parents, &core.ParentDocument{
			DocID:    ids[i],
			Content:  content,
			Metadata: metadata,
		})
	}
	return parents, nil
}
