package knowledge

import (
	"strings"
	"unicode/utf8"
)

// Chunker defaults for rule documents.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text recursively on progressively finer separators until
// each piece fits ChunkSize, then merges neighbours with ChunkOverlap
// characters of shared context. Lengths are measured in runes.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewChunker returns a chunker with the default size, overlap, and separators.
func NewChunker() Chunker {
	return Chunker{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   defaultSeparators,
	}
}

// Split returns the chunks of text, trimmed and non-empty.
func (c Chunker) Split(text string) []string {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = 0
	}
	if len(c.Separators) == 0 {
		c.Separators = defaultSeparators
	}
	return c.split(text, c.Separators)
}

func (c Chunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			separator = ""
			break
		}
		if strings.Contains(text, candidate) {
			separator = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, separator)
	}

	var chunks, pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if runeLen(piece) < c.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, c.merge(pending, separator)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, strings.TrimSpace(piece))
		} else {
			chunks = append(chunks, c.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, c.merge(pending, separator)...)
	}
	return chunks
}

func (c Chunker) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	var chunks, current []string
	total := 0
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}
	for _, piece := range pieces {
		size := runeLen(piece)
		if total+size+joinCost() > c.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.ChunkOverlap || (total > 0 && total+size+joinCost() > c.ChunkSize) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		total += size + joinCost()
		current = append(current, piece)
	}
	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(value string) int {
	return utf8.RuneCountInString(value)
}
