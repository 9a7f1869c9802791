package knowledge

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"brandguardian/internal/logging"
)

const (
	defaultEmbedBatch       = 32
	defaultEmbedConcurrency = 4
)

var ruleExtensions = []string{".pdf", ".txt", ".md", ".markdown"}

// IndexSummary reports what one indexing run wrote.
type IndexSummary struct {
	Files   int
	Chunks  int
	Elapsed time.Duration
}

// Indexer chunks rule documents, embeds them, and writes them to a Store.
type Indexer struct {
	store       Store
	embedder    Embedder
	chunker     Chunker
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewIndexer constructs an indexer. embedder may be nil for stores that rank
// lexically.
func NewIndexer(store Store, embedder Embedder, batchSize int, logger *slog.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatch
	}
	return &Indexer{
		store:       store,
		embedder:    embedder,
		chunker:     NewChunker(),
		batchSize:   batchSize,
		concurrency: defaultEmbedConcurrency,
		logger:      logging.NewComponentLogger(logger, "indexer"),
	}
}

// ChunkID derives the stable identifier for chunk index of source.
func ChunkID(source string, index int) string {
	sum := sha1.Sum([]byte(source + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(sum[:])
}

// CollectDocuments returns the rule files under root in lexical order. root may
// also name a single file.
func CollectDocuments(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(ruleExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Documents chunks the file at path into Documents without vectors. PDFs are
// split page by page. Each chunk records the file's base name as its source;
// key seeds the chunk IDs.
func (ix *Indexer) Documents(path, key string) ([]Document, error) {
	texts, err := readRuleText(path)
	if err != nil {
		return nil, err
	}
	source := filepath.Base(path)
	var docs []Document
	for _, text := range texts {
		for _, chunk := range ix.chunker.Split(text) {
			docs = append(docs, Document{ID: ChunkID(key, len(docs)), Content: chunk, Source: source})
		}
	}
	return docs, nil
}

func readRuleText(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfPages(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []string{string(data)}, nil
}

// IndexPath indexes every rule document under root.
func (ix *Indexer) IndexPath(ctx context.Context, root string) (IndexSummary, error) {
	started := time.Now()
	files, err := CollectDocuments(root)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("collect rule documents: %w", err)
	}
	base := root
	if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
		base = filepath.Dir(root)
	}

	var docs []Document
	for _, file := range files {
		key, relErr := filepath.Rel(base, file)
		if relErr != nil {
			key = filepath.Base(file)
		}
		fileDocs, err := ix.Documents(file, filepath.ToSlash(key))
		if err != nil {
			return IndexSummary{}, err
		}
		docs = append(docs, fileDocs...)
	}
	if err := ix.embed(ctx, docs); err != nil {
		return IndexSummary{}, err
	}
	if ensurer, ok := ix.store.(IndexEnsurer); ok {
		if err := ensurer.EnsureIndex(ctx, vectorDimensions(docs)); err != nil {
			return IndexSummary{}, fmt.Errorf("ensure rule index: %w", err)
		}
	}
	if err := ix.store.Upsert(ctx, docs); err != nil {
		return IndexSummary{}, fmt.Errorf("upsert rule chunks: %w", err)
	}

	summary := IndexSummary{Files: len(files), Chunks: len(docs), Elapsed: time.Since(started)}
	ix.logger.Info("knowledge base indexed",
		logging.Int("files", summary.Files),
		logging.Int("chunks", summary.Chunks),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (ix *Indexer) embed(ctx context.Context, docs []Document) error {
	if ix.embedder == nil || len(docs) == 0 {
		return nil
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ix.concurrency)
	for start := 0; start < len(docs); start += ix.batchSize {
		batch := docs[start:min(start+ix.batchSize, len(docs))]
		group.Go(func() error {
			texts := make([]string, len(batch))
			for i, doc := range batch {
				texts[i] = doc.Content
			}
			vectors, err := ix.embedder.Embed(groupCtx, texts)
			if err != nil {
				return fmt.Errorf("embed rule chunks: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed rule chunks: got %d vectors for %d chunks", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Vector = vectors[i]
			}
			return nil
		})
	}
	return group.Wait()
}

func vectorDimensions(docs []Document) int {
	for _, doc := range docs {
		if len(doc.Vector) > 0 {
			return len(doc.Vector)
		}
	}
	return 0
}
