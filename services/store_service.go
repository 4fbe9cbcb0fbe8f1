package services

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// storeSnapshot is the immutable unit published by a rebuild: a fully
// populated collection. Readers always see either the previous snapshot or
// a complete new one, never a half-written collection.
type storeSnapshot struct {
	collection chromago.Collection
	name       string
}

// EmbeddingStore wraps the external Chroma vector store. The only supported
// mutation is a full rebuild: Rebuild writes every record into a brand-new
// versioned collection and swaps the active snapshot once the collection is
// complete. There is no delete-by-id; removal happens by excluding a source
// file and rebuilding.
type EmbeddingStore struct {
	client    chromago.Client
	embedder  Embedder
	base      string
	chunkSize int
	logger    *zap.Logger
	active    atomic.Pointer[storeSnapshot]
}

func NewEmbeddingStore(client chromago.Client, embedder Embedder, baseName string, chunkSize int, logger *zap.Logger) *EmbeddingStore {
	return &EmbeddingStore{
		client:    client,
		embedder:  embedder,
		base:      baseName,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// AttachLatest points the active snapshot at the newest surviving versioned
// collection, creating an empty one when none exists. Called once at startup
// so queries can be served before the first background rebuild publishes.
// Only complete rebuilds carry the versioned prefix (Rebuild renames on
// publish), so anything still under the staging prefix is debris from an
// interrupted rebuild and gets deleted here.
func (s *EmbeddingStore) AttachLatest(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", ErrStoreUnavailable, err)
	}

	prefix := s.base + "-v"
	staging := s.base + "-building-"
	var names []string
	for _, col := range collections {
		switch {
		case strings.HasPrefix(col.Name(), prefix):
			names = append(names, col.Name())
		case strings.HasPrefix(col.Name(), staging):
			s.discard(ctx, col.Name())
		}
	}

	if len(names) == 0 {
		collection, err := s.getOrCreateCollection(ctx, prefix+"0")
		if err != nil {
			return err
		}
		s.active.Store(&storeSnapshot{collection: collection, name: prefix + "0"})
		return nil
	}

	// Version suffixes are unix nanos, so the lexicographically greatest
	// name is the newest.
	sort.Strings(names)
	latest := names[len(names)-1]
	collection, err := s.getOrCreateCollection(ctx, latest)
	if err != nil {
		return err
	}
	s.active.Store(&storeSnapshot{collection: collection, name: latest})

	for _, name := range names[:len(names)-1] {
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			s.logger.Warn("failed to delete stale collection", zap.String("collection", name), zap.Error(err))
		}
	}
	s.logger.Info("attached to collection", zap.String("collection", latest))
	return nil
}

// Rebuild embeds and stores all records in a staging collection, renames it
// to its versioned name once every record is in, swaps the active snapshot,
// then best-effort deletes the superseded one. A rebuild that fails partway
// deletes its staging collection, so a versioned name always denotes a
// complete corpus and a restart can never attach to a half-written one.
// Records missing a usable doc_id are logged and stored anyway; that is an
// ingestion defect upstream, not a reason to drop data here.
func (s *EmbeddingStore) Rebuild(ctx context.Context, records []models.Record) error {
	if missing := recordsMissingDocID(records); len(missing) > 0 {
		s.logger.Warn("some records missing doc_id in metadata", zap.Ints("indices", missing))
	}

	version := time.Now().UnixNano()
	stagingName := fmt.Sprintf("%s-building-%d", s.base, version)
	collection, err := s.getOrCreateCollection(ctx, stagingName)
	if err != nil {
		return err
	}

	stored := 0
	for i, record := range records {
		metadata := metadataAttributes(CleanMetadata(record.Metadata))
		// One indexed record per chunk: pages longer than the chunk size are
		// windowed before embedding, each window keeping the page's metadata.
		for _, chunk := range ChunkText(record.Text, s.chunkSize) {
			vector, err := s.embedder.EmbedText(ctx, chunk)
			if err != nil {
				s.discard(ctx, stagingName)
				return fmt.Errorf("could not embed chunk of record %d: %w", i, err)
			}
			embedding := embeddings.NewEmbeddingFromFloat32(vector)

			err = collection.Add(ctx,
				chromago.WithIDs(chromago.DocumentID(uuid.New().String())),
				chromago.WithTexts(chunk),
				chromago.WithEmbeddings(embedding),
				chromago.WithMetadatas(metadata),
			)
			if err != nil {
				s.discard(ctx, stagingName)
				return fmt.Errorf("%w: add record %d: %v", ErrStoreUnavailable, i, err)
			}
			stored++
		}
	}

	name := fmt.Sprintf("%s-v%d", s.base, version)
	if err := collection.ModifyName(ctx, name); err != nil {
		s.discard(ctx, stagingName)
		return fmt.Errorf("%w: publish collection %s: %v", ErrStoreUnavailable, name, err)
	}

	previous := s.active.Swap(&storeSnapshot{collection: collection, name: name})
	if previous != nil && previous.name != name {
		if err := s.client.DeleteCollection(ctx, previous.name); err != nil {
			s.logger.Warn("failed to delete superseded collection",
				zap.String("collection", previous.name), zap.Error(err))
		}
	}

	s.logger.Info("embeddings stored",
		zap.Int("num_records", len(records)),
		zap.Int("num_chunks", stored),
		zap.String("collection", name))
	return nil
}

// Search returns up to topK records most similar to the query, each scored
// with a normalized relevance in [0,1]. Results below minScore are excluded
// when minScore is positive.
func (s *EmbeddingStore) Search(ctx context.Context, query string, topK int, minScore float64) ([]models.QueryResult, error) {
	snapshot := s.active.Load()
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no active collection", ErrStoreUnavailable)
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrStoreUnavailable, err)
	}
	embedding := embeddings.NewEmbeddingFromFloat32(vector)

	results, err := snapshot.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embedding),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrStoreUnavailable, err)
	}

	var out []models.QueryResult
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return out, nil
	}

	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = NormalizeScore(float64(distanceGroups[0][i]))
		}
		if minScore > 0 && score < minScore {
			continue
		}
		source := ""
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			source = docIDFromMetadata(metadataGroups[0][i])
		}
		out = append(out, models.QueryResult{
			Content: doc.ContentString(),
			Source:  source,
			Score:   score,
		})
	}
	return out, nil
}

// Count reports the number of indexed records in the active snapshot.
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	snapshot := s.active.Load()
	if snapshot == nil {
		return 0, fmt.Errorf("%w: no active collection", ErrStoreUnavailable)
	}
	count, err := snapshot.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// discard best-effort deletes a collection that was never published. The
// rebuild's own context may already be cancelled, which must not keep the
// cleanup from running.
func (s *EmbeddingStore) discard(ctx context.Context, name string) {
	if err := s.client.DeleteCollection(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warn("failed to delete unpublished collection",
			zap.String("collection", name), zap.Error(err))
	}
}

func (s *EmbeddingStore) getOrCreateCollection(ctx context.Context, name string) (chromago.Collection, error) {
	collection, err := s.client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "manufacturing documentation corpus"),
				chromago.NewStringAttribute("created_by", "manualrag"),
			),
		),
		// Must come after the metadata option, which replaces the create
		// payload's metadata wholesale.
		chromago.WithHNSWSpaceCreate(embeddings.COSINE),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: get or create collection %s: %v", ErrStoreUnavailable, name, err)
	}
	return collection, nil
}

// NormalizeScore maps a cosine distance to a relevance in [0,1]. Collections
// are created with the cosine space, so distance is in [0,2] and 1-distance
// is the signed similarity; clamping folds anti-similar results to 0.
func NormalizeScore(distance float64) float64 {
	score := 1.0 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// CleanMetadata keeps primitive-typed values as-is, serializes slices and
// maps to JSON strings, stringifies anything else, and drops values that
// cannot be serialized. The store only accepts primitive metadata values.
func CleanMetadata(meta map[string]any) map[string]any {
	clean := make(map[string]any, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string, bool, int, int64, float64:
			clean[k] = val
		case float32:
			clean[k] = float64(val)
		default:
			if v == nil {
				continue
			}
			rv := reflect.ValueOf(v)
			switch rv.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				encoded, err := json.Marshal(v)
				if err != nil {
					continue
				}
				clean[k] = string(encoded)
			default:
				clean[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	return clean
}

// recordsMissingDocID returns the indices of records whose metadata carries
// no usable doc_id.
func recordsMissingDocID(records []models.Record) []int {
	var missing []int
	for i, record := range records {
		id, ok := record.Metadata["doc_id"].(string)
		if !ok || id == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

// metadataAttributes converts cleaned metadata into Chroma attributes.
// CleanMetadata has already reduced every value to a primitive.
func metadataAttributes(meta map[string]any) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// docIDFromMetadata pulls doc_id out of a Chroma document metadata.
func docIDFromMetadata(metadata chromago.DocumentMetadata) string {
	if metadata == nil {
		return ""
	}
	id, _ := metadata.GetString("doc_id")
	return id
}
