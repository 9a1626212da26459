package milvus

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// Field names of a collection.
const (
	FieldID       = "id"
	FieldText     = "text"
	FieldMetadata = "metadata"
	FieldVector   = "vector"
)

const (
	idMaxLength   = "512"
	textMaxLength = "65535"

	hnswM              = 16
	hnswEfConstruction = 200
)

// Sink writes records into a Milvus collection, one partition per namespace.
type Sink struct {
	api        api
	collection string
	logger     *slog.Logger

	mu         sync.Mutex
	loaded     bool
	partitions map[string]bool
}

var _ storage.VectorSink = (*Sink)(nil)

// NewSink connects to the Milvus server at address and returns a sink writing
// to the collection named after indexName.
//
// Returns storage.VectorSink interface to enforce abstraction.
func NewSink(ctx context.Context, address, indexName string) (storage.VectorSink, error) {
	if indexName == "" {
		return nil, storage.ErrIndexNameRequired
	}
	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: address})
	if err != nil {
		return nil, classify("connect", err)
	}
	return newSink(clientAPI{c: c}, indexName), nil
}

func newSink(a api, indexName string) *Sink {
	collection := Name(indexName)
	return &Sink{
		api:        a,
		collection: collection,
		logger:     slog.Default().With("component", "milvus-sink", "collection", collection),
		partitions: make(map[string]bool),
	}
}

// Collection returns the collection the sink writes to.
func (s *Sink) Collection() string {
	return s.collection
}

// Close closes the client connection.
func (s *Sink) Close() error {
	return s.api.close(context.Background())
}

// Upsert writes records into the partition for namespace in a single call.
func (s *Sink) Upsert(ctx context.Context, namespace string, records ...*core.IngestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := storage.CheckRecords(namespace, records)
	if err != nil {
		return core.NewError(core.KindVectorStore, "upsert", err)
	}
	partition := Name(namespace)
	if err := s.ensure(ctx, partition, dim); err != nil {
		return err
	}

	ids := make([]string, len(records))
	texts := make([]string, len(records))
	metadata := make([][]byte, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = PrimaryKey(namespace, r.ID)
		texts[i] = r.Text
		vectors[i] = r.Vector
		raw, err := json.Marshal(withNamespace(r.Metadata, namespace))
		if err != nil {
			return core.NewError(core.KindVectorStore, "upsert", err)
		}
		metadata[i] = raw
	}

	columns := []column.Column{
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnJSONBytes(FieldMetadata, metadata),
		column.NewColumnFloatVector(FieldVector, dim, vectors),
	}
	if err := s.api.upsert(ctx, s.collection, partition, columns); err != nil {
		return classify("upsert", err)
	}

	s.logger.Debug("upserted records", "partition", partition, "count", len(records))
	return nil
}

// ensure creates and loads the collection once and creates partition on
// first use.
func (s *Sink) ensure(ctx context.Context, partition string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		exists, err := s.api.hasCollection(ctx, s.collection)
		if err != nil {
			return classify("has collection", err)
		}
		if !exists {
			s.logger.Info("creating vector store", "dimension", dim)
			if err := s.api.createCollection(ctx, schema(s.collection, dim)); err != nil {
				return classify("create collection", err)
			}
			idx := index.NewHNSWIndex(entity.COSINE, hnswM, hnswEfConstruction)
			if err := s.api.createIndex(ctx, s.collection, FieldVector, idx); err != nil {
				return classify("create index", err)
			}
		}
		if err := s.api.loadCollection(ctx, s.collection); err != nil {
			return classify("load collection", err)
		}
		s.loaded = true
	}

	if s.partitions[partition] {
		return nil
	}
	exists, err := s.api.hasPartition(ctx, s.collection, partition)
	if err != nil {
		return classify("has partition", err)
	}
	if !exists {
		s.logger.Info("creating partition", "partition", partition)
		if err := s.api.createPartition(ctx, s.collection, partition); err != nil {
			return classify("create partition", err)
		}
	}
	s.partitions[partition] = true
	return nil
}

func schema(collection string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    "Embedded document chunks",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": idMaxLength},
			},
			{
				Name:       FieldText,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": textMaxLength},
			},
			{
				Name:     FieldMetadata,
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:       FieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dim)},
			},
		},
	}
}

func withNamespace(metadata map[string]string, namespace string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	maps.Copy(out, metadata)
	out["namespace"] = namespace
	return out
}

// PrimaryKey returns the collection key of a record. Keys are unique per
// collection, so the namespace is part of the key.
func PrimaryKey(namespace, id string) string {
	return namespace + ":" + id
}

// Name maps an index or namespace name onto the identifier rules Milvus
// applies to collections and partitions: letters, digits and underscores,
// not starting with a digit.
func Name(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}

var rateLimitMarkers = []string{"rate limit", "ratelimit", "too many requests", "quota"}

func classify(op string, err error) error {
	return storage.Classify(op, err, isRateLimit)
}

func isRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
