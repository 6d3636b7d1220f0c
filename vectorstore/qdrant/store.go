// Package qdrant implements vectorstore.Backend against a Qdrant gRPC
// endpoint.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/vectorstore"
)

// idNamespace deterministically maps our string vector ids (of the form
// "content:{contentId}:{chunkIndex}") onto the UUIDs Qdrant point ids
// require, so upsert stays idempotent under our own id scheme.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ragforge.vectorstore.qdrant"))

func pointUUID(id string) string {
	return uuid.NewSHA1(idNamespace, []byte(id)).String()
}

// Store is a vectorstore.Backend backed by a Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New dials addr (a Qdrant gRPC endpoint) and returns a Store over collection.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore/qdrant: dial %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error { return s.conn.Close() }

// EnsureCollection creates the collection with cosine-distance vectors of
// the given dimension, if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: uint64(dims), Distance: pb.Distance_Cosine},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: create collection %s: %w", s.collection, err)
	}
	return nil
}

// UpsertBatch writes one batch of records, keyed by a UUID derived from each
// record's logical id so re-upserting the same id overwrites in place.
func (s *Store) UpsertBatch(ctx context.Context, records []ragforge.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointUUID(r.ID)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Values}}},
			Payload: metaPayload(r.ID, r.Metadata),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Query runs a k-NN similarity search with the already-widened filter.
func (s *Store) Query(ctx context.Context, vec []float32, filter vectorstore.QueryFilter, topK int) ([]vectorstore.Match, error) {
	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if cond := buildFilter(filter); cond != nil {
		req.Filter = cond
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/qdrant: search: %w", err)
	}

	out := make([]vectorstore.Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		out[i] = vectorstore.Match{
			ID:       stringField(r.GetPayload(), "recordId"),
			Score:    r.GetScore(),
			Metadata: metaFromPayload(r.GetPayload()),
		}
	}
	return out, nil
}

// Stats reports the collection's current point count and vector dimension.
func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("vectorstore/qdrant: collection info: %w", err)
	}
	dim := 0
	if params := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		dim = int(params.GetSize())
	}
	return vectorstore.Stats{VectorCount: int(info.GetResult().GetPointsCount()), Dimension: dim}, nil
}

func buildFilter(f vectorstore.QueryFilter) *pb.Filter {
	var must []*pb.Condition
	if len(f.UserIDs) > 0 {
		must = append(must, matchAny("userId", f.UserIDs))
	}
	if f.Category != "" {
		must = append(must, matchKeyword("category", f.Category))
	}
	if f.MimeType != "" {
		must = append(must, matchKeyword("mimeType", f.MimeType))
	}
	if f.CreatedAfter != nil || f.CreatedBefore != nil {
		r := &pb.Range{}
		if f.CreatedAfter != nil {
			gte := float64(f.CreatedAfter.Unix())
			r.Gte = &gte
		}
		if f.CreatedBefore != nil {
			lte := float64(f.CreatedBefore.Unix())
			r.Lte = &lte
		}
		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{Key: "createdAt", Range: r},
			},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

func matchKeyword(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{Key: key, Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}}},
		},
	}
}

func matchAny(key string, values []string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keywords{Keywords: &pb.RepeatedStrings{Strings: values}}},
			},
		},
	}
}

func metaPayload(recordID string, m ragforge.VectorMeta) map[string]*pb.Value {
	return map[string]*pb.Value{
		"recordId":  strVal(recordID),
		"userId":    strVal(m.UserID),
		"contentId": strVal(m.ContentID),
		"category":  strVal(m.Category),
		"mimeType":  strVal(m.MimeType),
		"createdAt": &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: m.CreatedAt}},
		"version":   &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(m.Version)}},
	}
}

func metaFromPayload(payload map[string]*pb.Value) ragforge.VectorMeta {
	return ragforge.VectorMeta{
		UserID:    stringField(payload, "userId"),
		ContentID: stringField(payload, "contentId"),
		Category:  stringField(payload, "category"),
		MimeType:  stringField(payload, "mimeType"),
		CreatedAt: payload["createdAt"].GetIntegerValue(),
		Version:   uint32(payload["version"].GetIntegerValue()),
	}
}

func stringField(payload map[string]*pb.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func strVal(s string) *pb.Value { return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}} }

// compile-time interface check
var _ vectorstore.Backend = (*Store)(nil)
