// Package qdrant implements pkg/vector's Driver against a Qdrant instance
// over its gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/vector"
)

const (
	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "graphmem"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadGroupKey = "group_id"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC address as "host:port". Port defaults to
	// DefaultPort when omitted.
	Target string

	// Collection is the collection name (defaults to DefaultCollection).
	Collection string

	// Dimensions is the embedding vector size, required to create the
	// collection on first use.
	Dimensions uint
}

// Driver implements vector.Driver backed by Qdrant.
type Driver struct {
	client     *qdrant.Client
	collection string
	dims       uint
	logger     *zap.Logger
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, cfg Config, logger *zap.Logger) (*Driver, error) {
	host := cfg.Target
	port := DefaultPort

	if h, p, err := net.SplitHostPort(cfg.Target); err == nil {
		host = h
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant at %s: %v", vector.ErrConnection, cfg.Target, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		dims:       cfg.Dimensions,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return d, nil
}

// ensureCollection creates the collection if it does not exist yet.
func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(d.dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, d.collection, err)
	}

	d.logger.Info("created qdrant collection",
		zap.String("collection", d.collection),
		zap.Uint("dimensions", d.dims),
	)

	return nil
}

// Add upserts documents into the collection.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadGroupKey: doc.GroupID,
			}),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", vector.ErrConnection, len(points), err)
	}

	return nil
}

// Query returns the topK nearest documents, optionally filtered by group.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, groupIDs []string) ([]vector.QueryResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if len(groupIDs) > 0 {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords(payloadGroupKey, groupIDs...),
			},
		}
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %q: %v", vector.ErrConnection, d.collection, err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		result := vector.QueryResult{
			Document: vector.Document{
				ID: point.GetId().GetUuid(),
			},
			Score: point.GetScore(),
		}
		if payload := point.GetPayload(); payload != nil {
			result.GroupID = payload[payloadGroupKey].GetStringValue()
		}
		results = append(results, result)
	}

	return results, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting %d points: %v", vector.ErrConnection, len(ids), err)
	}

	return nil
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}
