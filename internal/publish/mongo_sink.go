package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	"pagebuilder/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoSink writes pages to {prefix}_pages and blocks to {prefix}_blocks.
type mongoSink struct {
	client *mongo.Client
	dbName string
	prefix string
}

func newMongoSink(t *domain.PublishTarget, password, prefix string) (*mongoSink, error) {
	uri, dbName := buildMongoURI(t, password)
	log.Printf("[MONGO] Connecting with URI: %s", maskPassword(uri, password))
	log.Printf("[MONGO] Database: %s", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Printf("[MONGO] Connect failed: %v", err)
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoSink{client: client, dbName: dbName, prefix: prefix}, nil
}

func (m *mongoSink) Test(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func pageDocument(doc *Document) bson.M {
	publishedAt := time.Now().UTC()
	if doc.Page.PublishedAt != nil {
		publishedAt = doc.Page.PublishedAt.UTC()
	}
	return bson.M{
		"_id":          doc.Page.ID,
		"title":        doc.Page.Title,
		"slug":         doc.Page.Slug,
		"status":       string(domain.PageStatusPublished),
		"html":         doc.HTML,
		"published_at": publishedAt,
	}
}

func blockDocument(b domain.Block) bson.M {
	var parent any
	if b.ParentBlockID != nil {
		parent = *b.ParentBlockID
	}
	props := map[string]any(b.Props)
	if props == nil {
		props = map[string]any{}
	}
	return bson.M{
		"_id":             b.ID,
		"page_id":         b.PageID,
		"component_name":  b.ComponentName,
		"parent_block_id": parent,
		"sort_order":      b.SortOrder,
		"is_visible":      b.IsVisible,
		"props":           props,
		"custom_css":      b.CustomCSS,
		"custom_classes":  b.CustomClasses,
	}
}

// Publish upserts the page document and replaces its block documents.
// Standalone servers have no multi-document transactions, so a failure
// between the delete and the insert leaves the page without blocks until the
// next publish.
func (m *mongoSink) Publish(ctx context.Context, doc *Document) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db := m.client.Database(m.dbName)
	pages := db.Collection(m.prefix + "_pages")
	blocks := db.Collection(m.prefix + "_blocks")

	if _, err := pages.ReplaceOne(ctx, bson.M{"_id": doc.Page.ID}, pageDocument(doc),
		options.Replace().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("upsert page: %w", err)
	}

	del, err := blocks.DeleteMany(ctx, bson.M{"page_id": doc.Page.ID})
	if err != nil {
		return nil, fmt.Errorf("delete blocks: %w", err)
	}
	result := &Result{Deleted: int(del.DeletedCount)}

	if len(doc.Blocks) > 0 {
		docs := make([]any, 0, len(doc.Blocks))
		for _, b := range doc.Blocks {
			b.PageID = doc.Page.ID
			docs = append(docs, blockDocument(b))
		}
		ins, err := blocks.InsertMany(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("insert blocks: %w", err)
		}
		result.Upserted = len(ins.InsertedIDs)
	}

	log.Printf("[PUBLISH] mongodb: page %s -> %s.%s (%d blocks, %d replaced)",
		doc.Page.ID, m.dbName, m.prefix, result.Upserted, result.Deleted)
	return result, nil
}

func (m *mongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
