package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// mongoNode is the stored document shape: the node record plus its
// world-space position, written by the ingest step after a layout pass.
// Region queries run against the position fields, which carry a 2d index.
type mongoNode struct {
	tree.Node `bson:",inline"`
	X         float64 `bson:"x"`
	Y         float64 `bson:"y"`
}

// MongoSource serves region queries from a MongoDB collection of
// position-annotated nodes. Intended for server deployments where the
// tree is too large to hold in process.
type MongoSource struct {
	coll *mongo.Collection
}

// NewMongoSource connects to MongoDB and returns a source over the given
// database and collection.
func NewMongoSource(ctx context.Context, uri, database, collection string) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoSource{coll: client.Database(database).Collection(collection)}, nil
}

// Close disconnects the underlying client.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}

// FetchRegion returns the nodes whose stored positions fall inside bounds.
func (s *MongoSource) FetchRegion(ctx context.Context, bounds geom.Rect, maxDepth int) ([]tree.Node, error) {
	filter := bson.M{
		"x": bson.M{"$gte": bounds.MinX, "$lt": bounds.MaxX},
		"y": bson.M{"$gte": bounds.MinY, "$lt": bounds.MaxY},
	}

	opts := options.Find().SetSort(bson.D{{Key: "generation", Value: 1}, {Key: "id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoNode
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]tree.Node, 0, len(docs))
	minGen := 0
	for i, d := range docs {
		if i == 0 || d.Generation < minGen {
			minGen = d.Generation
		}
	}
	for _, d := range docs {
		if maxDepth > 0 && d.Generation-minGen >= maxDepth {
			continue
		}
		out = append(out, d.Node)
	}
	return out, nil
}

// FetchInitial returns the root and its first generations. An empty rootID
// selects the document without a parent reference.
func (s *MongoSource) FetchInitial(ctx context.Context, rootID string, generations int) ([]tree.Node, error) {
	if generations <= 0 {
		generations = DefaultInitialGenerations
	}

	var rootFilter bson.M
	if rootID != "" {
		rootFilter = bson.M{"id": rootID}
	} else {
		rootFilter = bson.M{"parent_id": bson.M{"$in": bson.A{nil, ""}}}
	}

	var root mongoNode
	err := s.coll.FindOne(ctx, rootFilter).Decode(&root)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Pull the generation window below the root, then keep only actual
	// descendants so sibling trees in the same collection stay out.
	filter := bson.M{"generation": bson.M{
		"$gte": root.Generation,
		"$lte": root.Generation + generations,
	}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "generation", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoNode
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	keep := map[string]bool{root.Node.ID: true}
	out := []tree.Node{root.Node}
	for _, d := range docs {
		if d.Node.ID == root.Node.ID {
			continue
		}
		if keep[d.ParentID] {
			keep[d.Node.ID] = true
			out = append(out, d.Node)
		}
	}
	return out, nil
}

// Ensure MongoSource implements NodeSource.
var _ NodeSource = (*MongoSource)(nil)
