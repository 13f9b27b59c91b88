// internal/app/store/orgnodes/orgnodestore.go
package orgnodestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/organigram/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the org node collection.
const Collection = "org_nodes"

var (
	ErrNotFound = errors.New("org node not found")
	// ErrDuplicatePerson is returned when an account already owns a PERSON node.
	ErrDuplicatePerson = errors.New("account already has a person node")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts n, assigning an id when n has none and setting timestamps.
func (s *Store) Create(ctx context.Context, n models.OrgNode) (models.OrgNode, error) {
	now := time.Now().UTC()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.NameCI = text.Fold(n.Name)
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return models.OrgNode{}, ErrDuplicatePerson
		}
		return models.OrgNode{}, err
	}
	return n, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.OrgNode, error) {
	var n models.OrgNode
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OrgNode{}, ErrNotFound
	}
	if err != nil {
		return models.OrgNode{}, err
	}
	return n, nil
}

// Exists reports whether a node with id is stored.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ParentOf returns the parent of id. found is false when id is not stored.
func (s *Store) ParentOf(ctx context.Context, id primitive.ObjectID) (*primitive.ObjectID, bool, error) {
	var doc struct {
		ParentID *primitive.ObjectID `bson:"parent_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"parent_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.ParentID, true, nil
}

// List returns every node ordered by creation time, oldest first.
func (s *Store) List(ctx context.Context) ([]models.OrgNode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{}, opts)
}

// FindDivisionsByNames returns DIVISION nodes whose name is one of names.
func (s *Store) FindDivisionsByNames(ctx context.Context, names []string) ([]models.OrgNode, error) {
	if len(names) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{
		"node_type": models.NodeTypeDivision,
		"name":      bson.M{"$in": names},
	}, opts)
}

// Save writes every mutable field of n and refreshes updated_at.
func (s *Store) Save(ctx context.Context, n models.OrgNode) error {
	set := bson.M{
		"parent_id":      n.ParentID,
		"name":           n.Name,
		"name_ci":        text.Fold(n.Name),
		"role_title":     n.RoleTitle,
		"department":     n.Department,
		"description":    n.Description,
		"photo_url":      n.PhotoURL,
		"node_type":      n.NodeType,
		"linked_user_id": n.LinkedUserID,
		"updated_at":     time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if n.UserID != nil {
		set["user_id"] = n.UserID
	} else {
		update["$unset"] = bson.M{"user_id": ""}
	}

	res, err := s.c.UpdateByID(ctx, n.ID, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicatePerson
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a node by id. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReparentChildren moves every direct child of from under to (nil = root).
func (s *Store) ReparentChildren(ctx context.Context, from primitive.ObjectID, to *primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"parent_id": from},
		bson.M{"$set": bson.M{"parent_id": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// HasPersonForUser reports whether userID already owns a PERSON node.
func (s *Store) HasPersonForUser(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"node_type": models.NodeTypePerson,
		"user_id":   userID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.OrgNode, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	nodes := []models.OrgNode{}
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
