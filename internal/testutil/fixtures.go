package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/organigram/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given username and role.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		UsernameCI: text.Fold(username),
		Email:      email,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// CreateDivision inserts a DIVISION node under parent (nil = root).
func (f *Fixtures) CreateDivision(ctx context.Context, name string, parent *primitive.ObjectID) models.OrgNode {
	f.t.Helper()
	return f.insertNode(ctx, models.OrgNode{
		ParentID:    parent,
		Name:        name,
		RoleTitle:   "Division",
		NodeType:    models.NodeTypeDivision,
		CreatedByID: models.SystemUserID,
	})
}

// CreatePerson inserts a PERSON node owned by owner under parent.
func (f *Fixtures) CreatePerson(ctx context.Context, name string, parent *primitive.ObjectID, owner primitive.ObjectID) models.OrgNode {
	f.t.Helper()
	return f.insertNode(ctx, models.OrgNode{
		ParentID:     parent,
		Name:         name,
		RoleTitle:    "Analyst",
		NodeType:     models.NodeTypePerson,
		CreatedByID:  owner,
		LinkedUserID: &owner,
		UserID:       &owner,
	})
}

func (f *Fixtures) insertNode(ctx context.Context, n models.OrgNode) models.OrgNode {
	f.t.Helper()
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.NameCI = text.Fold(n.Name)
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := f.db.Collection("org_nodes").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("insert node %q: %v", n.Name, err)
	}
	return n
}
