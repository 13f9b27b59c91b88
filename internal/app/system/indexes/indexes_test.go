package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/organigram/internal/app/system/indexes"
	"github.com/dalemusser/organigram/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"org_nodes": {
			"idx_orgnodes_createdat_id",
			"idx_orgnodes_parent",
			"idx_orgnodes_type_name",
			"uniq_orgnodes_person_user",
			"idx_orgnodes_createdby",
		},
		"users": {
			"uniq_users_email",
			"uniq_users_usernameci",
			"idx_users_role",
		},
		"audit_events": {
			"idx_audit_timestamp",
			"idx_audit_node_timestamp",
			"idx_audit_user_timestamp",
			"idx_audit_category_type_timestamp",
		},
	}

	for coll, names := range expected {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as idx_orgnodes_parent under an old name.
	_, err := db.Collection("org_nodes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent_id", Value: 1}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, ctx, db, "org_nodes")
	if !got["idx_orgnodes_parent"] || got["parent_id_1"] {
		t.Errorf("expected index to be renamed, got %v", got)
	}
}

func TestEnsureAll_OnePersonPerAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	c := db.Collection("org_nodes")
	userID := primitive.NewObjectID()

	if _, err := c.InsertOne(ctx, bson.M{"node_type": "PERSON", "user_id": userID, "name": "Alice"}); err != nil {
		t.Fatalf("first person: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"node_type": "PERSON", "user_id": userID, "name": "Alice again"}); err == nil {
		t.Error("expected second PERSON node for the same account to be rejected")
	}

	// Nodes without user_id are not constrained.
	for _, name := range []string{"Division A", "Division B"} {
		if _, err := c.InsertOne(ctx, bson.M{"node_type": "DIVISION", "name": name}); err != nil {
			t.Errorf("division %s: %v", name, err)
		}
	}
	for _, name := range []string{"Created for Bob", "Created for Carol"} {
		if _, err := c.InsertOne(ctx, bson.M{"node_type": "PERSON", "name": name}); err != nil {
			t.Errorf("person without account %s: %v", name, err)
		}
	}
}
