package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/organigram/internal/app/store/audit"
	"github.com/dalemusser/organigram/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() || events[0].Timestamp.IsZero() {
		t.Errorf("expected id and timestamp to be assigned: %+v", events[0])
	}
}

func TestStore_NodeHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	nodeID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	for _, et := range []string{audit.EventNodeCreated, audit.EventNodeUpdated, audit.EventNodeDeleted} {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryOrgChart,
			EventType: et,
			ActorID:   &actorID,
			NodeID:    &nodeID,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log %s: %v", et, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	// Unrelated node.
	other := primitive.NewObjectID()
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryOrgChart, EventType: audit.EventNodeCreated, NodeID: &other, Success: true})

	events, err := store.Query(ctx, audit.QueryFilter{NodeID: &nodeID, Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventNodeDeleted {
		t.Errorf("expected newest first, got %s", events[0].EventType)
	}
}

func TestStore_QueryAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryOrgChart, EventType: audit.EventNodeCreated, Success: true})

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("CountByFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 auth events, got %d", n)
	}

	events, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventNodeCreated})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 node event, got %d", len(events))
	}

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	if n, _ := store.CountByFilter(ctx, audit.QueryFilter{StartTime: &future}); n != 0 {
		t.Errorf("expected no events after %v, got %d", future, n)
	}
	if n, _ := store.CountByFilter(ctx, audit.QueryFilter{StartTime: &past}); n != 3 {
		t.Errorf("expected 3 events in the last hour, got %d", n)
	}
}
