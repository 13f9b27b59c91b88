package auditlog_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/organigram/internal/app/store/audit"
	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memStore) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "alice")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.NodeCreated(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), "Alice")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting  string
		wantDB   int
		wantLogs int
	}{
		{"all", 1, 1},
		{"db", 1, 0},
		{"log", 0, 1},
		{"off", 0, 0},
		{"", 1, 1},
	}

	for _, tt := range tests {
		t.Run("setting="+tt.setting, func(t *testing.T) {
			store := &memStore{}
			core, logs := observer.New(zapcore.InfoLevel)
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, OrgChart: tt.setting})

			logger.NodeCreated(context.Background(), httptest.NewRequest("POST", "/api/org-chart", nil),
				primitive.NewObjectID(), primitive.NewObjectID(), "Alice")

			if len(store.events) != tt.wantDB {
				t.Errorf("db events = %d, want %d", len(store.events), tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("log entries = %d, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_CategoryRouting(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", OrgChart: "db"})
	ctx := context.Background()
	req := httptest.NewRequest("POST", "/", nil)

	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "alice")
	logger.NodeDeleted(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), "Alice", 2)

	if len(store.events) != 1 {
		t.Fatalf("expected only the org chart event, got %d", len(store.events))
	}
	e := store.events[0]
	if e.EventType != audit.EventNodeDeleted || e.Details["children_reparented"] != "2" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestLogger_ClientIP(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "198.51.100.4:41000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	logger.LoginFailedUserNotFound(context.Background(), req, "ghost")

	if got := store.events[0].IP; got != "198.51.100.4" {
		t.Errorf("IP = %q, want the peer address (forwarding headers are not trusted)", got)
	}
	if store.events[0].Success {
		t.Error("failed login must not be marked successful")
	}
}

func TestLogger_LogoutWithoutUser(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})

	logger.Logout(context.Background(), httptest.NewRequest("POST", "/api/auth/logout", nil), "")

	if len(store.events) != 1 || store.events[0].UserID != nil {
		t.Errorf("unexpected events: %+v", store.events)
	}
}
