package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/organigram/internal/app/system/auth"
	"github.com/dalemusser/organigram/internal/app/system/authz"
	"github.com/dalemusser/organigram/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	role, _, id, ok := authz.UserCtx(req)
	if ok || role != "visitor" || id != primitive.NilObjectID {
		t.Errorf("unexpected: %q %v %v", role, id, ok)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-id", Role: "admin"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("malformed id must fail closed")
	}
}

func TestUserCtx_LowercasesRole(t *testing.T) {
	id := testUserID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id, Name: "Alice", Role: "EDITOR"})

	role, name, oid, ok := authz.UserCtx(req)
	if !ok || role != "editor" || name != "Alice" || oid.Hex() != id {
		t.Errorf("unexpected: %q %q %s %v", role, name, oid.Hex(), ok)
	}
}

func TestCanModifyNode(t *testing.T) {
	creator := primitive.NewObjectID()
	linked := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	node := models.OrgNode{
		ID:           primitive.NewObjectID(),
		NodeType:     models.NodeTypePerson,
		CreatedByID:  creator,
		LinkedUserID: &linked,
	}

	tests := []struct {
		name string
		user primitive.ObjectID
		role string
		want bool
	}{
		{"creator", creator, models.RoleUser, true},
		{"linked account", linked, models.RoleUser, true},
		{"stranger", stranger, models.RoleUser, false},
		{"editor is not enough", stranger, models.RoleEditor, false},
		{"admin", stranger, models.RoleAdmin, true},
		{"zero id", primitive.NilObjectID, models.RoleUser, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanModifyNode(tt.user, tt.role, node); got != tt.want {
				t.Errorf("CanModifyNode = %v, want %v", got, tt.want)
			}
		})
	}
}
