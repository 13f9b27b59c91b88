// internal/domain/models/orgnode.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NodeType distinguishes structural divisions from people in the org chart.
type NodeType string

const (
	// NodeTypeDivision nodes come from the seed routine and cannot be deleted via the API.
	NodeTypeDivision NodeType = "DIVISION"
	// NodeTypePerson nodes are created by accounts registering themselves.
	NodeTypePerson NodeType = "PERSON"
)

// SystemUserID is the creator recorded on seeded nodes.
var SystemUserID = primitive.NilObjectID

// OrgNode is one entry of the organization chart. ParentID nil means root.
//
// parent_id is always written (null for roots) so roots can be queried directly.
// Optional display strings are pointers so an explicit clear stores null.
type OrgNode struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	ParentID    *primitive.ObjectID `bson:"parent_id" json:"parentId"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"-"` // folded name, used by the seed lookup
	RoleTitle   string              `bson:"role_title" json:"roleTitle"`
	Department  *string             `bson:"department" json:"department"`
	Description *string             `bson:"description" json:"description"`
	PhotoURL    *string             `bson:"photo_url" json:"photoUrl"`
	NodeType    NodeType            `bson:"node_type" json:"nodeType"`

	CreatedByID  primitive.ObjectID  `bson:"created_by_id" json:"createdById"`
	LinkedUserID *primitive.ObjectID `bson:"linked_user_id" json:"linkedUserId"`
	UserID       *primitive.ObjectID `bson:"user_id,omitempty" json:"userId"` // omitted when nil so the partial unique index ignores it

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsDivision reports whether the node is a seeded structural node.
func (n OrgNode) IsDivision() bool {
	return n.NodeType == NodeTypeDivision
}

// OwnedBy reports whether userID created the node or is linked to it.
func (n OrgNode) OwnedBy(userID primitive.ObjectID) bool {
	if userID.IsZero() {
		return false
	}
	if n.CreatedByID == userID {
		return true
	}
	if n.UserID != nil && *n.UserID == userID {
		return true
	}
	return n.LinkedUserID != nil && *n.LinkedUserID == userID
}
