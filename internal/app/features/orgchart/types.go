// internal/app/features/orgchart/types.go
package orgchart

import "go.mongodb.org/mongo-driver/bson/primitive"

// DefaultPhotoURL is shown for nodes that have no photo of their own.
const DefaultPhotoURL = "https://res.cloudinary.com/dymwgac6m/image/upload/v1765210908/296fe121-5dfa-43f4-98b5-db50019738a7_bxzq63.jpg"

// Actor is the authenticated caller of a mutation. A zero ID means anonymous.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// CreateInput is the body of POST /api/org-chart.
type CreateInput struct {
	Name         string `json:"name" label:"Name" validate:"required,min=2,max=120"`
	RoleTitle    string `json:"roleTitle" label:"Role title" validate:"required,min=2,max=160"`
	Department   string `json:"department" label:"Department" validate:"max=160"`
	Description  string `json:"description" label:"Description" validate:"max=500"`
	PhotoURL     string `json:"photoUrl" label:"Photo URL" validate:"max=512,httpurl"`
	ParentID     string `json:"parentId" label:"Parent" validate:"max=64,objectid"`
	LinkedUserID string `json:"linkedUserId" label:"Linked account" validate:"max=64,objectid"`

	// Locale selects the rendered page revalidated after the write.
	Locale string `json:"-"`
}

// UpdateInput is the body of PATCH /api/org-chart. A nil field is left
// unchanged. An empty string clears optional fields, and ParentID ""
// makes the node a root.
type UpdateInput struct {
	NodeID       string  `json:"nodeId" label:"Node" validate:"required,max=64,objectid"`
	Name         *string `json:"name" label:"Name" validate:"omitnil,min=2,max=120"`
	RoleTitle    *string `json:"roleTitle" label:"Role title" validate:"omitnil,min=2,max=160"`
	Department   *string `json:"department" label:"Department" validate:"omitnil,max=160"`
	Description  *string `json:"description" label:"Description" validate:"omitnil,max=500"`
	PhotoURL     *string `json:"photoUrl" label:"Photo URL" validate:"omitnil,max=512,httpurl"`
	ParentID     *string `json:"parentId" label:"Parent" validate:"omitnil,max=64,objectid"`
	LinkedUserID *string `json:"linkedUserId" label:"Linked account" validate:"omitnil,max=64,objectid"`

	Locale string `json:"-"`
}
