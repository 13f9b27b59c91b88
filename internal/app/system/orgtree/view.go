package orgtree

import (
	"github.com/dalemusser/organigram/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VirtualRootID identifies the synthetic root added when the chart has
// more than one real root. It is never persisted.
const VirtualRootID = "__virtual_root__"

// DefaultVirtualRootName labels the synthetic root when no localized name is given.
const DefaultVirtualRootName = "Org Root"

// Node is the chart-facing shape of an OrgNode. Ids are hex strings so the
// virtual root can live next to real nodes; ParentID "" means root.
type Node struct {
	ID           string `json:"id"`
	ParentID     string `json:"parentId,omitempty"`
	Name         string `json:"name"`
	RoleTitle    string `json:"roleTitle"`
	Department   string `json:"department,omitempty"`
	Description  string `json:"description,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
	NodeType     string `json:"nodeType"`
	UserID       string `json:"userId,omitempty"`
	LinkedUserID string `json:"linkedUserId,omitempty"`
	CreatedByID  string `json:"createdById,omitempty"`
	Virtual      bool   `json:"virtual,omitempty"`
}

// FromModels converts stored nodes to chart nodes, keeping order.
func FromModels(nodes []models.OrgNode) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Node{
			ID:           n.ID.Hex(),
			ParentID:     hexOrEmpty(n.ParentID),
			Name:         n.Name,
			RoleTitle:    n.RoleTitle,
			Department:   deref(n.Department),
			Description:  deref(n.Description),
			PhotoURL:     deref(n.PhotoURL),
			NodeType:     string(n.NodeType),
			UserID:       hexOrEmpty(n.UserID),
			LinkedUserID: hexOrEmpty(n.LinkedUserID),
			CreatedByID:  n.CreatedByID.Hex(),
		})
	}
	return out
}

// Normalize guarantees the chart has exactly one root. With two or more
// parentless nodes it returns a new slice that starts with a virtual root
// and reparents every real root under it. Otherwise the input is returned
// unchanged. The input slice is never modified.
func Normalize(nodes []Node, rootName string) []Node {
	roots := 0
	for _, n := range nodes {
		if n.ParentID == "" {
			roots++
		}
	}
	if roots <= 1 {
		return nodes
	}
	if rootName == "" {
		rootName = DefaultVirtualRootName
	}

	out := make([]Node, 0, len(nodes)+1)
	out = append(out, Node{
		ID:       VirtualRootID,
		Name:     rootName,
		NodeType: string(models.NodeTypeDivision),
		Virtual:  true,
	})
	for _, n := range nodes {
		if n.ParentID == "" {
			n.ParentID = VirtualRootID
		}
		out = append(out, n)
	}
	return out
}

// Index maps node ids to nodes.
func Index(nodes []Node) map[string]Node {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return byID
}

// IsDescendant reports whether choosing candidateParentID as the parent of
// nodeID would create a cycle, i.e. nodeID is the candidate or one of its
// ancestors. An ancestry that reaches MaxDepth counts as a cycle.
func IsDescendant(byID map[string]Node, candidateParentID, nodeID string) bool {
	if candidateParentID == "" {
		return false
	}
	if candidateParentID == nodeID {
		return true
	}
	path := Ancestors(byID, candidateParentID)
	if len(path) >= MaxDepth {
		return true
	}
	for _, id := range path {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Ancestors returns the ids above id, nearest first. The walk stops at a
// root, at a missing node, or after MaxDepth hops.
func Ancestors(byID map[string]Node, id string) []string {
	var out []string
	node, ok := byID[id]
	if !ok {
		return nil
	}
	current := node.ParentID
	for hops := 0; current != "" && hops < MaxDepth; hops++ {
		out = append(out, current)
		parent, ok := byID[current]
		if !ok {
			break
		}
		current = parent.ParentID
	}
	return out
}

// SelectableParents lists the nodes that may become the parent of nodeID
// without creating a cycle. The virtual root is never offered.
func SelectableParents(nodes []Node, nodeID string) []Node {
	byID := Index(nodes)
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Virtual || n.ID == nodeID {
			continue
		}
		if IsDescendant(byID, n.ID, nodeID) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// TreeNode is a node with its children attached.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

// BuildTree nests nodes under their parents and returns the roots in input
// order. Nodes whose parent is missing are returned as roots. Children keep
// input order, which for stored nodes is creation order.
func BuildTree(nodes []Node) []*TreeNode {
	byID := make(map[string]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &TreeNode{Node: n, Children: []*TreeNode{}}
	}

	roots := make([]*TreeNode, 0, 1)
	for _, n := range nodes {
		tn := byID[n.ID]
		if parent, ok := byID[n.ParentID]; ok && n.ParentID != "" && n.ParentID != n.ID {
			parent.Children = append(parent.Children, tn)
			continue
		}
		roots = append(roots, tn)
	}
	return roots
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
