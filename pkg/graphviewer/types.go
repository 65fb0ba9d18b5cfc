// Package graphviewer is the interactive relationship-graph core: it turns a
// catalog dataset into a scene, runs the force-directed layout, maps pointer
// input through the view transform and paints frames onto a Surface.
package graphviewer

import (
	"errors"
	"image/color"

	"github.com/recera/relgraph/pkg/dataset"
)

// ErrUnknownNode is returned when an operation names a node that is not in
// the current scene.
var ErrUnknownNode = errors.New("unknown node")

// ErrInvalidPointer is returned for pointer input with non-finite values.
var ErrInvalidPointer = errors.New("invalid pointer event")

// NodeID identifies a node. Resource nodes use the resource id, category
// nodes use CategoryNodeID.
type NodeID string

// CategoryNodeID returns the node id of a category.
func CategoryNodeID(k dataset.CategoryKey) NodeID {
	return NodeID("category:" + k.String())
}

// NodeKind is the source object behind a node. It is one of ResourceNode or
// CategoryNode; the back-reference is for rendering and selection only.
type NodeKind interface {
	// Label is the text drawn next to the node.
	Label() string
	// Name is "resource" or "category".
	Name() string

	nodeKind()
}

// ResourceNode wraps a catalog resource.
type ResourceNode struct {
	Resource *dataset.Resource
}

func (k ResourceNode) Label() string {
	if k.Resource == nil {
		return ""
	}
	if k.Resource.Name != "" {
		return k.Resource.Name
	}
	return k.Resource.ID
}

func (ResourceNode) Name() string { return "resource" }
func (ResourceNode) nodeKind()    {}

// CategoryNode wraps a category.
type CategoryNode struct {
	Category *dataset.Category
}

func (k CategoryNode) Label() string {
	if k.Category == nil {
		return ""
	}
	if k.Category.Name != "" {
		return k.Category.Name
	}
	return k.Category.CategoryID
}

func (CategoryNode) Name() string { return "category" }
func (CategoryNode) nodeKind()    {}

// Node is a positioned graph vertex.
type Node struct {
	ID     NodeID
	Kind   NodeKind
	X      float64
	Y      float64
	Radius float64
	Fill   color.NRGBA
}

// Label returns the kind's label, falling back to the node id.
func (n Node) Label() string {
	if n.Kind != nil {
		if l := n.Kind.Label(); l != "" {
			return l
		}
	}
	return string(n.ID)
}

// Edge connects two nodes of the same scene. Weight scales both the layout
// attraction and the drawn line width.
type Edge struct {
	ID     string
	Source NodeID
	Target NodeID
	Kind   dataset.RelationKind
	Weight float64
	Color  color.NRGBA
}

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Scene is the node and edge set derived from one dataset and filter.
type Scene struct {
	Nodes []Node
	Edges []Edge
}

func indexNodes(nodes []Node) map[NodeID]int {
	idx := make(map[NodeID]int, len(nodes))
	for i := range nodes {
		idx[nodes[i].ID] = i
	}
	return idx
}

func findNode(nodes []Node, id NodeID) (Node, bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return nodes[i], true
		}
	}
	return Node{}, false
}
