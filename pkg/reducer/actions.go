package reducer

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// Action is a discrete edit request. Name identifies the action kind for
// logging and metrics; Owner is the owner id the action targets.
type Action interface {
	Name() string
	Owner() string
}

// Action names
const (
	ActionCreatePath       = "CREATE_PATH"
	ActionAddNode          = "ADD_NODE"
	ActionUpdateNode       = "UPDATE_NODE"
	ActionDeleteNode       = "DELETE_NODE"
	ActionAddEdge          = "ADD_EDGE"
	ActionDeleteEdge       = "DELETE_EDGE"
	ActionSetCurrentOwner  = "SET_CURRENT_OWNER"
	ActionSetNodesAndEdges = "SET_NODES_AND_EDGES"
	ActionRestore          = "RESTORE"
	ActionLoadPath         = "LOAD_PATH"
	ActionDeletePath       = "DELETE_PATH"
	ActionSetViewport      = "SET_VIEWPORT"
	ActionApplyAnalysis    = "APPLY_ANALYSIS"
)

// CreatePath inserts an empty path for the owner if none exists
type CreatePath struct {
	OwnerID   string
	OwnerName string
}

// AddNode appends a node. An empty node id is replaced with a generated one.
type AddNode struct {
	OwnerID string
	Node    graph.ActivityNode
}

// NodeChanges is a partial node update; nil fields are left unchanged
type NodeChanges struct {
	Type          *graph.NodeType
	Position      *graph.Position
	Pinned        *bool
	Label         *string
	Description   *string
	Content       graph.Content
	Status        *graph.Status
	Required      *bool
	AIGenerated   *bool
	IsConditional *bool
	Branch        *graph.BranchControl
	ClearBranch   bool
	Phase         *graph.Phase
}

// UpdateNode merges changes into an existing node. Changing the position
// pins the node unless Pinned is set explicitly.
type UpdateNode struct {
	OwnerID string
	NodeID  string
	Changes NodeChanges
}

// DeleteNode removes a node, every edge whose source or target is the node,
// and every branch path that leads to it.
type DeleteNode struct {
	OwnerID string
	NodeID  string
}

// AddEdge appends an edge between two existing nodes
type AddEdge struct {
	OwnerID string
	Edge    graph.Edge
}

// DeleteEdge removes one edge
type DeleteEdge struct {
	OwnerID string
	EdgeID  string
}

// SetCurrentOwner switches the active owner pointer. An empty id clears it.
type SetCurrentOwner struct {
	OwnerID string
}

// SetNodesAndEdges replaces the whole node and edge set of a path
type SetNodesAndEdges struct {
	OwnerID string
	Nodes   []graph.ActivityNode
	Edges   []graph.Edge
}

// Restore atomically replaces a path's nodes and edges with a history
// snapshot. It is the only transition replay uses.
type Restore struct {
	OwnerID string
	Nodes   []graph.ActivityNode
	Edges   []graph.Edge
}

// LoadPath hydrates a path read from storage, replacing any in-memory copy
type LoadPath struct {
	Path *graph.LearningPath
}

// DeletePath removes a path from memory. Storage cleanup is the caller's job.
type DeletePath struct {
	OwnerID string
}

// SetViewport stores the canvas pan/zoom of a path
type SetViewport struct {
	OwnerID  string
	Viewport graph.Viewport
}

// ApplyAnalysis bulk-loads a generated graph and its recommendation summary
type ApplyAnalysis struct {
	OwnerID        string
	Nodes          []graph.ActivityNode
	Edges          []graph.Edge
	Recommendation *graph.Recommendation
}

func (CreatePath) Name() string       { return ActionCreatePath }
func (AddNode) Name() string          { return ActionAddNode }
func (UpdateNode) Name() string       { return ActionUpdateNode }
func (DeleteNode) Name() string       { return ActionDeleteNode }
func (AddEdge) Name() string          { return ActionAddEdge }
func (DeleteEdge) Name() string       { return ActionDeleteEdge }
func (SetCurrentOwner) Name() string  { return ActionSetCurrentOwner }
func (SetNodesAndEdges) Name() string { return ActionSetNodesAndEdges }
func (Restore) Name() string          { return ActionRestore }
func (LoadPath) Name() string         { return ActionLoadPath }
func (DeletePath) Name() string       { return ActionDeletePath }
func (SetViewport) Name() string      { return ActionSetViewport }
func (ApplyAnalysis) Name() string    { return ActionApplyAnalysis }

func (a CreatePath) Owner() string       { return a.OwnerID }
func (a AddNode) Owner() string          { return a.OwnerID }
func (a UpdateNode) Owner() string       { return a.OwnerID }
func (a DeleteNode) Owner() string       { return a.OwnerID }
func (a AddEdge) Owner() string          { return a.OwnerID }
func (a DeleteEdge) Owner() string       { return a.OwnerID }
func (a SetCurrentOwner) Owner() string  { return a.OwnerID }
func (a SetNodesAndEdges) Owner() string { return a.OwnerID }
func (a Restore) Owner() string          { return a.OwnerID }
func (a DeletePath) Owner() string       { return a.OwnerID }
func (a SetViewport) Owner() string      { return a.OwnerID }
func (a ApplyAnalysis) Owner() string    { return a.OwnerID }

func (a LoadPath) Owner() string {
	if a.Path == nil {
		return ""
	}
	return a.Path.OwnerID
}
