package api

import (
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/health"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

// API Request/Response Types

// OpenRequest names the owner of a path being opened
type OpenRequest struct {
	OwnerName string `json:"ownerName"`
}

// PathSummary is one entry of the path listing
type PathSummary struct {
	OwnerID      string         `json:"ownerId"`
	OwnerName    string         `json:"ownerName"`
	NodeCount    int            `json:"nodeCount"`
	EdgeCount    int            `json:"edgeCount"`
	Progress     graph.Progress `json:"progress"`
	LastModified time.Time      `json:"lastModified"`
}

// NodeUpdateRequest is a partial node update. Content is replaced by
// sending data with a tagged content payload.
type NodeUpdateRequest struct {
	Type          *graph.NodeType      `json:"type,omitempty"`
	Position      *graph.Position      `json:"position,omitempty"`
	Pinned        *bool                `json:"pinned,omitempty"`
	Label         *string              `json:"label,omitempty"`
	Description   *string              `json:"description,omitempty"`
	Status        *graph.Status        `json:"status,omitempty"`
	Required      *bool                `json:"required,omitempty"`
	IsConditional *bool                `json:"isConditional,omitempty"`
	Branch        *graph.BranchControl `json:"branch,omitempty"`
	ClearBranch   bool                 `json:"clearBranch,omitempty"`
	Phase         *graph.Phase         `json:"phase,omitempty"`
	Data          *graph.NodeData      `json:"data,omitempty"`
}

// Changes converts the request to reducer changes
func (r *NodeUpdateRequest) Changes() reducer.NodeChanges {
	c := reducer.NodeChanges{
		Type:          r.Type,
		Position:      r.Position,
		Pinned:        r.Pinned,
		Label:         r.Label,
		Description:   r.Description,
		Status:        r.Status,
		Required:      r.Required,
		IsConditional: r.IsConditional,
		Branch:        r.Branch,
		ClearBranch:   r.ClearBranch,
		Phase:         r.Phase,
	}
	if r.Data != nil && r.Data.Content != nil {
		c.Content = r.Data.Content
	}
	return c
}

// CreatedResponse carries the id of a created node or edge
type CreatedResponse struct {
	ID string `json:"id"`
}

// HistoryResponse reports the outcome of an undo or redo
type HistoryResponse struct {
	Applied bool                `json:"applied"`
	CanUndo bool                `json:"canUndo"`
	CanRedo bool                `json:"canRedo"`
	Path    *graph.LearningPath `json:"path,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
	Paths     int                     `json:"paths"`
	Checks    map[string]health.Check `json:"checks,omitempty"`
}
