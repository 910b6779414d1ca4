package api

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleAddNode(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var node graph.ActivityNode
	if !bindJSON(c, &node) {
		return nil
	}

	id, err := s.ws.AddNode(owner, node)
	if err != nil {
		return s.respondError(c, "add node", err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: id})
}

func (s *Server) handleUpdateNode(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var req NodeUpdateRequest
	if !bindJSON(c, &req) {
		return nil
	}

	if err := s.ws.UpdateNode(owner, c.Params("id"), req.Changes()); err != nil {
		return s.respondError(c, "update node", err)
	}
	return s.respondNode(c, owner, c.Params("id"))
}

func (s *Server) handleMoveNode(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var pos graph.Position
	if !bindJSON(c, &pos) {
		return nil
	}

	if err := s.ws.MoveNode(owner, c.Params("id"), pos); err != nil {
		return s.respondError(c, "move node", err)
	}
	return s.respondNode(c, owner, c.Params("id"))
}

func (s *Server) handleDeleteNode(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	if err := s.ws.DeleteNode(owner, c.Params("id")); err != nil {
		return s.respondError(c, "delete node", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// respondNode writes the stored copy of a node after an edit
func (s *Server) respondNode(c fiber.Ctx, owner, nodeID string) error {
	p := s.ws.Path(owner)
	if p == nil {
		return s.respondError(c, "get node", graph.NewError("GetNode").Owner(owner).Path().NotFound())
	}
	i := p.FindNode(nodeID)
	if i < 0 {
		return s.respondError(c, "get node", graph.NewError("GetNode").Owner(owner).Node(nodeID).NotFound())
	}
	return c.JSON(p.Nodes[i])
}
