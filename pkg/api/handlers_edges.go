package api

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleAddEdge(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var edge graph.Edge
	if !bindJSON(c, &edge) {
		return nil
	}

	id, err := s.ws.AddEdge(owner, edge)
	if err != nil {
		return s.respondError(c, "add edge", err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{ID: id})
}

func (s *Server) handleDeleteEdge(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	if err := s.ws.DeleteEdge(owner, c.Params("id")); err != nil {
		return s.respondError(c, "delete edge", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
