package api

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleLayout(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	res, err := s.ws.Layout(owner)
	if err != nil {
		return s.respondError(c, "layout", err)
	}
	return c.JSON(res)
}

func (s *Server) handleResetLayout(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	res, err := s.ws.ResetLayout(owner)
	if err != nil {
		return s.respondError(c, "reset layout", err)
	}
	return c.JSON(res)
}

func (s *Server) handleProjection(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	proj, err := s.ws.Project(owner)
	if err != nil {
		return s.respondError(c, "project", err)
	}
	return c.JSON(fiber.Map{
		"view":       proj.View.String(),
		"projection": proj,
	})
}

func (s *Server) handleExpand(c fiber.Ctx) error {
	if err := s.ws.Projector().Expand(graph.Phase(c.Params("phase"))); err != nil {
		return s.respondError(c, "expand", err)
	}
	return s.respondView(c)
}

func (s *Server) handleCollapse(c fiber.Ctx) error {
	if err := s.ws.Projector().Collapse(); err != nil {
		return s.respondError(c, "collapse", err)
	}
	return s.respondView(c)
}

func (s *Server) respondView(c fiber.Ctx) error {
	view, phase := s.ws.Projector().State()
	return c.JSON(fiber.Map{"view": view.String(), "phase": phase})
}
