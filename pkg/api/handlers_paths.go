package api

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleListPaths(c fiber.Ctx) error {
	state := s.ws.State()
	summaries := make([]PathSummary, 0, len(state.Paths))
	for _, owner := range state.Owners() {
		p := state.Path(owner)
		summaries = append(summaries, PathSummary{
			OwnerID:      p.OwnerID,
			OwnerName:    p.OwnerName,
			NodeCount:    len(p.Nodes),
			EdgeCount:    len(p.Edges),
			Progress:     p.Progress,
			LastModified: p.LastModified,
		})
	}
	return c.JSON(summaries)
}

func (s *Server) handleOpenPath(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var req OpenRequest
	if len(c.Body()) > 0 && !bindJSON(c, &req) {
		return nil
	}

	p, err := s.ws.Open(c.Context(), owner, req.OwnerName)
	if err != nil {
		return s.respondError(c, "open path", err)
	}
	return c.JSON(p)
}

func (s *Server) handleGetPath(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	p := s.ws.Path(owner)
	if p == nil {
		return s.respondError(c, "get path", graph.NewError("GetPath").Owner(owner).Path().NotFound())
	}
	return c.JSON(p)
}

func (s *Server) handleDeletePath(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	if err := s.ws.DeletePath(c.Context(), owner); err != nil {
		return s.respondError(c, "delete path", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSetViewport(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var vp graph.Viewport
	if !bindJSON(c, &vp) {
		return nil
	}
	if err := s.ws.Dispatch(reducer.SetViewport{OwnerID: owner, Viewport: vp}); err != nil {
		return s.respondError(c, "set viewport", err)
	}
	return c.JSON(s.ws.Path(owner).Viewport)
}

func (s *Server) handleGenerate(c fiber.Ctx) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}
	var rec recommend.Record
	if !bindJSON(c, &rec) {
		return nil
	}
	rec.OwnerID = owner
	if err := rec.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	p, err := s.ws.Generate(c.Context(), owner, rec)
	if err != nil {
		return s.respondError(c, "generate", err)
	}
	return c.JSON(p)
}
