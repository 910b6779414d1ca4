package api

import (
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleUndo(c fiber.Ctx) error {
	return s.replay(c, "undo", s.ws.Undo)
}

func (s *Server) handleRedo(c fiber.Ctx) error {
	return s.replay(c, "redo", s.ws.Redo)
}

// replay runs undo or redo when :owner holds the undo list. Any other
// owner gets applied=false rather than moving someone else's history.
func (s *Server) replay(c fiber.Ctx, op string, step func() (bool, error)) error {
	owner, ok := ownerParam(c)
	if !ok {
		return nil
	}

	applied := false
	if s.ws.HistoryOwner() == owner {
		var err error
		applied, err = step()
		if err != nil {
			return s.respondError(c, op, err)
		}
	}
	return c.JSON(HistoryResponse{
		Applied: applied,
		CanUndo: s.ws.HistoryOwner() == owner && s.ws.CanUndo(),
		CanRedo: s.ws.HistoryOwner() == owner && s.ws.CanRedo(),
		Path:    s.ws.Path(owner),
	})
}
