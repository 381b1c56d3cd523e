package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/osa030/karaokebox/internal/app/moment"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// createRoom opens a room.
func (s *Server) createRoom(c *gin.Context) {
	var body CreateRoomRequest
	if !bindJSON(c, &body) {
		return
	}

	rm, err := s.session.CreateRoom(c.Request.Context(), body.Title, body.FlowRule)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRoomResponse(rm))
}

// listRooms returns every room.
func (s *Server) listRooms(c *gin.Context) {
	rooms, err := s.session.ListRooms(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]*RoomResponse, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, newRoomResponse(rm))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// status returns the host's view of a room.
func (s *Server) status(c *gin.Context) {
	st, err := s.session.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(st))
}

// recommend returns the recommended next action.
func (s *Server) recommend(c *gin.Context) {
	action, err := s.session.Recommend(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

func (s *Server) kick(c *gin.Context) {
	if err := s.session.Kick(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) startNext(c *gin.Context) {
	req, err := s.session.StartNext(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// completePerformance ends the song on stage. A missing duration credits the
// time since it started.
func (s *Server) completePerformance(c *gin.Context) {
	var body CompleteRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
		return
	}

	p, err := s.session.CompletePerformance(c.Request.Context(), c.Param("id"), body.DurationSec)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// triggerMoment asks for a group moment. A denial is a normal response.
func (s *Server) triggerMoment(c *gin.Context) {
	var body MomentRequest
	if !bindJSON(c, &body) {
		return
	}

	d, err := s.session.TriggerGroupMoment(c.Request.Context(), c.Param("id"), moment.Request{
		Mode:        party.ParseMode(body.Mode),
		DurationSec: body.DurationSec,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) endMoment(c *gin.Context) {
	if err := s.session.EndGroupMoment(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// updateQueueSettings overlays a raw settings object. Invalid fields fall back
// to defaults rather than failing.
func (s *Server) updateQueueSettings(c *gin.Context) {
	var raw map[string]any
	if !bindJSON(c, &raw) {
		return
	}
	s.respondRoom(c)(s.session.UpdateQueueSettings(c.Request.Context(), c.Param("id"), raw))
}

func (s *Server) updatePolicy(c *gin.Context) {
	var raw map[string]any
	if !bindJSON(c, &raw) {
		return
	}
	s.respondRoom(c)(s.session.UpdatePolicy(c.Request.Context(), c.Param("id"), raw))
}

func (s *Server) applyFlowRule(c *gin.Context) {
	var body FlowRuleRequest
	if !bindJSON(c, &body) {
		return
	}
	s.respondRoom(c)(s.session.ApplyFlowRule(c.Request.Context(), c.Param("id"), body.FlowRule))
}

func (s *Server) applyPreset(c *gin.Context) {
	var body PresetRequest
	if !bindJSON(c, &body) {
		return
	}
	s.respondRoom(c)(s.session.ApplyPreset(c.Request.Context(), c.Param("id"), body.Preset))
}

func (s *Server) setModeration(c *gin.Context) {
	var body ModerationRequest
	if !bindJSON(c, &body) {
		return
	}
	s.respondRoom(c)(s.session.SetPendingModeration(c.Request.Context(), c.Param("id"), body.Count))
}

func (s *Server) closeRoom(c *gin.Context) {
	s.respondRoom(c)(s.session.Close(c.Request.Context(), c.Param("id")))
}

func (s *Server) reopenRoom(c *gin.Context) {
	s.respondRoom(c)(s.session.Reopen(c.Request.Context(), c.Param("id")))
}

// respondRoom writes the updated room or the error.
func (s *Server) respondRoom(c *gin.Context) func(*room.Room, error) {
	return func(rm *room.Room, err error) {
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, newRoomResponse(rm))
	}
}
