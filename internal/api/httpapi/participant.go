package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/osa030/karaokebox/internal/app/filter"
	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/request"
)

// listFlowRules returns the flow rule catalog.
func (s *Server) listFlowRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"flow_rules": s.session.Catalog()})
}

// searchSongs finds catalog tracks by free text (?q=...&limit=...).
func (s *Server) searchSongs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	tracks, err := s.session.SearchSongs(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]SongResult, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, newSongResult(t))
	}
	c.JSON(http.StatusOK, gin.H{"songs": out})
}

// join adds a singer to a room.
func (s *Server) join(c *gin.Context) {
	var body JoinRequest
	if !bindJSON(c, &body) {
		return
	}

	sg, err := s.session.Join(c.Request.Context(), c.Param("id"), body.DisplayName, body.ExternalUserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sg)
}

// requestSong submits a song request. A valid host token submits it as the host.
func (s *Server) requestSong(c *gin.Context) {
	var body SongRequestBody
	if !bindJSON(c, &body) {
		return
	}

	sub := filter.Submission{
		SingerID:      body.SingerID,
		Title:         body.Title,
		Artist:        body.Artist,
		TrackID:       body.TrackID,
		DurationSec:   body.DurationSec,
		RequesterType: request.RequesterTypeSinger,
	}
	if s.isAdmin(c) {
		sub.RequesterType = request.RequesterTypeHost
	}

	out, err := s.session.RequestSong(c.Request.Context(), c.Param("id"), sub)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := SongRequestResponse{
		Success: out.Accepted,
		Pending: out.Pending(),
		Code:    out.Code,
		Request: out.Request,
	}
	switch {
	case out.Pending():
		resp.Message = s.config.GetMessage("pending")
	case out.Accepted:
		resp.Message = s.config.GetMessage("success")
	default:
		resp.Message = s.config.GetMessage(out.Code)
	}
	c.JSON(http.StatusOK, resp)
}

// queue returns the song on stage and the waiting songs in serving order.
func (s *Server) queue(c *gin.Context) {
	st, err := s.session.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, QueueResponse{Current: st.Current, Queue: nonNil(st.Queue)})
}

// streamEvents streams room events as server-sent events, starting with the
// room's current state.
func (s *Server) streamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")
	notif := s.session.GetNotificationManager()

	stream := notification.NewChannelStream(s.config.Room.EventBuffer)
	subscriptionID := notif.Subscribe(roomID, stream)
	defer notif.Unsubscribe(subscriptionID)

	st, err := s.session.Status(ctx, roomID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	initial := notif.InitialState(roomID, newStatusResponse(st))
	c.SSEvent(string(initial.Type), initial)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e := <-stream.Events():
			c.SSEvent(string(e.Type), e)
			return true
		}
	})
}
