package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/session"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// errorCodes maps manager errors to a status and a stable code.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{session.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{session.ErrSingerNotFound, http.StatusNotFound, "singer_not_found"},
	{session.ErrUnknownFlowRule, http.StatusBadRequest, "unknown_flow_rule"},
	{session.ErrUnknownPreset, http.StatusBadRequest, "unknown_preset"},
	{session.ErrDisplayNameRequired, http.StatusBadRequest, "display_name_required"},
	{session.ErrRoomClosed, http.StatusConflict, "room_closed"},
	{session.ErrNothingQueued, http.StatusConflict, "nothing_queued"},
	{session.ErrStageBusy, http.StatusConflict, "stage_busy"},
	{session.ErrNotPerforming, http.StatusConflict, "not_performing"},
	{session.ErrMomentActive, http.StatusConflict, "moment_active"},
	{session.ErrNoActiveMoment, http.StatusConflict, "no_active_moment"},
	{session.ErrSearchUnavailable, http.StatusNotImplemented, "search_unavailable"},
}

// abortWithError writes err as a JSON error response.
func abortWithError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, ErrorResponse{Error: e.err.Error(), Code: e.code})
			return
		}
	}
	zlog.Error().Err(err).Msgf("request failed: method=%s path=%s", c.Request.Method, c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bindJSON decodes the body into obj, writing a 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_body"})
		return false
	}
	return true
}
