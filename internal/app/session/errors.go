package session

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/domain/room"
)

var (
	ErrRoomNotFound        = room.ErrNotFound
	ErrRoomClosed          = errors.New("room is closed")
	ErrSingerNotFound      = errors.New("singer not found")
	ErrDisplayNameRequired = errors.New("display name is required")
	ErrNothingQueued       = errors.New("no song is waiting")
	ErrStageBusy           = errors.New("a song is being performed")
	ErrNotPerforming       = errors.New("nobody is performing")
	ErrMomentActive        = errors.New("a group moment is running")
	ErrNoActiveMoment      = errors.New("no group moment is running")
	ErrUnknownFlowRule     = errors.New("unknown flow rule")
	ErrUnknownPreset       = errors.New("unknown preset")
	ErrSearchUnavailable   = errors.New("song search is not configured")
)
