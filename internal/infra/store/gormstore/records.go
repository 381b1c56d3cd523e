package gormstore

import (
	"time"

	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// roomRecord is a room row. Settings, policy and flow counters are flattened
// into columns.
type roomRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Title      string `gorm:"not null"`
	Phase      string `gorm:"size:16;not null"`
	FlowRuleID string `gorm:"size:64"`

	LimitMode      string `gorm:"size:16"`
	LimitCount     int
	Rotation       string `gorm:"size:16"`
	FirstTimeBoost bool

	KaraokeFirst                  bool
	MinSingingSharePct            int
	MaxBreakDurationSec           int
	MaxConsecutiveNonKaraokeModes int
	QueueDepthGuardThreshold      int

	SingingMs                  int64
	GroupMs                    int64
	SongsSinceLastGroupMoment  int
	ConsecutiveNonKaraokeModes int
	LastGroupMode              string `gorm:"size:64"`

	ActiveMode        string `gorm:"size:64"`
	ActiveModeEndsAt  *time.Time
	ReadyCheckActive  bool
	PendingModeration int
	CurrentRequestID  string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

type singerRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	RoomID         string `gorm:"size:64;index;not null"`
	DisplayName    string `gorm:"not null"`
	ExternalUserID string `gorm:"size:128;index"`
	IsKicked       bool
	IsHost         bool
	JoinedAt       time.Time
	TotalRequests  int
	LastRequestAt  *time.Time
}

func (singerRecord) TableName() string { return "singers" }

type requestRecord struct {
	ID            string `gorm:"primaryKey;size:64"`
	RoomID        string `gorm:"size:64;index;not null"`
	SingerID      string `gorm:"size:64;index;not null"`
	Title         string
	Artist        string
	TrackID       string `gorm:"size:64"`
	DurationSec   int
	SubmittedAt   time.Time `gorm:"index"`
	StartedAt     *time.Time
	PriorityScore int64
	Status        string `gorm:"size:16;index"`
	RequesterType string `gorm:"size:16"`
}

func (requestRecord) TableName() string { return "song_requests" }

func toRoomRecord(rm *room.Room) roomRecord {
	return roomRecord{
		ID:         rm.ID,
		Title:      rm.Title,
		Phase:      string(rm.Phase),
		FlowRuleID: rm.FlowRuleID,

		LimitMode:      string(rm.Settings.LimitMode),
		LimitCount:     rm.Settings.LimitCount,
		Rotation:       string(rm.Settings.Rotation),
		FirstTimeBoost: rm.Settings.FirstTimeBoost,

		KaraokeFirst:                  rm.Policy.KaraokeFirst,
		MinSingingSharePct:            rm.Policy.MinSingingSharePct,
		MaxBreakDurationSec:           rm.Policy.MaxBreakDurationSec,
		MaxConsecutiveNonKaraokeModes: rm.Policy.MaxConsecutiveNonKaraokeModes,
		QueueDepthGuardThreshold:      rm.Policy.QueueDepthGuardThreshold,

		SingingMs:                  rm.Flow.SingingMs,
		GroupMs:                    rm.Flow.GroupMs,
		SongsSinceLastGroupMoment:  rm.Flow.SongsSinceLastGroupMoment,
		ConsecutiveNonKaraokeModes: rm.Flow.ConsecutiveNonKaraokeModes,
		LastGroupMode:              rm.Flow.LastGroupMode,

		ActiveMode:        string(rm.ActiveMode),
		ActiveModeEndsAt:  rm.ActiveModeEndsAt,
		ReadyCheckActive:  rm.ReadyCheckActive,
		PendingModeration: rm.PendingModeration,
		CurrentRequestID:  rm.CurrentRequestID,

		CreatedAt: rm.CreatedAt,
	}
}

func (r *roomRecord) toDomain(singers []singerRecord, requests []requestRecord) *room.Room {
	rm := &room.Room{
		ID:         r.ID,
		Title:      r.Title,
		Phase:      room.Phase(r.Phase),
		CreatedAt:  r.CreatedAt,
		FlowRuleID: r.FlowRuleID,
		// Stored values are re-normalized in case a row was edited by hand
		Settings: queue.Settings{
			LimitMode:      queue.LimitMode(r.LimitMode),
			LimitCount:     r.LimitCount,
			Rotation:       queue.Rotation(r.Rotation),
			FirstTimeBoost: r.FirstTimeBoost,
		}.Normalize(),
		Policy: party.Policy{
			KaraokeFirst:                  r.KaraokeFirst,
			MinSingingSharePct:            r.MinSingingSharePct,
			MaxBreakDurationSec:           r.MaxBreakDurationSec,
			MaxConsecutiveNonKaraokeModes: r.MaxConsecutiveNonKaraokeModes,
			QueueDepthGuardThreshold:      r.QueueDepthGuardThreshold,
		}.Normalize(),
		Flow: party.FlowState{
			SingingMs:                  r.SingingMs,
			GroupMs:                    r.GroupMs,
			SongsSinceLastGroupMoment:  r.SongsSinceLastGroupMoment,
			ConsecutiveNonKaraokeModes: r.ConsecutiveNonKaraokeModes,
			LastGroupMode:              r.LastGroupMode,
		}.Normalize(),
		ActiveMode:        party.ParseMode(r.ActiveMode),
		ActiveModeEndsAt:  r.ActiveModeEndsAt,
		ReadyCheckActive:  r.ReadyCheckActive,
		PendingModeration: r.PendingModeration,
		CurrentRequestID:  r.CurrentRequestID,
	}

	rm.Singers = make([]*singer.Singer, 0, len(singers))
	for _, s := range singers {
		rm.Singers = append(rm.Singers, &singer.Singer{
			ID:             s.ID,
			DisplayName:    s.DisplayName,
			ExternalUserID: s.ExternalUserID,
			IsKicked:       s.IsKicked,
			IsHost:         s.IsHost,
			JoinedAt:       s.JoinedAt,
			TotalRequests:  s.TotalRequests,
			LastRequestAt:  s.LastRequestAt,
		})
	}

	rm.Requests = make([]*request.SongRequest, 0, len(requests))
	for _, q := range requests {
		rm.Requests = append(rm.Requests, &request.SongRequest{
			ID:            q.ID,
			RoomID:        q.RoomID,
			SingerID:      q.SingerID,
			Title:         q.Title,
			Artist:        q.Artist,
			TrackID:       q.TrackID,
			DurationSec:   q.DurationSec,
			SubmittedAt:   q.SubmittedAt,
			StartedAt:     q.StartedAt,
			PriorityScore: q.PriorityScore,
			Status:        request.Status(q.Status),
			RequesterType: request.RequesterType(q.RequesterType),
		})
	}
	return rm
}

func toSingerRecords(rm *room.Room) []singerRecord {
	out := make([]singerRecord, 0, len(rm.Singers))
	for _, s := range rm.Singers {
		out = append(out, singerRecord{
			ID:             s.ID,
			RoomID:         rm.ID,
			DisplayName:    s.DisplayName,
			ExternalUserID: s.ExternalUserID,
			IsKicked:       s.IsKicked,
			IsHost:         s.IsHost,
			JoinedAt:       s.JoinedAt,
			TotalRequests:  s.TotalRequests,
			LastRequestAt:  s.LastRequestAt,
		})
	}
	return out
}

func toRequestRecords(rm *room.Room) []requestRecord {
	out := make([]requestRecord, 0, len(rm.Requests))
	for _, q := range rm.Requests {
		out = append(out, requestRecord{
			ID:            q.ID,
			RoomID:        rm.ID,
			SingerID:      q.SingerID,
			Title:         q.Title,
			Artist:        q.Artist,
			TrackID:       q.TrackID,
			DurationSec:   q.DurationSec,
			SubmittedAt:   q.SubmittedAt,
			StartedAt:     q.StartedAt,
			PriorityScore: q.PriorityScore,
			Status:        string(q.Status),
			RequesterType: string(q.RequesterType),
		})
	}
	return out
}
