// Package session provides the room manager: it wraps every host and singer
// action in a "read state, decide, apply" store transaction.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/filter"
	"github.com/osa030/karaokebox/internal/app/moment"
	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/flowrule"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/infra/config"
	"github.com/osa030/karaokebox/internal/infra/metrics"
)

// optionalFilters are enabled from config, in chain order.
var optionalFilters = []string{
	"kicked_singer_filter",
	"singer_queued_filter",
	"duplicate_song_filter",
	"duration_limit_filter",
}

// Manager manages karaoke rooms.
type Manager struct {
	config *config.Config

	// Components
	store        Store
	lookup       SongLookup
	metrics      *metrics.Metrics
	notification *notification.Manager
	filterChain  *filter.Chain
	moments      *moment.Controller
	catalog      flowrule.Catalog

	now   func() time.Time
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithSongLookup resolves track IDs on song requests.
func WithSongLookup(lookup SongLookup) Option {
	return func(m *Manager) { m.lookup = lookup }
}

// WithMetrics records room activity.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates a new room manager.
func NewManager(cfg *config.Config, store Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		config:       cfg,
		store:        store,
		notification: notification.NewManager(),
		moments:      moment.NewController(cfg.HeavyModes()),
		catalog:      flowrule.DefaultCatalog(),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.setupFilters(); err != nil {
		return nil, err
	}
	return m, nil
}

// setupFilters builds the filter chain. Room state and title checks always run.
func (m *Manager) setupFilters() error {
	cfg := m.config

	roomClosed := filter.NewRoomClosedFilter(func() time.Time { return m.now() })
	if err := roomClosed.ValidateConfig(cfg.FilterSettings(roomClosed.Name())); err != nil {
		return errors.Wrapf(err, "invalid %s config", roomClosed.Name())
	}
	m.filterChain = filter.NewChain(roomClosed, &filter.TitleRequiredFilter{})

	registered := filter.GetRegistered()
	for _, name := range optionalFilters {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		factory, ok := registered[name]
		if !ok {
			return errors.Newf("filter %s is not registered", name)
		}
		f := factory()
		if err := f.ValidateConfig(cfg.FilterSettings(name)); err != nil {
			return errors.Wrapf(err, "invalid %s config", name)
		}
		m.filterChain.Add(f)
		zlog.Debug().Msgf("filter enabled: name=%s", name)
	}
	return nil
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Catalog returns the flow rule catalog.
func (m *Manager) Catalog() flowrule.Catalog {
	return m.catalog
}

// CreateRoom opens a new room. An empty ruleID uses the configured room defaults.
func (m *Manager) CreateRoom(ctx context.Context, title, ruleID string) (*room.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = m.config.Room.DefaultTitle
	}

	settings := m.config.RoomQueueSettings()
	if ruleID != "" {
		if _, ok := m.catalog.Get(ruleID); !ok {
			return nil, errors.Wrapf(ErrUnknownFlowRule, "flow rule %q", ruleID)
		}
		settings = m.catalog.Resolve(ruleID)
	}

	rm := room.New(m.newID(), title, settings, m.catalog.Infer(settings), m.config.RoomPolicy(), m.now())
	if err := m.store.Create(ctx, rm); err != nil {
		return nil, errors.Wrap(err, "failed to create room")
	}

	zlog.Info().Msgf("room created: room_id=%s title=%s flow_rule=%s", rm.ID, rm.Title, rm.FlowRuleID)
	m.observeRoom(rm)
	m.notification.Publish(rm.ID, notification.EventPhaseChanged, phasePayload(rm))
	return rm, nil
}

// GetRoom returns a room.
func (m *Manager) GetRoom(ctx context.Context, roomID string) (*room.Room, error) {
	rm, err := m.store.Get(ctx, roomID)
	if err != nil {
		return nil, errors.Wrapf(err, "room %s", roomID)
	}
	return rm, nil
}

// ListRooms returns every room.
func (m *Manager) ListRooms(ctx context.Context) ([]*room.Room, error) {
	return m.store.List(ctx)
}

// update runs fn in a store transaction after expiring a finished group moment.
func (m *Manager) update(ctx context.Context, roomID string, fn func(rm *room.Room) error) (*room.Room, error) {
	rm, err := m.store.Update(ctx, roomID, func(rm *room.Room) error {
		m.expireMoment(rm)
		return fn(rm)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "room %s", roomID)
	}
	m.observeRoom(rm)
	return rm, nil
}

// expireMoment returns the stage to karaoke once a timed moment has run out.
func (m *Manager) expireMoment(rm *room.Room) {
	if rm.ActiveMode.IsKaraoke() || rm.MomentActive(m.now()) {
		return
	}
	zlog.Debug().Msgf("group moment expired: room_id=%s mode=%s", rm.ID, rm.ActiveMode)
	rm.EndMoment()
}

// observeRoom updates the room gauges. A closed room is dropped once its queue
// and stage are empty.
func (m *Manager) observeRoom(rm *room.Room) {
	if !rm.IsOpen() && rm.QueueDepth() == 0 && rm.Current() == nil {
		m.metrics.ForgetRoom(rm.ID)
		return
	}
	m.metrics.SetRoomState(rm.ID, rm.QueueDepth(), party.SingingSharePct(rm.Flow))
}

func phasePayload(rm *room.Room) map[string]any {
	return map[string]any{"phase": rm.Phase, "title": rm.Title}
}
