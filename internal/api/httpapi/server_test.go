package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/karaokebox/internal/app/session"
	"github.com/osa030/karaokebox/internal/domain/song"
	"github.com/osa030/karaokebox/internal/infra/config"
	"github.com/osa030/karaokebox/internal/infra/metrics"
	"github.com/osa030/karaokebox/internal/infra/store/memstore"
)

const testConfigYAML = `
admin:
  token: secret
filters:
  kicked_singer_filter:
    enabled: true
messages:
  empty_title: "Which song?"
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfigYAML))
	require.NoError(t, err)

	mt := metrics.New()
	mgr, err := session.NewManager(cfg, memstore.New(), session.WithMetrics(mt))
	require.NoError(t, err)
	return New(cfg, mgr, mt)
}

func do(t *testing.T, h http.Handler, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(AdminTokenHeader, "secret")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createRoom(t *testing.T, h http.Handler, rule string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/rooms", CreateRoomRequest{Title: "Friday", FlowRule: rule}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[RoomResponse](t, w).ID
}

func joinRoom(t *testing.T, h http.Handler, roomID, name string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/rooms/"+roomID+"/singers", JoinRequest{DisplayName: name}, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	roomID := createRoom(t, h, "")
	w = do(t, h, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `karaokebox_queue_depth{room="`+roomID+`"} 0`)
}

func TestServer_HostRoutesRequireToken(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"create room", http.MethodPost, "/api/rooms"},
		{"list rooms", http.MethodGet, "/api/rooms"},
		{"status", http.MethodGet, "/api/rooms/x"},
		{"start next", http.MethodPost, "/api/rooms/x/stage/next"},
		{"policy", http.MethodPut, "/api/rooms/x/policy"},
		{"kick", http.MethodPost, "/api/rooms/x/singers/y/kick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, map[string]any{}, false)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set(AdminTokenHeader, "wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_RequestSong(t *testing.T) {
	h := newTestServer(t).Handler()
	roomID := createRoom(t, h, "rapid_fire")
	mia := joinRoom(t, h, roomID, "Mia")
	path := "/api/rooms/" + roomID + "/requests"

	w := do(t, h, http.MethodPost, path, SongRequestBody{SingerID: mia, Title: "Toxic", Artist: "Britney Spears"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SongRequestResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Your song is in the queue!", resp.Message)
	require.NotNil(t, resp.Request)
	assert.Equal(t, "SINGER", string(resp.Request.RequesterType))

	resp = decode[SongRequestResponse](t, do(t, h, http.MethodPost, path, SongRequestBody{SingerID: mia}, false))
	assert.False(t, resp.Success)
	assert.Equal(t, "empty_title", resp.Code)
	assert.Equal(t, "Which song?", resp.Message)

	resp = decode[SongRequestResponse](t, do(t, h, http.MethodPost, path, SongRequestBody{SingerID: mia, Title: "Valerie"}, false))
	require.True(t, resp.Success)
	resp = decode[SongRequestResponse](t, do(t, h, http.MethodPost, path, SongRequestBody{SingerID: mia, Title: "Zombie"}, false))
	assert.False(t, resp.Success)
	assert.Equal(t, "request_limit", resp.Code)
	assert.Equal(t, "You have reached the request limit.", resp.Message)

	resp = decode[SongRequestResponse](t, do(t, h, http.MethodPost, path, SongRequestBody{SingerID: mia, Title: "Zombie"}, true))
	assert.True(t, resp.Success, "the host token lifts the limit")
	assert.Equal(t, "HOST", string(resp.Request.RequesterType))

	w = do(t, h, http.MethodPost, path, map[string]any{"title": "No singer"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/rooms/"+roomID+"/queue", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	q := decode[QueueResponse](t, w)
	assert.Len(t, q.Queue, 3)
	assert.Nil(t, q.Current)
}

func TestServer_StageAndMoments(t *testing.T) {
	h := newTestServer(t).Handler()
	roomID := createRoom(t, h, "")
	mia := joinRoom(t, h, roomID, "Mia")
	base := "/api/rooms/" + roomID

	w := do(t, h, http.MethodPost, base+"/stage/next", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "nothing_queued", decode[ErrorResponse](t, w).Code)

	do(t, h, http.MethodPost, base+"/requests", SongRequestBody{SingerID: mia, Title: "Toxic"}, false)

	w = do(t, h, http.MethodPost, base+"/stage/next", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, base+"/stage/next", nil, true)
	assert.Equal(t, "stage_busy", decode[ErrorResponse](t, w).Code)

	w = do(t, h, http.MethodGet, base+"/recommendation", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hype_moment", decode[map[string]any](t, w)["id"])

	w = do(t, h, http.MethodPost, base+"/stage/complete", CompleteRequest{DurationSec: 180}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 180, decode[map[string]any](t, w)["credited_sec"])

	w = do(t, h, http.MethodPost, base+"/moments", MomentRequest{Mode: "Hype", DurationSec: 20}, true)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[map[string]any](t, w)
	assert.Equal(t, true, d["allowed"])
	assert.Equal(t, "hype", d["mode"])

	w = do(t, h, http.MethodPost, base+"/moments/end", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, base+"/moments/end", nil, true)
	assert.Equal(t, "no_active_moment", decode[ErrorResponse](t, w).Code)

	w = do(t, h, http.MethodPost, base+"/moments", MomentRequest{Mode: "bingo", DurationSec: 20}, true)
	require.Equal(t, http.StatusOK, w.Code)
	d = decode[map[string]any](t, w)
	assert.Equal(t, false, d["allowed"])
	assert.Equal(t, "song_gap_required", d["reason"])
}

func TestServer_Settings(t *testing.T) {
	h := newTestServer(t).Handler()
	roomID := createRoom(t, h, "")
	base := "/api/rooms/" + roomID

	w := do(t, h, http.MethodPut, base+"/queue-settings", map[string]any{"limitMode": "per_night", "limitCount": 3}, true)
	require.Equal(t, http.StatusOK, w.Code)
	rm := decode[RoomResponse](t, w)
	assert.Equal(t, "fair_turns", rm.FlowRuleID)
	assert.Equal(t, 3, rm.QueueSettings.LimitCount)

	w = do(t, h, http.MethodPut, base+"/policy", map[string]any{"min_singing_share_pct": 99}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 95, decode[RoomResponse](t, w).Policy.MinSingingSharePct)

	w = do(t, h, http.MethodPost, base+"/flow-rule", FlowRuleRequest{FlowRule: "crowd_pleaser"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "crowd_pleaser", decode[RoomResponse](t, w).FlowRuleID)

	w = do(t, h, http.MethodPost, base+"/flow-rule", FlowRuleRequest{FlowRule: "chaos"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_flow_rule", decode[ErrorResponse](t, w).Code)

	w = do(t, h, http.MethodPost, base+"/preset", PresetRequest{Preset: "wedding"}, true)
	assert.Equal(t, "unknown_preset", decode[ErrorResponse](t, w).Code)

	w = do(t, h, http.MethodPut, base+"/moderation", ModerationRequest{Count: 1}, true)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, base+"/recommendation", nil, true)
	assert.Equal(t, "review_moderation", decode[map[string]any](t, w)["id"])

	w = do(t, h, http.MethodPost, base+"/close", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", string(decode[RoomResponse](t, w).Phase))
	w = do(t, h, http.MethodPost, base+"/singers", JoinRequest{DisplayName: "Late"}, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/api/rooms/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "room_not_found", decode[ErrorResponse](t, w).Code)

	w = do(t, h, http.MethodGet, "/api/flow-rules", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]any](t, w)["flow_rules"], 4)
}

func TestServer_Kick(t *testing.T) {
	h := newTestServer(t).Handler()
	roomID := createRoom(t, h, "")
	mia := joinRoom(t, h, roomID, "Mia")

	w := do(t, h, http.MethodPost, "/api/rooms/"+roomID+"/singers/"+mia+"/kick", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SongRequestResponse](t, do(t, h, http.MethodPost, "/api/rooms/"+roomID+"/requests", SongRequestBody{SingerID: mia, Title: "Toxic"}, false))
	assert.Equal(t, "kicked", resp.Code)

	w = do(t, h, http.MethodPost, "/api/rooms/"+roomID+"/singers/nobody/kick", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StreamEvents(t *testing.T) {
	h := newTestServer(t).Handler()
	srv := httptest.NewServer(h)
	defer srv.Close()

	roomID := createRoom(t, h, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/rooms/"+roomID+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event:"); ok {
				return name
			}
		}
	}

	assert.Equal(t, "initial_state", nextEvent())

	joinRoom(t, h, roomID, "Mia")
	assert.Equal(t, "singer_joined", nextEvent())
}

func TestServer_StreamEvents_UnknownRoom(t *testing.T) {
	h := newTestServer(t).Handler()
	w := do(t, h, http.MethodGet, "/api/rooms/missing/events", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_SearchSongs_Unavailable(t *testing.T) {
	h := newTestServer(t).Handler()
	w := do(t, h, http.MethodGet, "/api/songs?q=queen", nil, false)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "search_unavailable", decode[ErrorResponse](t, w).Code)
}

type fakeCatalog struct{}

func (fakeCatalog) GetTrack(ctx context.Context, trackID string) (*song.Track, error) {
	return &song.Track{ID: trackID, Title: "Dancing Queen", Artists: []string{"ABBA"}, Duration: 231 * time.Second}, nil
}

func (fakeCatalog) Search(ctx context.Context, query string, limit int) ([]song.Track, error) {
	return []song.Track{{ID: "trk-1", Title: "Dancing Queen", Artists: []string{"ABBA"}, Duration: 231 * time.Second}}, nil
}

func TestServer_SearchAndRequestByTrack(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfigYAML))
	require.NoError(t, err)
	mgr, err := session.NewManager(cfg, memstore.New(), session.WithSongLookup(fakeCatalog{}))
	require.NoError(t, err)
	h := New(cfg, mgr, nil).Handler()

	w := do(t, h, http.MethodGet, "/api/songs?q=queen", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	songs := decode[map[string][]SongResult](t, w)["songs"]
	require.Len(t, songs, 1)
	assert.Equal(t, SongResult{TrackID: "trk-1", Title: "Dancing Queen", Artist: "ABBA", DurationSec: 231}, songs[0])

	roomID := createRoom(t, h, "")
	mia := joinRoom(t, h, roomID, "Mia")
	resp := decode[SongRequestResponse](t, do(t, h, http.MethodPost, "/api/rooms/"+roomID+"/requests", SongRequestBody{SingerID: mia, TrackID: "trk-1"}, false))
	require.True(t, resp.Success)
	assert.Equal(t, "Dancing Queen", resp.Request.Title)
	assert.Equal(t, 231, resp.Request.DurationSec)

	w = do(t, h, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code, "no metrics endpoint without metrics")
}
