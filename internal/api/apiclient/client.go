// Package apiclient is a Go client for the karaokebox HTTP API, used by the
// host and singer CLIs.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/api/httpapi"
	"github.com/osa030/karaokebox/internal/app/advisor"
	"github.com/osa030/karaokebox/internal/app/moment"
	"github.com/osa030/karaokebox/internal/app/session"
	"github.com/osa030/karaokebox/internal/domain/flowrule"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Client calls the API of one server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends the host token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func roomPath(roomID string, parts ...string) string {
	p := "/api/rooms/" + url.PathEscape(roomID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// CreateRoom opens a room. Empty arguments use the server defaults.
func (c *Client) CreateRoom(ctx context.Context, title, flowRule string) (*httpapi.RoomResponse, error) {
	var out httpapi.RoomResponse
	err := c.do(ctx, http.MethodPost, "/api/rooms", httpapi.CreateRoomRequest{Title: title, FlowRule: flowRule}, &out)
	return &out, err
}

// ListRooms returns every room.
func (c *Client) ListRooms(ctx context.Context) ([]*httpapi.RoomResponse, error) {
	var out struct {
		Rooms []*httpapi.RoomResponse `json:"rooms"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &out)
	return out.Rooms, err
}

// Status returns the host view of a room.
func (c *Client) Status(ctx context.Context, roomID string) (*httpapi.StatusResponse, error) {
	var out httpapi.StatusResponse
	err := c.do(ctx, http.MethodGet, roomPath(roomID), nil, &out)
	return &out, err
}

// Recommend returns the recommended next host action.
func (c *Client) Recommend(ctx context.Context, roomID string) (*advisor.Action, error) {
	var out advisor.Action
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "recommendation"), nil, &out)
	return &out, err
}

// Kick bars a singer from requesting.
func (c *Client) Kick(ctx context.Context, roomID, singerID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "singers", url.PathEscape(singerID), "kick"), nil, nil)
}

// StartNext puts the next song on stage.
func (c *Client) StartNext(ctx context.Context, roomID string) (*request.SongRequest, error) {
	var out request.SongRequest
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "stage", "next"), nil, &out)
	return &out, err
}

// CompletePerformance ends the song on stage. Zero credits the elapsed time.
func (c *Client) CompletePerformance(ctx context.Context, roomID string, durationSec int) (*session.Performance, error) {
	var out session.Performance
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "stage", "complete"), httpapi.CompleteRequest{DurationSec: durationSec}, &out)
	return &out, err
}

// TriggerMoment asks for a group moment.
func (c *Client) TriggerMoment(ctx context.Context, roomID, mode string, durationSec int) (*moment.Decision, error) {
	var out moment.Decision
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "moments"), httpapi.MomentRequest{Mode: mode, DurationSec: durationSec}, &out)
	return &out, err
}

// EndMoment ends the active group moment.
func (c *Client) EndMoment(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "moments", "end"), nil, nil)
}

// UpdateQueueSettings overlays raw queue settings.
func (c *Client) UpdateQueueSettings(ctx context.Context, roomID string, raw map[string]any) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPut, roomPath(roomID, "queue-settings"), raw)
}

// UpdatePolicy overlays raw party policy fields.
func (c *Client) UpdatePolicy(ctx context.Context, roomID string, raw map[string]any) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPut, roomPath(roomID, "policy"), raw)
}

// ApplyFlowRule applies a catalog rule.
func (c *Client) ApplyFlowRule(ctx context.Context, roomID, ruleID string) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPost, roomPath(roomID, "flow-rule"), httpapi.FlowRuleRequest{FlowRule: ruleID})
}

// ApplyPreset applies a configured event archetype.
func (c *Client) ApplyPreset(ctx context.Context, roomID, archetype string) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPost, roomPath(roomID, "preset"), httpapi.PresetRequest{Preset: archetype})
}

// SetModeration records how many items await review.
func (c *Client) SetModeration(ctx context.Context, roomID string, count int) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPut, roomPath(roomID, "moderation"), httpapi.ModerationRequest{Count: count})
}

// Close stops the room from taking requests.
func (c *Client) Close(ctx context.Context, roomID string) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPost, roomPath(roomID, "close"), nil)
}

// Reopen lets the room take requests again.
func (c *Client) Reopen(ctx context.Context, roomID string) (*httpapi.RoomResponse, error) {
	return c.roomCall(ctx, http.MethodPost, roomPath(roomID, "reopen"), nil)
}

// Join adds a singer to a room.
func (c *Client) Join(ctx context.Context, roomID, displayName, externalUserID string) (*singer.Singer, error) {
	var out singer.Singer
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "singers"), httpapi.JoinRequest{DisplayName: displayName, ExternalUserID: externalUserID}, &out)
	return &out, err
}

// RequestSong submits a song request. Rejections are reported in the response,
// not as errors.
func (c *Client) RequestSong(ctx context.Context, roomID string, body httpapi.SongRequestBody) (*httpapi.SongRequestResponse, error) {
	var out httpapi.SongRequestResponse
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "requests"), body, &out)
	return &out, err
}

// Queue returns the song on stage and the waiting songs.
func (c *Client) Queue(ctx context.Context, roomID string) (*httpapi.QueueResponse, error) {
	var out httpapi.QueueResponse
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "queue"), nil, &out)
	return &out, err
}

// SearchSongs finds catalog tracks by free text.
func (c *Client) SearchSongs(ctx context.Context, query string, limit int) ([]httpapi.SongResult, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Songs []httpapi.SongResult `json:"songs"`
	}
	err := c.do(ctx, http.MethodGet, "/api/songs?"+q.Encode(), nil, &out)
	return out.Songs, err
}

// FlowRules returns the flow rule catalog.
func (c *Client) FlowRules(ctx context.Context) ([]flowrule.Rule, error) {
	var out struct {
		FlowRules []flowrule.Rule `json:"flow_rules"`
	}
	err := c.do(ctx, http.MethodGet, "/api/flow-rules", nil, &out)
	return out.FlowRules, err
}

func (c *Client) roomCall(ctx context.Context, method, path string, in any) (*httpapi.RoomResponse, error) {
	var out httpapi.RoomResponse
	err := c.do(ctx, method, path, in, &out)
	return &out, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(httpapi.AdminTokenHeader, c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response", method, path)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body httpapi.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
