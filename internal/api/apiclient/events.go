package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/app/notification"
)

// ErrStopStream can be returned by an event handler to end Events without error.
var ErrStopStream = errors.New("stop stream")

// Events subscribes to a room's event stream and calls fn for each event, the
// initial state first. It returns when ctx is done, the server closes the stream
// or fn returns an error.
func (c *Client) Events(ctx context.Context, roomID string, fn func(*notification.Event) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, roomPath(roomID, "events"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to open event stream")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimPrefix(line, "data:"))
		case line == "" && data.Len() > 0:
			var e notification.Event
			if err := json.Unmarshal([]byte(data.String()), &e); err != nil {
				return errors.Wrap(err, "failed to decode event")
			}
			data.Reset()
			if err := fn(&e); err != nil {
				if errors.Is(err, ErrStopStream) {
					return nil
				}
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "event stream failed")
	}
	return nil
}
