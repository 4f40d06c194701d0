package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"routinetimer/internal/logging"
)

const streamKeepAlive = 15 * time.Second

// ExecutionEvents streams every ExecutionEvent as server-sent events. The
// first event is always a snapshot of the current state.
func (a *API) ExecutionEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	reqID := logging.NewRequestID()
	ch, cancel, err := a.Engine.Subscribe(r.Context())
	if err != nil {
		a.Logger.Warn("execution_stream_subscribe_error", logging.F("req_id", reqID), logging.Err(err))
		writeServiceError(w, classifyError(err))
		return
	}
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	_, _ = w.Write([]byte(":\n\n"))
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	count := 0
	reason := "unknown"
	defer func() {
		a.Logger.Debug("execution_stream_close",
			logging.F("req_id", reqID),
			logging.F("count", count),
			logging.F("reason", reason),
		)
	}()
	for {
		select {
		case <-ctx.Done():
			reason = "ctx_done"
			return
		case <-keepAlive.C:
			_, _ = w.Write([]byte(":\n\n"))
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				reason = "channel_closed"
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			count++
			_, _ = w.Write([]byte("event: " + string(event.Kind) + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(data)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
