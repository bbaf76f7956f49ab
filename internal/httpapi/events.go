package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Events отдаёт поток Server-Sent Events: событие `cart` сразу после подключения
// и после каждого изменения корзины. Быстрые изменения подряд сливаются в одно событие.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	changes, cancel := s.Ledger.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := h.logger.WithFields(log.Fields{
		"session_id":     s.ID,
		"correlation_id": CorrelationID(r.Context()),
	})

	send := func() bool {
		snapshot := s.Ledger.Snapshot()
		body, err := json.Marshal(toCartDTO(s, snapshot))
		if err != nil {
			logger.WithError(err).Error("failed to encode cart event")
			return false
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", snapshot.Version, body); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	var keepAlive <-chan time.Time
	if h.keepAlive > 0 {
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("cart event stream closed")
			return
		case _, ok := <-changes:
			if !ok || !send() {
				return
			}
		case <-keepAlive:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
