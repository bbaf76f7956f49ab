package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/session"
)

// HeaderCorrelationID пробрасывается через все логи одного запроса.
const HeaderCorrelationID = "X-Correlation-Id"

func init() {
	middleware.RequestIDHeader = HeaderCorrelationID
}

type sessionKey struct{}

// CorrelationID возвращает идентификатор корреляции запроса, выданный middleware.RequestID.
func CorrelationID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// echoCorrelationID возвращает идентификатор корреляции клиенту. Ставится после middleware.RequestID.
func echoCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := CorrelationID(r.Context()); id != "" {
			w.Header().Set(HeaderCorrelationID, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"method":         r.Method,
				"path":           r.URL.Path,
				"status":         ww.Status(),
				"bytes":          ww.BytesWritten(),
				"duration_ms":    time.Since(start).Milliseconds(),
				"correlation_id": CorrelationID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request served with error")
				return
			}
			entry.Debug("request served")
		})
	}
}

func recoverer(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithFields(log.Fields{
					"panic":          rec,
					"correlation_id": CorrelationID(r.Context()),
					"stack":          string(debug.Stack()),
				}).Error("panic in http handler")
				writeError(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// withSession находит или создаёт сессию по X-Session-Id и возвращает её id в ответе.
// Идентификатор не в формате UUID игнорируется: клиент получает новую сессию.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, created := h.sessions.GetOrCreate(sessionIDFrom(r))
		if created {
			h.logger.WithField("session_id", s.ID).Debug("session created")
		}
		w.Header().Set(HeaderSessionID, s.ID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionIDFrom(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(HeaderSessionID))
	if raw == "" {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionKey{}).(*session.Session)
	return s
}
