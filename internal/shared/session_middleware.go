package shared

import (
	"context"
	"log/slog"
	"net/http"
)

type commitWriter struct {
	http.ResponseWriter
	ctx           context.Context
	manager       *SessionManager
	sess          *Session
	logger        *slog.Logger
	headerWritten bool
}

func (w *commitWriter) commit() {
	if err := w.manager.Commit(w.ctx, w.ResponseWriter, w.sess); err != nil {
		w.logger.Error("commit session", slog.Any("error", err))
	}
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware loads the request session into the context and commits it
// right before the response headers go out.
func (sm *SessionManager) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sm.Load(r.Context(), r)
			if err != nil {
				logger.Error("load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			ctx := ContextWithSession(r.Context(), sess)
			wrapped := &commitWriter{ResponseWriter: w, ctx: ctx, manager: sm, sess: sess, logger: logger}
			next.ServeHTTP(wrapped, r.WithContext(ctx))
			if !wrapped.headerWritten {
				wrapped.commit()
			}
		})
	}
}

// RedirectWithFlash queues a flash message on the request session and
// redirects with 303 See Other.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
