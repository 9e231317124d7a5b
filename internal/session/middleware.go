package session

import (
	"context"
	"net/http"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/dom/gallery-cms/internal/logging"
)

type contextKey struct{}

type requestState struct {
	sess      *domain.Session
	destroyed bool
}

// FromContext returns the session the middleware attached, or nil.
func FromContext(ctx context.Context) *domain.Session {
	if st, ok := ctx.Value(contextKey{}).(*requestState); ok {
		return st.sess
	}
	return nil
}

// NewContext attaches sess to ctx. The middleware does this for every
// request; handlers under test can call it directly.
func NewContext(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, &requestState{sess: sess})
}

// Middleware loads the session for every request and saves it, cookie
// included, right before the response header goes out if it was modified.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r)
		if err != nil {
			m.logger.Error("session unavailable", logging.Err(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		st := &requestState{sess: sess}
		ctx := context.WithValue(r.Context(), contextKey{}, st)
		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() {
			if st.destroyed || !st.sess.IsModified() {
				return
			}
			if err := m.Save(ctx, w, st.sess); err != nil {
				m.logger.Error("failed to save session", logging.Err(err))
			}
		}

		next.ServeHTTP(cw, r.WithContext(ctx))
		cw.flush()
	})
}

// Logout destroys the request's session. Later writes in the same request
// do not bring it back.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	st, ok := r.Context().Value(contextKey{}).(*requestState)
	if !ok {
		return nil
	}
	st.destroyed = true
	return m.Destroy(r.Context(), w, st.sess)
}

// commitWriter runs commit once, before the first byte of the response.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) flush() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *commitWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
