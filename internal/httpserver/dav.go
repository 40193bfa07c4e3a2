package httpserver

import (
	"net/http"

	"golang.org/x/net/webdav"
)

// handleDAV serves WebDAV rooted at <files.path>/<user>. Each user gets
// their own handler and lock system.
func (s *Server) handleDAV(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	h, err := s.davHandler(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	h.ServeHTTP(w, r)
}

func (s *Server) davHandler(user string) (*webdav.Handler, error) {
	s.davMu.Lock()
	defer s.davMu.Unlock()

	if h, ok := s.dav[user]; ok {
		return h, nil
	}
	root, err := s.files.UserRoot(user)
	if err != nil {
		return nil, err
	}
	h := &webdav.Handler{
		Prefix:     "/dav",
		FileSystem: webdav.Dir(root),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				s.log.Debug(r.Context(), "webdav", "method", r.Method, "path", r.URL.Path, "err", err)
			}
		},
	}
	s.dav[user] = h
	return h, nil
}
