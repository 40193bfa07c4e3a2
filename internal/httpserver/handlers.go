package httpserver

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"dumbserve/internal/apierr"
	"dumbserve/internal/auth"
	"dumbserve/internal/files"
)

// deleteRequest.Path is required; "" names the user root.
type deleteRequest struct {
	Path *string `json:"path"`
}

type buildDetails struct {
	Version       string `json:"version"`
	GitCommitHash string `json:"git_commit_hash"`
	SourceCode    string `json:"source_code"`
}

// user returns the authenticated username. Handlers behind authed always
// have one; an empty value means the route was wired without the gate.
func (s *Server) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := auth.UserFromContext(r.Context())
	if u == "" {
		s.writeError(w, r, errNoUser)
		return "", false
	}
	return u, true
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == nil {
		s.writeError(w, r, errMalformedBody)
		return
	}
	if err := s.files.DeleteDir(r.Context(), user, *req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rec.RecordDirDeleted()
	s.log.Info(r.Context(), "directory deleted", "user", user, "path", *req.Path)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	if !query.Has("path") {
		s.writeError(w, r, errMissingPath)
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, errMalformedBody)
		return
	}
	src := newMultipartSource(mr)
	defer src.Close()

	dir := query.Get("path")
	stats, err := s.files.Upload(r.Context(), user, dir, src)
	if stats.Files > 0 || stats.Bytes > 0 {
		s.rec.RecordUpload(stats.Files, stats.Bytes)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "upload finished",
		"user", user,
		"path", dir,
		"files", stats.Files,
		"bytes", stats.Bytes,
	)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	listing, err := s.files.List(r.Context(), user, r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, listing)
}

// handleRaw serves a file with Range support. dl=1 asks the browser to save
// it instead of rendering it.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	f, st, err := s.files.Open(r.Context(), user, r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	if ct := files.ContentType(st.Name()); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if r.URL.Query().Get("dl") == "1" {
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": st.Name()}))
	}
	http.ServeContent(w, r, st.Name(), st.ModTime(), f)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	size := files.DefaultThumbSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 2048 {
			s.writeError(w, r, apierr.New(http.StatusBadRequest, "invalid size"))
			return
		}
		size = n
	}
	b, err := s.files.Thumbnail(r.Context(), user, r.URL.Query().Get("path"), size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, s.build)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
