package httpserver

import (
	"errors"
	"net/http"

	"dumbserve/internal/apierr"
	"dumbserve/internal/files"
)

var (
	errMethodNotAllowed = apierr.New(http.StatusMethodNotAllowed, "method not allowed")
	errMalformedBody    = apierr.New(http.StatusBadRequest, "malformed request body")
	errMissingPath      = apierr.New(http.StatusBadRequest, "path is required")
	errNoUser           = errors.New("no authenticated user in request context")
)

// classify maps domain errors onto the API taxonomy. Unknown errors come
// back as InternalServerError.
func classify(err error) *apierr.Error {
	var ae *apierr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, files.ErrDirNotFound):
		return apierr.New(http.StatusNotFound, files.ErrDirNotFound.Error())
	case errors.Is(err, files.ErrNotFound):
		return apierr.NotFound
	case errors.Is(err, files.ErrNotImage):
		return apierr.New(http.StatusNotFound, files.ErrNotImage.Error())
	case errors.Is(err, files.ErrNotDir):
		return apierr.New(http.StatusBadRequest, files.ErrNotDir.Error())
	case errors.Is(err, files.ErrIsDir):
		return apierr.New(http.StatusBadRequest, files.ErrIsDir.Error())
	case errors.Is(err, files.ErrNoFilename):
		return apierr.New(http.StatusBadRequest, files.ErrNoFilename.Error())
	case errors.Is(err, files.ErrBadPath):
		return apierr.New(http.StatusBadRequest, files.ErrBadPath.Error())
	}
	return apierr.InternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	if e.Status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"err", err,
		)
	} else {
		s.log.Debug(r.Context(), "request rejected", "status", e.Status, "err", err)
	}
	apierr.Write(w, e)
}
