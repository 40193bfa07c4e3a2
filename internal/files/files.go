// Package files implements the per-user file operations: streaming multipart
// uploads, directory deletion, listing, downloads and image thumbnails.
//
// Every path a client supplies is resolved below <root>/<username>/ by
// fsutil.Resolve before any filesystem call is made. No locks are taken
// around mutations; concurrent requests on the same path race and the last
// one wins.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dumbserve/internal/fsutil"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNotDir     = errors.New("path is not a directory")
	ErrIsDir      = errors.New("path is a directory")
	ErrNoFilename = errors.New("filename is not present")
	ErrBadPath    = errors.New("invalid path")
	ErrNotImage   = errors.New("not an image")

	ErrDirNotFound = fmt.Errorf("dir %w", ErrNotFound)
)

// Part is one named byte stream of an upload body.
type Part interface {
	io.Reader
	// FileName returns "" when the part carries no filename.
	FileName() string
}

// PartSource yields upload parts in arrival order and returns io.EOF once
// the body is exhausted.
type PartSource interface {
	NextPart() (Part, error)
}

type UploadStats struct {
	Files int
	Bytes int64
}

type Service struct {
	root string
}

func New(root string) *Service {
	return &Service{root: root}
}

func (s *Service) Root() string { return s.root }

// UserRoot returns <root>/<user>, creating it if needed.
func (s *Service) UserRoot(user string) (string, error) {
	dir, err := fsutil.UserRoot(s.root, user)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Service) resolve(user, rel string) (string, error) {
	abs, err := fsutil.Resolve(s.root, user, rel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	return abs, nil
}

// Upload writes every part of src into dir, creating the directory (and any
// missing parents) first. Parts are consumed sequentially and streamed to
// disk. A part without a filename aborts the upload with ErrNoFilename;
// files written by earlier parts are left in place.
func (s *Service) Upload(ctx context.Context, user, dir string, src PartSource) (UploadStats, error) {
	var stats UploadStats

	absDir, err := s.resolve(user, dir)
	if err != nil {
		return stats, err
	}
	st, err := os.Stat(absDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return stats, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	case err != nil:
		return stats, err
	case !st.IsDir():
		return stats, ErrNotDir
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		part, err := src.NextPart()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("next part: %w", err)
		}

		name := part.FileName()
		if name == "" {
			return stats, ErrNoFilename
		}
		if err := fsutil.ValidName(name); err != nil {
			return stats, fmt.Errorf("%w: %q", ErrBadPath, name)
		}

		n, err := writeFile(filepath.Join(absDir, name), part)
		stats.Bytes += n
		if err != nil {
			return stats, fmt.Errorf("write %s: %w", name, err)
		}
		stats.Files++
	}
}

func writeFile(dst string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// DeleteDir recursively removes the directory rel. It returns ErrDirNotFound if
// nothing exists there and ErrNotDir, without touching it, if rel is not a
// directory.
func (s *Service) DeleteDir(ctx context.Context, user, rel string) error {
	abs, err := s.resolve(user, rel)
	if err != nil {
		return err
	}
	st, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrDirNotFound
	}
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return ErrNotDir
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.RemoveAll(abs)
}

type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"` // rel to the user root
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
	Mime  string `json:"mime,omitempty"`
	Thumb string `json:"thumb,omitempty"`
}

type Listing struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

// List returns the contents of directory rel, directories first. The user
// root lists as empty before anything has been uploaded.
func (s *Service) List(ctx context.Context, user, rel string) (Listing, error) {
	rel = fsutil.CleanRelPath(rel)
	out := Listing{Path: rel, Entries: []Entry{}}

	abs, err := s.resolve(user, rel)
	if err != nil {
		return out, err
	}
	st, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		if rel == "" {
			return out, nil
		}
		return out, ErrDirNotFound
	}
	if err != nil {
		return out, err
	}
	if !st.IsDir() {
		return out, ErrNotDir
	}
	ents, err := os.ReadDir(abs)
	if err != nil {
		return out, err
	}
	for _, e := range ents {
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := e.Name()
		it := Entry{
			Name:  name,
			Path:  joinRel(rel, name),
			IsDir: e.IsDir(),
			Size:  info.Size(),
			Mtime: info.ModTime().Unix(),
		}
		if !it.IsDir {
			it.Mime = ContentType(name)
			if IsImage(name) {
				it.Thumb = "thumb?path=" + url.QueryEscape(it.Path)
			}
		}
		out.Entries = append(out.Entries, it)
	}
	sort.Slice(out.Entries, func(i, j int) bool {
		a, b := out.Entries[i], out.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out, nil
}

// Open opens the regular file rel for reading. The caller closes it.
func (s *Service) Open(ctx context.Context, user, rel string) (*os.File, fs.FileInfo, error) {
	abs, err := s.resolve(user, rel)
	if err != nil {
		return nil, nil, err
	}
	st, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if st.IsDir() {
		return nil, nil, ErrIsDir
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, err
	}
	return f, st, nil
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	// Fallbacks for systems with sparse mime tables.
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".txt", ".log", ".md", ".json", ".yaml", ".yml", ".toml":
		return "text/plain; charset=utf-8"
	case ".zip":
		return "application/zip"
	case ".gz":
		return "application/gzip"
	default:
		return ""
	}
}
