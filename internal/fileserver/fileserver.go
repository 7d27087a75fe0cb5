// Package fileserver serves a file tree with extension-based content types
// and caching disabled.
package fileserver

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// ContentType returns the MIME type served for a file name.
func ContentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}

// Server serves files from an fs.FS.
type Server struct {
	fsys   fs.FS
	logger *zap.Logger
	now    func() time.Time
}

// New returns a handler serving fsys. "/" maps to index.html.
func New(fsys fs.FS, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{fsys: fsys, logger: logger, now: time.Now}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "" || urlPath == "/" {
		urlPath = "/index.html"
	}

	if strings.Contains(urlPath, "..") {
		writeStatus(w, http.StatusForbidden, "Forbidden")
		return
	}

	name := strings.TrimPrefix(urlPath, "/")
	f, err := s.fsys.Open(name)
	if err != nil {
		s.fail(w, name, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, name, err)
		return
	}
	if !info.Mode().IsRegular() {
		writeStatus(w, http.StatusNotFound, "Not Found")
		return
	}

	content, err := io.ReadAll(f)
	if err != nil {
		s.fail(w, name, err)
		return
	}

	now := s.now()
	h := w.Header()
	h.Set("Content-Type", ContentType(name))
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Last-Modified", now.UTC().Format(http.TimeFormat))
	h.Set("ETag", strconv.FormatInt(now.UnixMilli(), 10))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(content)
	}
}

func (s *Server) fail(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		writeStatus(w, http.StatusNotFound, "Not Found")
		return
	}
	s.logger.Error("failed to serve file", zap.String("file", name), zap.Error(err))
	writeStatus(w, http.StatusInternalServerError, "Internal Server Error")
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	io.WriteString(w, body)
}
