package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/outline"
	"github.com/dgallion1/nbtoc/internal/parser"
)

// defaultUploadName is used for raw bodies sent without a filename.
const defaultUploadName = "page.html"

type httpError struct {
	msg  string
	code int
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{msg: fmt.Sprintf(format, args...), code: http.StatusBadRequest}
}

func tooLarge(limit int64) error {
	return &httpError{msg: fmt.Sprintf("file exceeds max size (%d bytes)", limit), code: http.StatusRequestEntityTooLarge}
}

func (s *Server) handleAugment(w http.ResponseWriter, r *http.Request) {
	filename, data, opts, err := s.readRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, cached, err := s.orchestrator.Augment(r.Context(), filename, data, opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Nbtoc-Headings", strconv.Itoa(len(res.Entries)))
	w.Header().Set("X-Nbtoc-Cache", cacheHeader(cached))
	w.Write(res.HTML)
}

// outlineResponse is the JSON body of /api/outline.
type outlineResponse struct {
	Title   string           `json:"title"`
	Entries []*outline.Entry `json:"entries"`
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	filename, data, opts, err := s.readRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, cached, err := s.orchestrator.Augment(r.Context(), filename, data, opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	entries := res.Entries
	if entries == nil {
		entries = []*outline.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Nbtoc-Cache", cacheHeader(cached))
	json.NewEncoder(w).Encode(outlineResponse{Title: res.Title, Entries: entries})
}

// readRequest extracts the upload and per-request options. The upload is a
// multipart "file" field or, for any other content type, the raw body.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (string, []byte, augment.Options, error) {
	opts, err := s.parseOptions(r)
	if err != nil {
		return "", nil, opts, err
	}
	filename, data, err := s.readUpload(w, r)
	return filename, data, opts, err
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.cfg.Server.MaxUploadBytes
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1024*1024)

	var (
		filename string
		src      io.Reader
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, tooLarge(limit)
			}
			return "", nil, badRequest("invalid multipart form: %s", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, badRequest("file is required: %s", err)
		}
		defer file.Close()
		filename = header.Filename
		src = file
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			filename = defaultUploadName
		}
		src = r.Body
	}

	filename = sanitizeFilename(filename)
	if !parser.IsSupportedExtension(filename) {
		return "", nil, badRequest("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, tooLarge(limit)
		}
		return "", nil, &httpError{msg: "failed to read upload", code: http.StatusBadRequest}
	}
	if int64(len(data)) > limit {
		return "", nil, tooLarge(limit)
	}
	if len(data) == 0 {
		return "", nil, badRequest("empty upload")
	}
	return filename, data, nil
}

// parseOptions overlays query parameters on the configured defaults.
func (s *Server) parseOptions(r *http.Request) (augment.Options, error) {
	opts := s.defaults
	q := r.URL.Query()

	if v := q.Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 6 {
			return opts, badRequest("threshold must be an integer between 1 and 6")
		}
		opts.TOC.Threshold = n
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"number_sections", &opts.TOC.NumberSections},
		{"show_source", &opts.Display.ShowSource},
		{"show_prompt", &opts.Display.ShowPrompt},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, badRequest("%s must be a boolean", f.name)
		}
		*f.dst = b
	}
	return opts, nil
}

func cacheHeader(cached bool) string {
	if cached {
		return "hit"
	}
	return "miss"
}

func writeError(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		jsonError(w, he.msg, he.code)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
