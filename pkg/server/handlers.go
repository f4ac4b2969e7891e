package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/matzehuels/forge/pkg/buildinfo"
	"github.com/matzehuels/forge/pkg/diagram"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/forge"
	"github.com/matzehuels/forge/pkg/frontmatter"
	"github.com/matzehuels/forge/pkg/pipeline"
	"github.com/matzehuels/forge/pkg/shapes"
)

// maxBodyBytes caps PUT payloads.
const maxBodyBytes = 8 << 20

// DiagramResponse is the body of GET /api/diagram.
type DiagramResponse struct {
	Path        string               `json:"path"`
	Data        diagram.Data         `json:"data"`
	Diagnostics []diagram.Diagnostic `json:"diagnostics"`
	Cached      bool                 `json:"cached"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code  errs.Code `json:"code"`
	Error string    `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Current()})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := forge.Discover(s.root)
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "discover workspace"))
		return
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k, err := forge.ParseKind(kind)
		if err != nil {
			s.writeError(w, err)
			return
		}
		docs = forge.Filter(docs, k)
	}
	if docs == nil {
		docs = []forge.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	rel, abs, err := s.resolve(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	content, err := readDocument(abs, rel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	parsed, hit, err := s.runner.ParseWithCacheInfo(r.Context(), content, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	diags := parsed.Diagnostics
	if diags == nil {
		diags = []diagram.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, DiagramResponse{
		Path:        rel,
		Data:        parsed.Data,
		Diagnostics: diags,
		Cached:      hit,
	})
}

func (s *Server) handlePutDiagram(w http.ResponseWriter, r *http.Request) {
	if s.readOnly {
		writeJSON(w, http.StatusForbidden, errorResponse{Code: errs.ErrCodeUnsupported, Error: "workspace is read-only"})
		return
	}
	rel, abs, err := s.resolve(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var in diagram.Data
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode diagram"))
		return
	}
	d, err := rebuild(in)
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidDiagram, err, "invalid diagram"))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	content, err := readDocument(abs, rel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	front, _, _ := frontmatter.Split(content)
	out := s.ser.Serialize(d, front)
	if out == content {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := writeFile(abs, out); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "write %s", rel))
		return
	}
	s.logger.Info("saved diagram", "path", rel, "nodes", d.NodeCount(), "edges", d.EdgeCount())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rel, abs, err := s.resolve(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		Formats:   []string{format},
		Direction: q.Get("direction"),
		Detailed:  q.Get("detailed") == "true",
		Pinned:    q.Get("pinned") == "true",
	}
	if err := opts.Validate(); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidFormat, err, "export options"))
		return
	}
	content, err := readDocument(abs, rel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), content, opts)
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "export %s", rel))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleShapes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, shapes.All())
}

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// =============================================================================
// Helpers
// =============================================================================

// resolve reads the path query parameter and confines it to the workspace.
func (s *Server) resolve(r *http.Request) (rel, abs string, err error) {
	rel = r.URL.Query().Get("path")
	if rel == "" {
		return "", "", errs.New(errs.ErrCodeInvalidInput, "missing path parameter")
	}
	abs, err = forge.Resolve(s.root, rel)
	if err != nil {
		return "", "", err
	}
	return rel, abs, nil
}

// rebuild re-adds every node and edge of in, which fills missing edge IDs
// and rejects graphs that would not survive a round trip.
func rebuild(in diagram.Data) (diagram.Data, error) {
	d := diagram.Empty()
	for _, n := range in.Nodes {
		if err := d.AddNode(n); err != nil {
			return d, err
		}
	}
	for _, e := range in.Edges {
		if err := d.AddEdge(e); err != nil {
			return d, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	return d, nil
}

func readDocument(abs, rel string) (string, error) {
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.New(errs.ErrCodeFileNotFound, "document not found: %s", rel)
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "read %s", rel)
	}
	return string(data), nil
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidPath, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidKind:
		return http.StatusBadRequest
	case errs.ErrCodeInvalidDiagram, errs.ErrCodeInvalidDocument:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: message(err)})
}

// message is the client-facing text of err: the message and its cause,
// without the code prefix.
func message(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return errs.UserMessage(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
