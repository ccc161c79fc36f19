package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/io"
	"github.com/fwerkmann/stackflow/pkg/store"
)

// Handler builds the chi router. Store endpoints are mounted only when a
// store is configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/diagram.svg", s.handleDiagram)

	if s.store != nil {
		r.Route("/api/diagrams", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/{name}", s.handlePush)
			r.Get("/{name}", s.handleGet)
			r.Get("/{name}/svg", s.handleGetSVG)
			r.Delete("/{name}", s.handleDelete)
		})
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - stackflow</title>
<style>
  body { margin: 0; font-family: system-ui, sans-serif; background: #f5f5f4; }
  header { padding: 8px 16px; background: #1c1917; color: #fafaf9; display: flex; justify-content: space-between; }
  header .err { color: #fca5a5; }
  main { padding: 16px; }
  img { max-width: 100%; background: white; box-shadow: 0 1px 3px rgba(0,0,0,.2); }
</style>
</head>
<body>
<header>
  <span>{{.Title}}</span>
  <span id="state">{{if .Err}}<span class="err">{{.Err}}</span>{{else}}rendered {{.RenderedAt}}{{end}}</span>
</header>
<main><img id="diagram" src="/diagram.svg" alt="diagram"></main>
<script>
let last = {{.RenderedAtUnix}};
setInterval(async () => {
  try {
    const st = await (await fetch("/status")).json();
    if (st.rendered_at_unix !== last) {
      last = st.rendered_at_unix;
      document.getElementById("diagram").src = "/diagram.svg?t=" + last;
      document.getElementById("state").textContent = st.error ? st.error : "updated";
    }
  } catch {}
}, {{.PollMillis}});
</script>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cur := s.view()

	title := "diagram"
	if cur.result != nil && cur.result.Layout.Title != "" {
		title = cur.result.Layout.Title
	} else if s.opts.Source != "" && s.opts.Source != "-" {
		title = filepath.Base(s.opts.Source)
	}

	data := struct {
		Title          string
		Err            string
		RenderedAt     string
		RenderedAtUnix int64
		PollMillis     int64
	}{
		Title:          title,
		RenderedAt:     cur.renderedAt.Format(time.RFC3339),
		RenderedAtUnix: cur.renderedAt.UnixMilli(),
		PollMillis:     s.cfg.PollInterval.Milliseconds(),
	}
	if cur.err != nil {
		data.Err = errors.UserMessage(cur.err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTemplate.Execute(w, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	Source         string `json:"source"`
	RenderedAt     string `json:"rendered_at,omitempty"`
	RenderedAtUnix int64  `json:"rendered_at_unix,omitempty"`
	GraphHash      string `json:"graph_hash,omitempty"`
	NodeCount      int    `json:"node_count"`
	EdgeCount      int    `json:"edge_count"`
	Crossings      int    `json:"crossings"`
	Fallbacks      int    `json:"fallbacks"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cur := s.view()

	resp := statusResponse{Source: s.opts.Source}
	if !cur.renderedAt.IsZero() {
		resp.RenderedAt = cur.renderedAt.Format(time.RFC3339)
		resp.RenderedAtUnix = cur.renderedAt.UnixMilli()
	}
	if cur.result != nil {
		resp.GraphHash = cur.result.GraphHash
		resp.NodeCount = cur.result.Stats.NodeCount
		resp.EdgeCount = cur.result.Stats.EdgeCount
		resp.Crossings = cur.result.Stats.Crossings
		resp.Fallbacks = cur.result.Stats.Fallbacks
	}
	if cur.err != nil {
		resp.Error = errors.UserMessage(cur.err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	cur := s.view()
	if cur.svg == nil {
		msg := "not rendered yet"
		if cur.err != nil {
			msg = errors.UserMessage(cur.err)
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(cur.svg)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cur := s.view()
	if cur.result == nil {
		http.Error(w, "nothing rendered yet", http.StatusConflict)
		return
	}

	res := cur.result
	d := &store.Diagram{
		Name:      name,
		Title:     res.Layout.Title,
		GraphHash: res.GraphHash,
		Document:  io.New(res.Graph, res.Layout, res.Plan),
		SVG:       cur.svg,
		NodeCount: res.Stats.NodeCount,
		EdgeCount: res.Stats.EdgeCount,
	}
	if err := s.store.Save(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved.Summary())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetSVG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(d.SVG) == 0 {
		writeError(w, errors.New(errors.ErrCodeNotFound, "diagram %q has no stored SVG", name))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(d.SVG)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes onto HTTP status codes. Unknown codes and
// plain errors report as 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrCodeDiagramNotFound),
		errors.Is(err, errors.ErrCodeNotFound),
		errors.Is(err, errors.ErrCodeFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidConfig),
		errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeMalformedInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrCodeStore):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
