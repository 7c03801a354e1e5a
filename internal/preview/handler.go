package preview

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// StatusPath serves the JSON build status.
const StatusPath = "/_docsite/status"

// Status is the payload of StatusPath.
type Status struct {
	Building  bool                   `json:"building"`
	LastBuild *build.Report          `json:"last_build,omitempty"`
	Error     string                 `json:"error,omitempty"`
	History   []history.BuildSummary `json:"history,omitempty"`
}

// Handler routes the status endpoint, metrics and the built site.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+StatusPath, s.handleStatus)
	if cfg := s.config(); s.opts.Metrics != nil && cfg.Monitoring.Metrics.Enabled {
		mux.Handle("GET "+cfg.Monitoring.Metrics.Path, s.opts.Metrics)
	}
	mux.HandleFunc("/", s.handleSite)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := Status{Building: s.building, LastBuild: s.last}
	lastErr := s.lastErr
	s.mu.RUnlock()

	if st.LastBuild == nil && lastErr != nil {
		s.errs.WriteErrorResponse(w, r, lastErr)
		return
	}
	if lastErr != nil {
		st.Error = lastErr.Error()
	}
	if s.opts.History != nil {
		st.History = s.opts.History.History()
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(st)
}

// handleSite serves the output tree below site.base_url. Extensionless paths
// fall back to "<path>.html" and "<path>/index.html"; misses get 404.html.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		s.errs.WriteErrorResponse(w, r, errors.ValidationError("method not allowed").
			WithContext("method", r.Method).Build())
		return
	}
	cfg := s.config()
	root := cfg.OutputDir()
	base := cfg.Site.BaseURL
	if base == "" {
		base = "/"
	}

	if r.URL.Path == strings.TrimSuffix(base, "/") && base != "/" {
		http.Redirect(w, r, base, http.StatusMovedPermanently)
		return
	}
	if !strings.HasPrefix(r.URL.Path, base) {
		s.notFound(w, r, root)
		return
	}
	rel := strings.TrimPrefix(r.URL.Path, base)
	file, ok := resolve(root, rel)
	if !ok {
		s.notFound(w, r, root)
		return
	}
	http.ServeFile(w, r, file)
}

// resolve maps a URL path below the site base onto a file in root.
func resolve(root, rel string) (string, bool) {
	clean := strings.TrimPrefix(path.Clean("/"+rel), "/")
	var candidates []string
	switch {
	case clean == "":
		candidates = []string{"index.html"}
	case strings.HasSuffix(rel, "/"):
		candidates = []string{clean + "/index.html", clean + ".html"}
	default:
		candidates = []string{clean, clean + ".html", clean + "/index.html"}
	}
	for _, c := range candidates {
		p := filepath.Join(root, filepath.FromSlash(c))
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, root string) {
	data, err := os.ReadFile(filepath.Join(root, "404.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}
