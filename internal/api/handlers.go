package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/banshee-data/spiview/internal/config"
	"github.com/banshee-data/spiview/internal/httputil"
	"github.com/banshee-data/spiview/internal/layer"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/security"
	"github.com/banshee-data/spiview/internal/spi"
)

// writeError maps a domain error to a status code.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, layer.ErrUnknownLayer):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, layer.ErrInvalidSelectionState):
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":      err.Error(),
			"error_kind": string(pipeline.KindInvalidSelectionState),
		})
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func formBool(r *http.Request, key string) (bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return false, fmt.Errorf("missing %q parameter", key)
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %q parameter: %q", key, v)
	}
	return b, nil
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	path := r.FormValue("path")
	if path == "" {
		httputil.BadRequest(w, "missing \"path\" parameter")
		return
	}
	if err := security.CheckRoots(path, s.roots); err != nil {
		httputil.WriteJSONError(w, http.StatusForbidden, err.Error())
		return
	}
	if err := s.viewer.Load(path); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"queued": true, "path": path})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.viewer.Summary())
}

type structureResponse struct {
	By      layer.Mode           `json:"by"`
	Entries []spi.StructureEntry `json:"entries"`
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	by := layer.ModeSize
	if v := r.URL.Query().Get("by"); v != "" {
		m, err := layer.ParseMode(v)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		by = m
	}
	entries := s.viewer.Structure(by)
	if entries == nil {
		entries = []spi.StructureEntry{}
	}
	httputil.WriteJSONOK(w, structureResponse{By: by, Entries: entries})
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	withShapes := false
	conds := layer.Conditions{}
	for key, values := range q {
		if key == "shapes" {
			b, err := strconv.ParseBool(q.Get(key))
			if err != nil {
				httputil.BadRequest(w, fmt.Sprintf("invalid \"shapes\" parameter: %q", q.Get(key)))
				return
			}
			withShapes = b
			continue
		}
		f, err := layer.ParseField(key)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		conds[f] = values[0]
	}

	idx := s.viewer.Index()
	out := []layer.Info{}
	for _, name := range idx.Query(conds) {
		in, ok := idx.Layer(name)
		if !ok {
			continue
		}
		if !withShapes {
			in.Shapes = nil
		}
		out = append(out, in)
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	name := r.FormValue("name")
	visible, err := formBool(r, "visible")
	if name == "" || err != nil {
		httputil.BadRequest(w, "want \"name\" and a boolean \"visible\"")
		return
	}
	if err := s.viewer.SetLayerEnabled(name, visible); err != nil {
		writeError(w, err)
		return
	}
	in, _ := s.viewer.Index().Layer(name)
	httputil.WriteJSONOK(w, in)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	name := r.FormValue("name")
	highlighted, err := formBool(r, "highlighted")
	if name == "" || err != nil {
		httputil.BadRequest(w, "want \"name\" and a boolean \"highlighted\"")
		return
	}
	if err := s.viewer.SetLayerHighlighted(name, highlighted); err != nil {
		writeError(w, err)
		return
	}
	in, _ := s.viewer.Index().Layer(name)
	httputil.WriteJSONOK(w, in)
}

// handleMode accepts either mode=size|id or the two toggles by_size and
// by_id, of which exactly one must be on.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var err error
	if v := r.FormValue("mode"); v != "" {
		m, perr := layer.ParseMode(v)
		if perr != nil {
			httputil.BadRequest(w, perr.Error())
			return
		}
		err = s.viewer.SetMode(m)
	} else {
		bySize, _ := strconv.ParseBool(r.FormValue("by_size"))
		byID, _ := strconv.ParseBool(r.FormValue("by_id"))
		err = s.viewer.Select(layer.Selection{BySize: bySize, ByID: byID})
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.viewer.Summary())
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if err := s.viewer.SetFilter(r.FormValue("line_id"), r.FormValue("panel_id")); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.viewer.Summary())
}

type settingsResponse struct {
	Change   string               `json:"change,omitempty"`
	Settings *config.ViewerConfig `json:"settings"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, settingsResponse{Settings: config.FromCanvas(s.viewer.Settings())})
	case http.MethodPost:
		var patch config.ViewerConfig
		if err := httputil.DecodeJSON(w, r, &patch); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		merged := config.FromCanvas(s.viewer.Settings()).Merge(&patch)
		if err := merged.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		kind := s.viewer.ApplySettings(merged.CanvasConfig())
		httputil.WriteJSONOK(w, settingsResponse{
			Change:   kind.String(),
			Settings: config.FromCanvas(s.viewer.Settings()),
		})
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "invalid \"limit\" parameter")
			return
		}
		limit = n
	}
	runs, err := s.history.Runs(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to read runs: %v", err))
		return
	}
	if runs == nil {
		runs = []pipeline.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}
