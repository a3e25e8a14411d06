package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/spiview/internal/httputil"
	"github.com/banshee-data/spiview/internal/render"
	"github.com/banshee-data/spiview/internal/security"
)

func (s *Server) renderOptions(r *http.Request) (render.Options, error) {
	o := render.Options{Title: s.viewer.Store().ProductName()}
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return o, fmt.Errorf("invalid \"max\" parameter: %q", v)
		}
		o.MaxSide = n
	}
	return o, nil
}

func (s *Server) handleRenderHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	o, err := s.renderOptions(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render.HTML(&buf, s.viewer.Index(), s.viewer.Canvas(), o); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render page: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRenderPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	o, err := s.renderOptions(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, s.viewer.Index(), s.viewer.Canvas(), o); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render preview: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", security.SanitizeFilename(o.Title)+".png"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
