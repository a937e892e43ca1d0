package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/particula/pkg/buildinfo"
	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/pipeline"
	"github.com/matzehuels/particula/pkg/render"
	"github.com/matzehuels/particula/pkg/session"
	"github.com/matzehuels/particula/pkg/shape"
)

// =============================================================================
// Health and shapes
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// ShapeInfo describes one shape in the catalog.
type ShapeInfo struct {
	Shape   shape.Kind   `json:"shape"`
	Name    string       `json:"name"`
	CameraZ float64      `json:"camera_z"`
	Spins   []shape.Spin `json:"spins"`
	Default bool         `json:"default,omitempty"`
}

// Catalog lists every shape in menu order.
func Catalog() []ShapeInfo {
	kinds := shape.All()
	out := make([]ShapeInfo, len(kinds))
	for i, k := range kinds {
		p := shape.ProfileOf(k)
		out[i] = ShapeInfo{Shape: k, Name: p.Name, CameraZ: p.CameraZ, Spins: p.Spins, Default: k == shape.Default}
	}
	return out
}

func (s *Server) handleShapes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Catalog())
}

func (s *Server) handleShapeCloud(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, pipeline.FormatJSON)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, chi.URLParam(r, "format"))
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, format string) {
	_, base := s.defaults()
	opts, err := renderRequest(base, chi.URLParam(r, "shape"), format, r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	cacheState := "miss"
	if res.RenderCached {
		cacheState = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", pipeline.ContentType(format))
	h.Set("X-Cache", cacheState)
	h.Set("X-Cloud-Hash", res.CloudHash)
	h.Set("X-Cloud-Seed", strconv.FormatUint(res.Cloud.Seed, 10))
	if opts.Seed != 0 {
		h.Set("Cache-Control", "public, max-age=86400")
	} else {
		h.Set("Cache-Control", "no-store")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// renderRequest builds pipeline options from defaults, the path and the
// query string.
func renderRequest(base pipeline.Options, tag, format string, q url.Values) (pipeline.Options, error) {
	opts := base
	opts.Formats = []string{format}
	if err := pipeline.CheckFormat(format); err != nil {
		return opts, err
	}
	kind, ok := shape.Parse(tag)
	if !ok {
		return opts, errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", tag)
	}
	opts.Shape = string(kind)

	p := queryParser{q: q}
	p.intParam("count", &opts.Count)
	p.uintParam("seed", &opts.Seed)
	p.floatParam("scale", &opts.Scale)
	p.floatParam("time", &opts.Time)
	p.intParam("width", &opts.Width)
	p.intParam("height", &opts.Height)
	p.intParam("cols", &opts.Cols)
	p.intParam("rows", &opts.Rows)
	p.floatParam("point_size", &opts.PointSize)
	p.boolParam("refresh", &opts.Refresh)
	if v := q.Get("color"); v != "" {
		opts.Color = v
	}
	if v := q.Get("core"); v != "" {
		var core bool
		p.boolParam("core", &core)
		opts.NoCore = !core
	}
	if p.err != nil {
		return opts, p.err
	}
	return opts, nil
}

// queryParser reads typed query parameters and keeps the first error.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) fail(name, v string, err error) {
	if p.err == nil {
		p.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s=%q", name, v)
	}
}

func (p *queryParser) intParam(name string, dst *int) {
	if v := p.q.Get(name); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *queryParser) uintParam(name string, dst *uint64) {
	if v := p.q.Get(name); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *queryParser) floatParam(name string, dst *float64) {
	if v := p.q.Get(name); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = f
	}
}

func (p *queryParser) boolParam(name string, dst *bool) {
	if v := p.q.Get(name); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = b
	}
}

// =============================================================================
// Sessions
// =============================================================================

// CreateSessionRequest is the optional body of POST /api/sessions.
type CreateSessionRequest struct {
	Shape string `json:"shape,omitempty"`
	Count int    `json:"count,omitempty"`
	Seed  uint64 `json:"seed,omitempty"`
	Color string `json:"color,omitempty"`
	Tier  string `json:"tier,omitempty"`
	FPS   int    `json:"fps,omitempty"`
}

// apply overrides the session template with the request fields.
func (req CreateSessionRequest) apply(opts session.Options) (session.Options, error) {
	if req.Shape != "" {
		kind, ok := shape.Parse(req.Shape)
		if !ok {
			return opts, errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", req.Shape)
		}
		opts.Shape = kind
	}
	if req.Count != 0 {
		if err := errors.ValidateCount(req.Count); err != nil {
			return opts, err
		}
		opts.Scene.Count = req.Count
	}
	if req.Seed != 0 {
		opts.Scene.Seed = req.Seed
	}
	if req.Color != "" {
		c, err := config.ParseColor(req.Color)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "color")
		}
		opts.Scene.Color = c
	}
	if req.Tier != "" {
		t, err := interaction.ParseTier(req.Tier)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "tier")
		}
		opts.Driver.Tier = t
	}
	if req.FPS != 0 {
		if req.FPS < 1 || req.FPS > 120 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "fps must be in [1, 120], got %d", req.FPS)
		}
		opts.FPS = req.FPS
	}
	return opts, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	tmpl, _ := s.defaults()
	opts, err := req.apply(tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.sessions.Create(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess.Status())
}

// session resolves the {id} path parameter, writing the error response
// when it fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		writeJSON(w, http.StatusOK, sess.Status())
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionCloud(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cloudDoc(sess))
}

// SampleResponse is the reply to POST /api/sessions/{id}/samples.
type SampleResponse struct {
	Accepted bool           `json:"accepted"`
	Status   session.Status `json:"status"`
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var sample interaction.Sample
	if err := decodeBody(w, r, &sample); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidSample, err, "sample"))
		return
	}
	accepted := sess.Offer(&sample)
	writeJSON(w, http.StatusAccepted, SampleResponse{Accepted: accepted, Status: sess.Status()})
}

func cloudDoc(sess *session.Session) render.CloudDoc {
	c, _ := config.ParseColor(sess.Color())
	return render.NewCloudDoc(sess.Cloud(), c, nil)
}
