// Package api serves layout resolution and yarding distance calculation
// over HTTP. Layers are posted inline as GeoJSON FeatureCollections.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/session"
	"github.com/sells-group/xgrid/internal/source"
	"github.com/sells-group/xgrid/internal/store"
	"github.com/sells-group/xgrid/internal/worksheet"
	"github.com/sells-group/xgrid/internal/yarding"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 32 << 20

// Options configures the handler.
type Options struct {
	Settings         session.Settings
	ScaleDenominator int
	// Store is optional; without it save requests are rejected.
	Store store.Store
}

// Handler serves the API.
type Handler struct {
	opts Options
}

// NewRouter builds the chi router with CORS and recovery middleware.
func NewRouter(opts Options) http.Handler {
	h := &Handler{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", h.layout)
		r.Post("/calculate", h.calculate)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{id}", h.getRun)
	})
	return r
}

// LayerInput is one posted layer.
type LayerInput struct {
	Name    string          `json:"name"`
	GeoJSON json.RawMessage `json:"geojson"`
	// CalcTarget excludes a polygon layer from the area when false.
	CalcTarget *bool `json:"calc_target,omitempty"`
}

// Point is a grid-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutRequest asks for the fit search over the posted layers.
type LayoutRequest struct {
	Layers []LayerInput `json:"layers"`
}

// LayoutResponse is the resolved layout plus the occupied cells.
type LayoutResponse struct {
	Resolution layout.Resolution `json:"resolution"`
	Cells      []raster.Cell     `json:"cells"`
}

// CalculateRequest asks for a full calculation. Exactly one of Landing and
// LandingAt is expected.
type CalculateRequest struct {
	Layers    []LayerInput  `json:"layers"`
	Landing   *raster.Cell  `json:"landing,omitempty"`
	LandingAt *Point        `json:"landing_at,omitempty"`
	Pan       raster.Offset `json:"pan"`
	Subtitle  string        `json:"subtitle,omitempty"`
	Save      bool          `json:"save,omitempty"`
}

// CalculateResponse carries the result and its worksheet.
type CalculateResponse struct {
	Resolution layout.Resolution `json:"resolution"`
	Result     *yarding.Result   `json:"result"`
	Sheet      *worksheet.Sheet  `json:"sheet"`
	RunID      string            `json:"run_id,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) layout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.build(req.Layers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		Resolution: s.Resolution(),
		Cells:      s.Cells().Sorted(),
	})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.build(req.Layers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.SetPan(req.Pan)

	switch {
	case req.Landing != nil:
		err = s.SelectLanding(req.Landing.Row, req.Landing.Col)
	case req.LandingAt != nil:
		_, err = s.SelectLandingAt(req.LandingAt.X, req.LandingAt.Y)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := s.Calculate()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	sheet, err := worksheet.Assemble(res, worksheet.Options{
		Subtitle:         req.Subtitle,
		ScaleDenominator: h.opts.ScaleDenominator,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := CalculateResponse{Resolution: s.Resolution(), Result: res, Sheet: sheet}
	if req.Save {
		if h.opts.Store == nil {
			writeError(w, http.StatusServiceUnavailable, eris.New("api: run history is not configured"))
			return
		}
		names := make([]string, len(req.Layers))
		for i, l := range req.Layers {
			names[i] = l.Name
		}
		run := &store.Run{
			Subtitle:      req.Subtitle,
			Sources:       names,
			Layout:        s.Config(),
			Landing:       res.Landing,
			TotalDegree:   res.TotalDegree,
			FinalDistance: res.FinalDistance,
			Sheet:         sheet,
		}
		if err := h.opts.Store.SaveRun(r.Context(), run); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = run.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, eris.New("api: run history is not configured"))
		return
	}
	runs, err := h.opts.Store.ListRuns(r.Context(), store.RunFilter{Subtitle: r.URL.Query().Get("subtitle")})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	// Listing omits the worksheets.
	for i := range runs {
		runs[i].Sheet = nil
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, eris.New("api: run history is not configured"))
		return
	}
	run, err := h.opts.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// build decodes the posted layers into a fresh session. Layers are added in
// request order, so the last one ends up on top.
func (h *Handler) build(inputs []LayerInput) (*session.Session, error) {
	if len(inputs) == 0 {
		return nil, eris.New("api: at least one layer is required")
	}
	s, err := session.New(h.opts.Settings)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		name := in.Name
		if name == "" {
			name = "layer"
		}
		l, err := source.DecodeGeoJSON(name, in.GeoJSON)
		if err != nil {
			return nil, eris.Wrapf(err, "api: layer %d", i)
		}
		s.AddLayers(l)
		if in.CalcTarget != nil && !*in.CalcTarget {
			if err := s.SetCalcTarget(0, false); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(err, "api: invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
