package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"cvedash/internal/analytics"
	"cvedash/internal/datasource"
	"cvedash/internal/metrics"
	"cvedash/internal/model"
	"cvedash/internal/table"
	"cvedash/internal/telemetry"
)

//go:embed static/*
var staticFiles embed.FS

// Server serves the collection, the aggregated series and the table over HTTP.
type Server struct {
	loader   *datasource.Loader
	metrics  *metrics.Metrics
	addr     string
	pageSize int
}

// NewServer creates a new web server
func NewServer(loader *datasource.Loader, m *metrics.Metrics, addr string, pageSize int) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if pageSize <= 0 {
		pageSize = table.DefaultPageSize
	}
	return &Server{
		loader:   loader,
		metrics:  m,
		addr:     addr,
		pageSize: pageSize,
	}
}

// Handler builds the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static files
	contentStatic, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServer(http.FS(contentStatic)))

	mux.HandleFunc("GET /fetch_data", s.handleFetchData)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/charts/{name}", s.handleChart)
	mux.HandleFunc("GET /api/vendors", s.handleVendors)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/table", s.handleTable)
	mux.HandleFunc("GET /api/records/{id}", s.handleRecord)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.metrics.RequestTrackingMiddleware(mux)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.LogInfo("Starting dashboard", "url", "http://"+s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// records returns the current collection. A failed fetch is logged and the
// previous collection, possibly empty, is used.
func (s *Server) records(r *http.Request) []model.VulnerabilityRecord {
	snap, err := s.loader.Load(r.Context())
	if err != nil {
		telemetry.LogError("Serving stale collection", err, "path", r.URL.Path, "generation", snap.Generation)
	}
	if snap.Records == nil {
		return []model.VulnerabilityRecord{}
	}
	return snap.Records
}

func (s *Server) handleFetchData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.records(r))
}

type statusResponse struct {
	Records     int       `json:"records"`
	Generation  uint64    `json:"generation"`
	FetchedAt   time.Time `json:"fetchedAt"`
	Subscribers int       `json:"subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.loader.Current()
	writeJSON(w, http.StatusOK, statusResponse{
		Records:     len(snap.Records),
		Generation:  snap.Generation,
		FetchedAt:   snap.FetchedAt,
		Subscribers: s.loader.Subscribers(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Refresh(r.Context())
	if err != nil {
		telemetry.LogError("Refresh failed", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Records:     len(snap.Records),
		Generation:  snap.Generation,
		FetchedAt:   snap.FetchedAt,
		Subscribers: s.loader.Subscribers(),
	})
}

func filtersFrom(r *http.Request) (analytics.Filters, error) {
	q := r.URL.Query()
	return analytics.Params{
		Type:    q.Get("type"),
		Limit:   q.Get("limit"),
		Mode:    q.Get("mode"),
		Top:     q.Get("top"),
		Vendor:  q.Get("vendor"),
		Product: q.Get("product"),
	}.Filters()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Compute(s.records(r), filters))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	series, err := analytics.Chart(r.PathValue("name"), s.records(r), filters)
	if errors.Is(err, analytics.ErrUnknownChart) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vendors := analytics.Vendors(analytics.FilterByBulletinType(s.records(r), filters.Facet))
	writeJSON(w, http.StatusOK, orEmpty(vendors))
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	filtered := analytics.FilterByBulletinType(s.records(r), filters.Facet)
	writeJSON(w, http.StatusOK, orEmpty(analytics.ProductsForVendor(filtered, filters.Vendor)))
}

func (s *Server) tableQuery(r *http.Request) (table.Query, error) {
	q := r.URL.Query()
	query := table.Query{Search: q.Get("q"), PageSize: s.pageSize}

	if v := q.Get("sort"); v != "" {
		col, err := table.ParseColumn(v)
		if err != nil {
			return table.Query{}, err
		}
		query.Sort = col
	}
	if v := q.Get("dir"); v != "" {
		dir, err := table.ParseDirection(v)
		if err != nil {
			return table.Query{}, err
		}
		query.Dir = dir
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return table.Query{}, errors.New("page must be a positive integer")
		}
		query.Page = page
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return table.Query{}, table.ErrInvalidPageSize
		}
		query.PageSize = size
	}
	return query, nil
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	query, err := s.tableQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := table.Apply(s.records(r), query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, ok := table.Lookup(s.records(r), id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no record with id "+id))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.LogError("Failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
