package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/derekprior/rrsched/internal/config"
	"github.com/derekprior/rrsched/internal/csvexport"
	"github.com/derekprior/rrsched/internal/roundrobin"
	"github.com/derekprior/rrsched/internal/schedule"
	"github.com/derekprior/rrsched/internal/strategy"
)

const maxBodyBytes = 1 << 20

// DefaultMaxParticipants is the largest tournament accepted per request.
// Searches above it can run for minutes and a timed-out search keeps running.
const DefaultMaxParticipants = 20

// Options configures a Server.
type Options struct {
	// Timeout bounds each scheduling request. Zero disables the limit.
	Timeout time.Duration
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string
	// MaxParticipants caps the participant list. Zero means DefaultMaxParticipants.
	MaxParticipants int
	// MaxConcurrent caps engine runs in flight, abandoned ones included.
	// Zero means GOMAXPROCS.
	MaxConcurrent int
}

// Server exposes the scheduler over HTTP. Every request gets its own
// scheduler run; only the engine slots are shared between requests.
type Server struct {
	log     zerolog.Logger
	opts    Options
	engines *semaphore.Weighted
}

func New(log zerolog.Logger, opts Options) *Server {
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = DefaultMaxParticipants
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Server{
		log:     log,
		opts:    opts,
		engines: semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Routes returns the HTTP handler for the service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/schedules", s.handleSchedule)
	r.Post("/schedules/csv", s.handleScheduleCSV)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type scheduleRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
	Ordering     string   `json:"ordering"`
}

type fixtureResponse struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Venue string `json:"venue"`
	Bye   bool   `json:"bye,omitempty"`
}

type roundResponse struct {
	Round    int               `json:"round"`
	Fixtures []fixtureResponse `json:"fixtures"`
}

type standingResponse struct {
	Participant string `json:"participant"`
	Home        int    `json:"home"`
	Away        int    `json:"away"`
}

type scheduleResponse struct {
	Tournament   string             `json:"tournament,omitempty"`
	Participants []string           `json:"participants"`
	Rounds       []roundResponse    `json:"rounds"`
	Balance      []standingResponse `json:"balance"`
}

type errorResponse struct {
	Error        string `json:"error"`
	Round        int    `json:"round,omitempty"`
	Participants int    `json:"participants,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	result, ok := s.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(result))
}

func (s *Server) handleScheduleCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := s.build(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvexport.DefaultFilename))
	w.WriteHeader(http.StatusOK)
	if err := csvexport.Write(w, result); err != nil {
		s.log.Error().Err(err).Msg("writing csv")
	}
}

// build decodes and validates the request and runs the scheduler. On failure
// it writes the error response itself and returns false.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (*schedule.Result, bool) {
	var req scheduleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return nil, false
	}

	strat, err := strategy.Get(req.Ordering)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	if err := config.ValidateParticipants(req.Participants); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	if n := len(req.Participants); n > s.opts.MaxParticipants {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("at most %d participants are allowed, got %d", s.opts.MaxParticipants, n),
		})
		return nil, false
	}

	ctx := r.Context()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	participants := strat.Order(req.Participants)
	start := time.Now()
	result, err := schedule.BuildLimited(ctx, s.engines, req.Name, participants, nil)

	var infeasible *roundrobin.InfeasibleError
	switch {
	case err == nil:
		s.log.Debug().
			Int("participants", len(participants)).
			Dur("elapsed", time.Since(start)).
			Msg("schedule generated")
		return result, true
	case errors.As(err, &infeasible):
		s.log.Warn().Err(err).Int("participants", infeasible.Participants).Int("round", infeasible.Round).Msg("schedule infeasible")
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:        err.Error(),
			Round:        infeasible.Round,
			Participants: infeasible.Participants,
		})
	case errors.Is(err, schedule.ErrBusy):
		s.log.Warn().Int("participants", len(participants)).Msg("all engine slots busy")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.log.Warn().Err(err).Int("participants", len(participants)).Msg("schedule abandoned")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scheduling did not finish in time"})
	default:
		s.log.Error().Err(err).Msg("schedule failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return nil, false
}

func toResponse(result *schedule.Result) scheduleResponse {
	resp := scheduleResponse{
		Tournament:   result.Tournament,
		Participants: result.Participants,
		Rounds:       make([]roundResponse, 0, len(result.Rounds)),
		Balance:      make([]standingResponse, 0, len(result.Standings)),
	}
	for _, round := range result.Rounds {
		rr := roundResponse{Round: round.Number, Fixtures: make([]fixtureResponse, 0, len(round.Fixtures))}
		for _, fx := range round.Fixtures {
			rr.Fixtures = append(rr.Fixtures, fixtureResponse{
				Home:  fx.Home,
				Away:  fx.Away,
				Venue: fx.Venue,
				Bye:   fx.IsBye(),
			})
		}
		resp.Rounds = append(resp.Rounds, rr)
	}
	for _, st := range result.Standings {
		resp.Balance = append(resp.Balance, standingResponse{Participant: st.Participant, Home: st.Home, Away: st.Away})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
