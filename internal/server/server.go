// Package server exposes the generation pipeline over HTTP: moderation,
// model call, quota accounting and the sandbox frame assets, all behind a
// small chi router. Errors surface as 200 responses with placeholder
// content so the browser client never branches on status codes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindrender/mindrender/internal/audit"
	"github.com/mindrender/mindrender/internal/config"
	"github.com/mindrender/mindrender/internal/identity"
	"github.com/mindrender/mindrender/internal/model"
	"github.com/mindrender/mindrender/internal/moderation"
	"github.com/mindrender/mindrender/internal/orchestrator"
	"github.com/mindrender/mindrender/internal/quota"
	"github.com/mindrender/mindrender/internal/sandbox"
)

// Deps carries the wired pipeline components. Audit may be nil.
type Deps struct {
	Gate   *moderation.Gate
	Orch   *orchestrator.Orchestrator
	Ledger *quota.Ledger
	Auth   identity.Authenticator
	Roles  *identity.Roles
	Audit  *audit.Log
	Logger *slog.Logger
}

// Server handles the HTTP API.
type Server struct {
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	ledger *quota.Ledger
	auth   identity.Authenticator
	roles  *identity.Roles
	audit  *audit.Log
	log    *slog.Logger
	seq    *sequencer
	router chi.Router

	gateMu sync.RWMutex
	gate   *moderation.Gate
}

// New builds a server and its router.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		orch:   deps.Orch,
		ledger: deps.Ledger,
		auth:   deps.Auth,
		roles:  deps.Roles,
		audit:  deps.Audit,
		log:    logger,
		seq:    newSequencer(),
		gate:   deps.Gate,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	r.Use(requestLogger(logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/sim-frame", s.handleFrame)
	r.Get("/sim-frame.js", s.handleFrameJS)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/get_token_total", s.handleTokenTotal)
	})

	s.router = r
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// Gate returns the active moderation gate.
func (s *Server) Gate() *moderation.Gate {
	s.gateMu.RLock()
	defer s.gateMu.RUnlock()
	return s.gate
}

// SwapGate atomically replaces the moderation gate. Used by hot reload.
func (s *Server) SwapGate(g *moderation.Gate) {
	s.gateMu.Lock()
	s.gate = g
	s.gateMu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(sandbox.FrameHTML)
}

func (s *Server) handleFrameJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(sandbox.FrameJS)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	req, err := decodeSimulate(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	subject := model.Subject(req.Subject)
	if subject == "" {
		subject = model.DefaultSubject
	}

	reqID := s.seq.begin(user.ID)
	logger := s.log.With("request_id", reqID, "user_id", user.ID, "subject", string(subject))

	verdict := s.Gate().Evaluate(req.Prompt, subject)
	if !verdict.Accepted {
		logger.Info("prompt blocked", "reason", verdict.Reason)
		s.record(audit.Entry{
			RequestID: reqID, UserID: user.ID, Subject: string(subject),
			Decision: audit.DecisionBlocked, Reason: verdict.Reason,
		})
		resp := failureResponse("Content not allowed", verdict.Reason)
		resp.RequestID = reqID
		respondJSON(w, http.StatusOK, resp)
		return
	}

	privileged := s.roles.IsPrivileged(user)

	artifact, usage, genErr := s.orch.Generate(r.Context(), req.Prompt, subject)
	if genErr != nil {
		logger.Error("generation failed", "err", genErr)
		s.record(audit.Entry{
			RequestID: reqID, UserID: user.ID, Subject: string(subject),
			Decision: audit.DecisionFailed, Reason: genErr.Error(), Tokens: usage.Total(),
		})
		resp := failureResponse("Generation failed", generationExplanation(genErr))
		resp.RequestID = reqID
		respondJSON(w, http.StatusOK, resp)
		return
	}

	prompt := model.Prompt{Text: req.Prompt, Subject: subject, UserID: user.ID}
	decision, chargeErr := s.ledger.CheckAndCharge(r.Context(), prompt, usage.Total(), privileged)
	if chargeErr != nil {
		var qe *model.QuotaError
		if errors.As(chargeErr, &qe) {
			logger.Info("quota exceeded", "total", qe.Total, "limit", qe.Limit)
			s.record(audit.Entry{
				RequestID: reqID, UserID: user.ID, Subject: string(subject),
				Decision: audit.DecisionQuota, Tokens: usage.Total(),
			})
			resp := quotaResponse(qe.Total, qe.Limit)
			resp.RequestID = reqID
			respondJSON(w, http.StatusOK, resp)
			return
		}
		// Store failure after a successful generation: deliver the result,
		// the charge is lost.
		logger.Error("usage charge failed", "err", chargeErr)
	}

	if !s.seq.isCurrent(user.ID, reqID) {
		// A newer request from the same user superseded this one while the
		// model was generating. The tokens are charged, the result is not
		// delivered.
		logger.Info("result superseded")
		resp := failureResponse("Superseded", "A newer request replaced this one.")
		resp.RequestID = reqID
		respondJSON(w, http.StatusOK, resp)
		return
	}

	logger.Info("simulation generated", "tokens", usage.Total(), "total_after", decision.TotalAfter)
	s.record(audit.Entry{
		RequestID: reqID, UserID: user.ID, Subject: string(subject),
		Decision: audit.DecisionGenerated, Tokens: usage.Total(),
	})
	respondJSON(w, http.StatusOK, simulateResponse{
		CanvasHTML:  artifact.Markup,
		JSCode:      artifact.Script,
		Explanation: artifact.Explanation,
		RequestID:   reqID,
		Usage:       usagePayload{TotalTokens: usage.Total()},
	})
}

func (s *Server) handleTokenTotal(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if q := r.URL.Query().Get("user_id"); q != "" && q != user.ID {
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "user_id does not match token"})
		return
	}

	total, err := s.ledger.Total(r.Context(), user.ID)
	if err != nil {
		s.log.Error("token total lookup failed", "user_id", user.ID, "err", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Failed to fetch token usage",
			"total": 0,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"limit": s.ledger.Ceiling(),
	})
}

func (s *Server) record(entry audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(entry); err != nil {
		s.log.Error("audit write failed", "err", err)
	}
}

// generationExplanation maps pipeline errors to user-facing text. Raw
// provider responses never reach the client.
func generationExplanation(err error) string {
	var (
		pe *model.ProviderError
		te *model.TransportError
		ee *model.ExtractionError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The simulation took too long to generate. Please try again."
	case errors.As(err, &ee):
		return "The model reply could not be turned into a simulation. Please try rephrasing your prompt."
	case errors.As(err, &pe):
		if pe.Status == http.StatusTooManyRequests {
			return "The simulation service is busy right now. Please try again in a moment."
		}
		return "The simulation service returned an error. Please try again."
	case errors.As(err, &te):
		return "The simulation service could not be reached. Please try again."
	default:
		return "Something went wrong while generating the simulation. Please try again."
	}
}
