package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/brizzai/google-signup/internal/audit"
	"github.com/brizzai/google-signup/internal/auth"
	"github.com/brizzai/google-signup/internal/auth/constants"
	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"github.com/brizzai/google-signup/internal/server/middleware"
	"github.com/brizzai/google-signup/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileRenderer is the display boundary for a verified account.
type ProfileRenderer interface {
	RenderProfile(w http.ResponseWriter, profile *models.UserProfile) error
}

// Handler serves the login and callback endpoints
type Handler struct {
	flow       *auth.Flow
	renderer   ProfileRenderer
	recorder   audit.Recorder
	trustProxy bool
}

// NewHandler creates a new Handler instance
func NewHandler(flow *auth.Flow, renderer ProfileRenderer, recorder audit.Recorder, trustProxy bool) *Handler {
	if recorder == nil {
		recorder = audit.NewNopRecorder()
	}
	return &Handler{
		flow:       flow,
		renderer:   renderer,
		recorder:   recorder,
		trustProxy: trustProxy,
	}
}

// NewHandlerFromConfig is the fx constructor.
func NewHandlerFromConfig(cfg *config.Config, flow *auth.Flow, renderer ProfileRenderer, recorder audit.Recorder) *Handler {
	return NewHandler(flow, renderer, recorder, cfg.Server.TrustProxyHeaders)
}

// RegisterRoutes mounts the login routes under loginPath
func (h *Handler) RegisterRoutes(r *mux.Router, loginPath string) {
	r.HandleFunc(loginPath, h.HandleLogin).Methods(http.MethodGet)
	r.HandleFunc(loginPath+constants.CallbackSuffix, h.HandleCallback).Methods(http.MethodGet)
}

// HandleLogin redirects the browser to the provider's consent page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	redirect, err := h.flow.StartLogin(ctx, BaseURL(r, h.trustProxy))
	if err != nil {
		h.record(ctx, audit.StepLogin, audit.OutcomeFailed, err)
		h.writeError(w, r, err)
		return
	}

	if redirect.StateNonce != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     constants.StateCookieName,
			Value:    redirect.StateNonce,
			Path:     "/",
			MaxAge:   int(h.flow.StateTTL().Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	h.record(ctx, audit.StepLogin, audit.OutcomeRedirected, nil)
	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// HandleCallback completes the login and renders the account
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := auth.CallbackRequest{
		Query:   r.URL.Query(),
		URL:     RequestURL(r, h.trustProxy),
		BaseURL: BaseURL(r, h.trustProxy),
	}
	if h.flow.StateEnforced() {
		if c, err := r.Cookie(constants.StateCookieName); err == nil {
			req.StateNonce = c.Value
		}
		// the nonce is single use whatever the outcome
		http.SetCookie(w, &http.Cookie{
			Name:     constants.StateCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	result, err := h.flow.HandleCallback(ctx, req)
	if err != nil {
		h.record(ctx, audit.StepCallback, audit.OutcomeFailed, err)
		h.writeError(w, r, err)
		return
	}

	if !result.Accepted() {
		h.record(ctx, audit.StepCallback, audit.OutcomeRejected, nil)
		utils.WriteText(w, http.StatusBadRequest, constants.UnverifiedAccountMessage)
		return
	}

	h.record(ctx, audit.StepCallback, audit.OutcomeAccepted, nil)
	logger.FromContext(ctx).Info("Login completed", zap.String("sub", result.Profile.SubjectID))
	tw := &trackingWriter{ResponseWriter: w}
	if err := h.renderer.RenderProfile(tw, result.Profile); err != nil {
		logger.FromContext(ctx).Error("Failed to render profile", zap.Error(err))
		if !tw.wrote {
			utils.WriteText(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// trackingWriter notes whether a response has been started
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

// StatusFor maps a flow error to the status and fixed message shown to the user.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCode):
		return http.StatusBadRequest, "missing authorization code"
	case errors.Is(err, auth.ErrInvalidState):
		return http.StatusBadRequest, "invalid state parameter"
	case errors.Is(err, auth.ErrDiscovery):
		return http.StatusBadGateway, "identity provider unavailable"
	case errors.Is(err, auth.ErrTokenExchange):
		return http.StatusBadGateway, "could not complete sign-in with the identity provider"
	case errors.Is(err, auth.ErrUserInfo):
		return http.StatusBadGateway, "could not load the account profile"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := StatusFor(err)
	log := logger.FromContext(r.Context()).With(
		zap.String("path", r.URL.Path),
		zap.String("error_kind", auth.KindName(err)),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("Login flow failed", zap.Error(err))
	} else {
		log.Warn("Login flow refused", zap.Error(err))
	}
	utils.WriteText(w, status, message)
}

func (h *Handler) record(ctx context.Context, step audit.Step, outcome audit.Outcome, err error) {
	ev := audit.Event{
		RequestID: middleware.RequestIDFromContext(ctx),
		Step:      step,
		Outcome:   outcome,
		ErrorKind: auth.KindName(err),
	}
	// audit failures never change the response
	if recErr := h.recorder.Record(context.WithoutCancel(ctx), ev); recErr != nil {
		logger.FromContext(ctx).Warn("Failed to record audit event", zap.Error(recErr))
	}
}
