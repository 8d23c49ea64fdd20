package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
	"github.com/aiforge-cloud/aiforge/pkg/jwtx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

// Router holds shared dependencies for the account security service's
// handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	UserService *service.UserService
	MFAService  *service.MFAService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerMFA()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{UserService: r.UserService}

	// Credential endpoints are the brute-force surface: strict IP limits.
	r.Mux.Handle("POST /v1/accounts/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/login/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleMFALogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/password/forgot",
		httpx.Chain(http.HandlerFunc(h.HandleRequestPasswordReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/accounts/email/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	authed := func(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /v1/mfa/devices/enroll", authed(h.HandleEnrollStart, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/mfa/devices", authed(h.HandleEnrollConfirm, httpx.StrictLimit))
	r.Mux.Handle("GET /v1/mfa/devices", authed(h.HandleListDevices, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/mfa/devices/{id}", authed(h.HandleDeleteDevice, httpx.ModerateLimit))

	// Code checks get the strict limit to slow TOTP brute force.
	r.Mux.Handle("POST /v1/mfa/verify", authed(h.HandleVerifyDevice, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/mfa/recovery-codes", authed(h.HandleGenerateRecoveryCodes, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
