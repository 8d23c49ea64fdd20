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

// Router holds shared dependencies for the console API's handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TeamService       *service.TeamService
	MembershipService *service.MembershipService
	InvitationService *service.InvitationService
	ProjectService    *service.ProjectService
	EndpointService   *service.EndpointService
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
	r.registerTeams()
	r.registerInvitations()
	r.registerProjects()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps a handler with authentication and a per-user rate limit.
// Every console route requires a verified session.
func (r *Router) authed(next http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(next,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerTeams() {
	th := &TeamHandler{TeamService: r.TeamService}
	mh := &MembershipHandler{MembershipService: r.MembershipService}

	r.Mux.Handle("POST /v1/teams", r.authed(th.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/teams", r.authed(th.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/teams/{teamID}", r.authed(th.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/teams/{teamID}", r.authed(th.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/teams/{teamID}", r.authed(th.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("GET /v1/teams/{teamID}/members", r.authed(mh.HandleList, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/teams/{teamID}/members/{membershipID}", r.authed(mh.HandleUpdateRole, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/teams/{teamID}/members/{membershipID}", r.authed(mh.HandleRemove, httpx.ModerateLimit))
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	r.Mux.Handle("POST /v1/teams/{teamID}/invitations", r.authed(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/teams/{teamID}/invitations", r.authed(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/invitations/{invitationID}", r.authed(h.HandleCancel, httpx.ModerateLimit))

	// Validation is reachable before sign-in so the landing page can show
	// the team name; the token alone gates what it reveals.
	r.Mux.Handle("GET /v1/invitations/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/accept", r.authed(h.HandleAccept, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/invitations/decline", r.authed(h.HandleDecline, httpx.StrictLimit))
}

func (r *Router) registerProjects() {
	ph := &ProjectHandler{ProjectService: r.ProjectService}
	eh := &EndpointHandler{EndpointService: r.EndpointService}

	r.Mux.Handle("POST /v1/teams/{teamID}/projects", r.authed(ph.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/teams/{teamID}/projects", r.authed(ph.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/projects/{projectID}", r.authed(ph.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/projects/{projectID}", r.authed(ph.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/projects/{projectID}", r.authed(ph.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("POST /v1/projects/{projectID}/endpoints", r.authed(eh.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/projects/{projectID}/endpoints", r.authed(eh.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/endpoints/{endpointID}", r.authed(eh.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/endpoints/{endpointID}/deploy", r.authed(eh.HandleDeploy, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/endpoints/{endpointID}/deploy/complete", r.authed(eh.HandleCompleteDeployment, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/endpoints/{endpointID}", r.authed(eh.HandleDelete, httpx.ModerateLimit))
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
