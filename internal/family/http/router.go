package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/pkg/httpx"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"

	_ "github.com/kinfolkhq/kinfolk/api/family" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	InvitationService *service.InvitationService
	OnboardingService *service.OnboardingService

	// ExposeDebugCodes surfaces verification codes in register responses so
	// test environments can complete the flow without a mailbox. Never
	// enable it in production.
	ExposeDebugCodes bool
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOnboarding()
	r.registerInvitations()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Kinfolk Family Service API
//	@version		0.1.0
//	@description	Family onboarding and invitation service. Accounts register with email
//	@description	verification, every verified user organizes a family of their own, and
//	@description	organizers invite members by email with single-use opaque tokens.
//	@description
//	@description				Access tokens are JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				Kinfolk Team
//	@contact.url				https://github.com/kinfolkhq/kinfolk
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOnboarding() {
	// POST /register - strict rate limit by IP (account creation)
	registerHandler := &RegisterHandler{
		OnboardingService: r.OnboardingService,
		ExposeDebugCodes:  r.ExposeDebugCodes,
	}
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /register/confirm - strict rate limit by IP (code guessing)
	confirmHandler := &RegisterConfirmHandler{OnboardingService: r.OnboardingService}
	r.Mux.Handle("POST /v1/register/confirm",
		httpx.Chain(confirmHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /register/resend - strict rate limit by IP (mail volume)
	resendHandler := &RegisterResendHandler{
		OnboardingService: r.OnboardingService,
		ExposeDebugCodes:  r.ExposeDebugCodes,
	}
	r.Mux.Handle("POST /v1/register/resend",
		httpx.Chain(resendHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP (brute force prevention)
	loginHandler := &LoginHandler{OnboardingService: r.OnboardingService}
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerInvitations() {
	createHandler := &InvitationCreateHandler{InvitationService: r.InvitationService}
	listHandler := &InvitationListHandler{InvitationService: r.InvitationService}
	cancelHandler := &InvitationCancelHandler{InvitationService: r.InvitationService}
	resendHandler := &InvitationResendHandler{InvitationService: r.InvitationService}
	acceptHandler := &InvitationAcceptHandler{InvitationService: r.InvitationService}
	declineHandler := &InvitationDeclineHandler{InvitationService: r.InvitationService}

	// POST /families/{familyID}/invitations - organizer operation
	r.Mux.Handle("POST /v1/families/{familyID}/invitations",
		httpx.Chain(createHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /families/{familyID}/invitations - organizer read operation
	r.Mux.Handle("GET /v1/families/{familyID}/invitations",
		httpx.Chain(listHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Invitation tokens travel in request bodies, not URLs, so they stay
	// out of access logs.
	r.Mux.Handle("POST /v1/invitations/cancel",
		httpx.Chain(cancelHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/resend",
		httpx.Chain(resendHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/accept",
		httpx.Chain(acceptHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/decline",
		httpx.Chain(declineHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("family:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
