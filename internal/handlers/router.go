package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sbilibin2017/gw-user-account/internal/middlewares"
	httpSwagger "github.com/swaggo/http-swagger"
)

// APIPrefix is the mount point of the user routes.
const APIPrefix = "/api/v1/users"

// AuthAPI is the session side of the service.
type AuthAPI interface {
	Registerer
	Loginer
	Logouter
	Refresher
	PasswordChanger
}

// ProfileAPI is the profile side of the service.
type ProfileAPI interface {
	AccountUpdater
	AvatarUpdater
	CoverImageUpdater
	ChannelProfiler
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Auth       AuthAPI
	Profile    ProfileAPI
	Tokener    middlewares.Tokener
	Resolver   middlewares.UserResolver
	Cookies    CookieOptions
	Uploads    UploadOptions
	SwaggerURL string
}

// NewRouter builds the HTTP router with operational routes and the user API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.RecoverMiddleware)
	r.Use(middlewares.MetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	swaggerURL := cfg.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	r.Route(APIPrefix, func(r chi.Router) {
		// Public routes
		r.Post("/register", NewRegisterHandler(cfg.Auth, cfg.Uploads))
		r.Post("/login", NewLoginHandler(cfg.Auth, cfg.Cookies))
		r.Post("/refresh-token", NewRefreshTokenHandler(cfg.Auth, cfg.Cookies))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(cfg.Tokener, cfg.Resolver))

			r.Post("/logout", NewLogoutHandler(cfg.Auth, cfg.Cookies))
			r.Patch("/change-password", NewChangePasswordHandler(cfg.Auth))
			r.Get("/current-user", NewCurrentUserHandler())
			r.Patch("/update-account", NewUpdateAccountHandler(cfg.Profile))
			r.Patch("/avatar", NewUpdateAvatarHandler(cfg.Profile, cfg.Uploads))
			r.Patch("/cover-image", NewUpdateCoverImageHandler(cfg.Profile, cfg.Uploads))
			r.Get("/channel/{username}", NewChannelProfileHandler(cfg.Profile))
		})
	})

	return r
}
