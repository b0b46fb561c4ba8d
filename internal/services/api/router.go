// Package api assembles the HTTP surface of the rating service.
package api

import (
	"context"
	"net/http"

	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/NordCoder/Vidrate/internal/services/api/auth"
	"github.com/NordCoder/Vidrate/internal/services/api/content"
	"github.com/NordCoder/Vidrate/internal/services/api/httpx"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Logger  *zap.Logger
	Auth    *auth.Controller
	Content *content.Controller
	Gate    auth.Authenticator

	// LoginLimiter is optional; nil leaves login unthrottled.
	LoginLimiter   *httpx.RateLimiter
	TrustedProxies httpx.TrustedProxies
	Health         func(ctx context.Context) error
	CORSOrigins    []string
}

type route struct {
	method  string
	pattern string
	h       runtime.HandlerFunc
}

func NewHandler(d Deps) (http.Handler, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	protect := auth.RequireAuth(d.Gate)
	login := d.Auth.Login
	if d.LoginLimiter != nil {
		login = d.LoginLimiter.Middleware()(login)
	}

	routes := []route{
		{http.MethodPost, "/user", d.Auth.Register},
		{http.MethodPost, "/user/login", login},
		{http.MethodPost, "/user/logout", protect(d.Auth.Logout)},
		{http.MethodGet, "/user/me", protect(d.Auth.Me)},
		{http.MethodGet, "/content", d.Content.List},
		{http.MethodGet, "/content/{id}", d.Content.Get},
		{http.MethodPost, "/content", protect(d.Content.Create)},
		{http.MethodPatch, "/content/{id}", protect(d.Content.Update)},
		{http.MethodDelete, "/content/{id}", protect(d.Content.Delete)},
	}

	gw := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingError))
	for _, rt := range routes {
		if err := gw.HandlePath(rt.method, rt.pattern, httpx.Instrument(rt.pattern)(rt.h)); err != nil {
			return nil, err
		}
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, httpx.StatusBody{Status: "ok"})
	})
	root.Handle("/metrics", obs.MetricsHandler())
	root.Handle("/healthz", obs.HealthHandler(d.Health))
	root.Handle("/", gw)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	var h http.Handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}).Handler(root)
	h = httpx.Logging(log.Named("http"), d.TrustedProxies)(h)
	h = httpx.Recover(log)(h)
	return otelhttp.NewHandler(h, "vidrate.http"), nil
}

func routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, _ *http.Request, status int) {
	switch status {
	case http.StatusNotFound:
		httpx.WriteError(w, status, "not found")
	case http.StatusMethodNotAllowed:
		httpx.WriteError(w, status, "method not allowed")
	default:
		httpx.WriteError(w, status, http.StatusText(status))
	}
}
