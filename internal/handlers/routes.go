// Package handlers exposes the engine as huma operations on a chi router.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/garage-events-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var securedBy = []map[string][]string{
	{"cookieAuth": {}},
	{"bearerAuth": {}},
	{"apiKeyAuth": {}},
}

func secured(o *huma.Operation) {
	o.Security = securedBy
}

// RegisterRoutes mounts every operation on r. Each operation runs under a
// context bounded by timeout.
func RegisterRoutes(
	r *chi.Mux,
	timeout time.Duration,
	authHandler *auth.AuthHandler,
	eventHandler *EventHandler,
	registrationHandler *RegistrationHandler,
	apiKeyHandler *APIKeyHandler,
) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authHandler.SlidingSession)

	config := huma.DefaultConfig("Garage Events API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	// Profile
	huma.Get(api, "/me", bounded(timeout, authHandler.HandleMe), secured)
	huma.Patch(api, "/me", bounded(timeout, authHandler.HandleUpdateMe), secured)
	huma.Get(api, "/me/registrations", bounded(timeout, registrationHandler.HandleListMine), secured)
	huma.Get(api, "/users/{id}/registrations", bounded(timeout, registrationHandler.HandleListForUser), secured)

	// Events
	huma.Get(api, "/events", bounded(timeout, eventHandler.HandleList))
	huma.Get(api, "/events/types", eventHandler.HandleTypes)
	huma.Get(api, "/events/{id}", bounded(timeout, eventHandler.HandleGet))
	huma.Register(api, huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Create an event",
		DefaultStatus: http.StatusCreated,
		Security:      securedBy,
	}, bounded(timeout, eventHandler.HandleCreate))
	huma.Patch(api, "/events/{id}", bounded(timeout, eventHandler.HandleUpdate), secured)
	huma.Register(api, huma.Operation{
		OperationID:   "delete-event",
		Method:        http.MethodDelete,
		Path:          "/events/{id}",
		Summary:       "Delete an event with its registrations",
		DefaultStatus: http.StatusNoContent,
		Security:      securedBy,
	}, bounded(timeout, eventHandler.HandleDelete))

	// Registrations
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/events/{id}/registrations",
		Summary:       "Register for an event",
		DefaultStatus: http.StatusCreated,
		Security:      securedBy,
	}, bounded(timeout, registrationHandler.HandleRegister))
	huma.Get(api, "/events/{id}/registrations", bounded(timeout, registrationHandler.HandleListForEvent), secured)
	huma.Get(api, "/registrations/{id}", bounded(timeout, registrationHandler.HandleGet), secured)
	huma.Patch(api, "/registrations/{id}", bounded(timeout, registrationHandler.HandleUpdate), secured)
	huma.Delete(api, "/registrations/{id}", bounded(timeout, registrationHandler.HandleCancel), secured)
	huma.Get(api, "/registrations/{id}/history", bounded(timeout, registrationHandler.HandleHistory), secured)

	// API keys
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/api-keys",
		Summary:       "Create an API key",
		DefaultStatus: http.StatusCreated,
		Security:      securedBy,
	}, bounded(timeout, apiKeyHandler.HandleCreate))
	huma.Get(api, "/api-keys", bounded(timeout, apiKeyHandler.HandleList), secured)
	huma.Register(api, huma.Operation{
		OperationID:   "delete-api-key",
		Method:        http.MethodDelete,
		Path:          "/api-keys/{id}",
		Summary:       "Delete an API key",
		DefaultStatus: http.StatusNoContent,
		Security:      securedBy,
	}, bounded(timeout, apiKeyHandler.HandleDelete))

	return api
}

// bounded runs fn under a context that expires after d.
func bounded[I, O any](d time.Duration, fn func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		if d <= 0 {
			return fn(ctx, input)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return fn(ctx, input)
	}
}
