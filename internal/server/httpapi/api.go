// Package httpapi is the server's external surface: JSON over HTTP, with the
// session delivered as an http-only cookie. Handlers stay thin; all semantics
// live in the services layer.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avilks/passvault/internal/logging"
	"github.com/avilks/passvault/internal/server/services"
)

type API struct {
	accounts    *services.AccountService
	vault       *services.VaultService
	attachments *services.AttachmentService
	jwtSecret   []byte
	logger      logging.Logger
}

func New(accounts *services.AccountService, vault *services.VaultService, attachments *services.AttachmentService, jwtSecret []byte, logger logging.Logger) *API {
	return &API{
		accounts:    accounts,
		vault:       vault,
		attachments: attachments,
		jwtSecret:   jwtSecret,
		logger:      logger.With("module", "httpapi"),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Get("/verify", a.handleVerify)
		r.Post("/login", a.handleLogin)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(a.sessionMiddleware)

		r.Get("/services", a.handleListServices)
		r.Post("/services", a.handleCreateService)

		r.Route("/services/{serviceID}", func(r chi.Router) {
			r.Get("/passwords", a.handleListCredentials)
			r.Post("/passwords", a.handleAddCredential)
			r.Get("/authenticators", a.handleListAuthenticators)
			r.Post("/authenticators", a.handleAddAuthenticator)
			r.Get("/attachments", a.handleListAttachments)
			r.Post("/attachments", a.handleCreateAttachment)
			r.Get("/attachments/{attachmentID}/url", a.handleAttachmentURL)
		})
	})

	return r
}
