package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/server/models"
)

type serviceResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (a *API) handleListServices(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	list, err := a.vault.ListServices(r.Context(), claims.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]serviceResponse, 0, len(list))
	for _, s := range list {
		out = append(out, serviceResponse{ID: s.ID, URL: s.URL})
	}
	writeJSON(w, http.StatusOK, out)
}

type createServiceRequest struct {
	URL string `json:"url"`
}

func (a *API) handleCreateService(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json", common.ErrValidation))
		return
	}

	svc, err := a.vault.CreateService(r.Context(), claims.AccountID, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serviceResponse{ID: svc.ID, URL: svc.URL})
}

// credentialResponse carries the ciphertext as-is; []byte marshals to base64.
type credentialResponse struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	PasswordCiphertext []byte `json:"passwordCiphertext"`
	DeviceID           string `json:"deviceId,omitempty"`
}

func (a *API) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	list, err := a.vault.ListCredentials(r.Context(), claims.AccountID, serviceID, deviceID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]credentialResponse, 0, len(list))
	for _, c := range list {
		out = append(out, credentialResponse{
			ID:                 c.ID,
			Username:           c.Username,
			PasswordCiphertext: c.PasswordCiphertext,
			DeviceID:           c.DeviceID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type addCredentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	var req addCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json", common.ErrValidation))
		return
	}

	cred, err := a.vault.AddCredential(r.Context(), claims.AccountID, serviceID, req.Username, req.Password, deviceID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialResponse{
		ID:                 cred.ID,
		Username:           cred.Username,
		PasswordCiphertext: cred.PasswordCiphertext,
		DeviceID:           cred.DeviceID,
	})
}

type authenticatorResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	SecretCiphertext []byte `json:"secretCiphertext"`
	Digits           int    `json:"digits"`
	Period           int    `json:"period"`
	Algorithm        string `json:"algorithm"`
	DeviceID         string `json:"deviceId,omitempty"`
}

func toAuthenticatorResponse(entry *models.Authenticator) authenticatorResponse {
	return authenticatorResponse{
		ID:               entry.ID,
		Name:             entry.Name,
		SecretCiphertext: entry.SecretCiphertext,
		Digits:           entry.Digits,
		Period:           entry.Period,
		Algorithm:        entry.Algorithm,
		DeviceID:         entry.DeviceID,
	}
}

func (a *API) handleListAuthenticators(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	list, err := a.vault.ListAuthenticators(r.Context(), claims.AccountID, serviceID, deviceID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]authenticatorResponse, 0, len(list))
	for _, entry := range list {
		out = append(out, toAuthenticatorResponse(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

type addAuthenticatorRequest struct {
	Name      string `json:"name"`
	Secret    string `json:"secret"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Algorithm string `json:"algorithm"`
}

func (a *API) handleAddAuthenticator(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	var req addAuthenticatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json", common.ErrValidation))
		return
	}

	entry := &models.Authenticator{
		Name:      req.Name,
		Digits:    req.Digits,
		Period:    req.Period,
		Algorithm: req.Algorithm,
	}
	stored, err := a.vault.AddAuthenticator(r.Context(), claims.AccountID, serviceID, entry, req.Secret, deviceID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthenticatorResponse(stored))
}
