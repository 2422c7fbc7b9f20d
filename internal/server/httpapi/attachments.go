package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avilks/passvault/internal/common"
)

type attachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

func (a *API) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	list, err := a.attachments.ListAttachments(r.Context(), claims.AccountID, serviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]attachmentResponse, 0, len(list))
	for _, att := range list {
		out = append(out, attachmentResponse{ID: att.ID, FileName: att.FileName})
	}
	writeJSON(w, http.StatusOK, out)
}

type createAttachmentRequest struct {
	FileName string `json:"fileName"`
}

type createAttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	UploadURL string `json:"uploadUrl"`
}

func (a *API) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	serviceID := chi.URLParam(r, "serviceID")

	var req createAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json", common.ErrValidation))
		return
	}

	att, uploadURL, err := a.attachments.CreateAttachment(r.Context(), claims.AccountID, serviceID, req.FileName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createAttachmentResponse{
		ID:        att.ID,
		FileName:  att.FileName,
		UploadURL: uploadURL,
	})
}

func (a *API) handleAttachmentURL(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	attachmentID := chi.URLParam(r, "attachmentID")

	url, err := a.attachments.GetDownloadURL(r.Context(), claims.AccountID, attachmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
