// Package handlers translates HTTP requests into calls against the
// exchange service and serializes results in the service's response
// envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"contextdb/pkg/exchange"
	"contextdb/pkg/logger"
	"contextdb/pkg/models"
	"contextdb/pkg/store"
	"contextdb/pkg/utils"
	"contextdb/pkg/validation"
)

// Response is the wire envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type API struct {
	svc *exchange.Service
}

func New(svc *exchange.Service) *API {
	return &API{svc: svc}
}

// Register mounts all conversational endpoints on the router.
func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/", a.root).Methods(http.MethodGet)
	r.HandleFunc("/v1/query", a.submitQuery).Methods(http.MethodPost)
	r.HandleFunc("/v1/history/{tenantId}/{userId}", a.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/context/{tenantId}/{userId}", a.getContext).Methods(http.MethodGet)
	r.HandleFunc("/v1/generate-context", a.generateContext).Methods(http.MethodPost)
}

func (a *API) root(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, Response{Success: true, Message: "contextdb is running"})
}

type queryRequest struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
	Query    string `json:"query"`
	UserName string `json:"userName,omitempty"`
}

func (a *API) submitQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key := models.IdentityKey{TenantID: req.TenantID, UserID: req.UserID}
	if err := validation.ValidateIdentity(key); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.svc.SubmitExchange(r.Context(), key, req.Query, req.UserName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logger.Info("query_processed", "ident", key.Ident())
	_ = utils.JSONWrite(w, http.StatusOK, Response{Success: true, Message: "Query processed successfully", Data: res})
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := identityFromPath(w, r)
	if !ok {
		return
	}
	snap, err := a.svc.GetHistory(key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, Response{Success: true, Message: "Chat history retrieved successfully", Data: snap})
}

func (a *API) getContext(w http.ResponseWriter, r *http.Request) {
	key, ok := identityFromPath(w, r)
	if !ok {
		return
	}
	snap, err := a.svc.GetContext(key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, Response{Success: true, Message: "Context retrieved successfully", Data: snap})
}

type contextRequest struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

func (a *API) generateContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key := models.IdentityKey{TenantID: req.TenantID, UserID: req.UserID}
	if err := validation.ValidateIdentity(key); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := a.svc.ForceRegenerateContext(key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, Response{Success: true, Message: "Context generated successfully", Data: map[string]string{"summary": summary}})
}

func identityFromPath(w http.ResponseWriter, r *http.Request) (models.IdentityKey, bool) {
	vars := mux.Vars(r)
	key := models.IdentityKey{TenantID: vars["tenantId"], UserID: vars["userId"]}
	if err := validation.ValidateIdentity(key); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return models.IdentityKey{}, false
	}
	return key, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		utils.JSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	utils.JSONError(w, http.StatusInternalServerError, err.Error())
}
