// Package router wires the HTTP surface: route registration, request
// decoding, and the mapping from the service's typed errors to HTTP
// statuses.
package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tinylink/internal/auth"
	"tinylink/internal/db/storage"
	"tinylink/internal/gzippedhttp"
	"tinylink/internal/ipchecker"
	"tinylink/internal/keygen"
	"tinylink/internal/logger"
	"tinylink/internal/models"
	"tinylink/internal/service"
)

type sessionManager interface {
	Authenticate(h http.Handler) http.Handler
	IssueSession(response http.ResponseWriter, userID string) error
	ClearSession(response http.ResponseWriter)
}

// Router carries the handler dependencies.
type Router struct {
	service   *service.Service
	auth      sessionManager
	ipChecker *ipchecker.IPChecker
	validator *validator.Validate
}

// New assembles the chi mux with the middleware chain and all routes.
func New(
	theService *service.Service,
	theAuth sessionManager,
	theIPChecker *ipchecker.IPChecker,
) *chi.Mux {
	theRouter := &Router{
		service:   theService,
		auth:      theAuth,
		ipChecker: theIPChecker,
		validator: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
		theAuth.Authenticate,
	)

	router.Post(`/api/user/register`, theRouter.PostAPIUserRegister)
	router.Post(`/api/user/login`, theRouter.PostAPIUserLogin)
	router.Post(`/api/user/logout`, theRouter.PostAPIUserLogout)

	router.Post(`/`, theRouter.PostShorten)
	router.Post(`/api/shorten`, theRouter.PostAPIShorten)
	router.Get(`/{code}`, theRouter.GetRedirectToFullURL)

	router.Get(`/api/user/urls`, theRouter.GetAPIUserURLs)
	router.Get(`/api/user/urls/{code}`, theRouter.GetAPIUserURL)
	router.Put(`/api/user/urls/{code}`, theRouter.PutAPIUserURL)
	router.Delete(`/api/user/urls/{code}`, theRouter.DeleteAPIUserURL)

	router.Get(`/ping`, theRouter.GetPing)
	router.Get(`/api/internal/stats`, theRouter.GetAPIInternalStats)

	return router
}

// PostAPIUserRegister creates an account and opens a session for it.
func (r *Router) PostAPIUserRegister(response http.ResponseWriter, request *http.Request) {
	var registerRequest models.RegisterRequest
	if !r.decodeAndValidate(response, request, &registerRequest) {
		return
	}

	usr, err := r.service.Register(request.Context(), registerRequest.Email, registerRequest.Password)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	if err := r.auth.IssueSession(response, usr.ID); err != nil {
		logger.Log.Debugln("Error calling the `r.auth.IssueSession()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusCreated, map[string]string{
		"id":    usr.ID,
		"email": usr.Email,
	})
}

// PostAPIUserLogin verifies credentials and opens a session. Both login
// failure kinds answer with the same status and body, so a hostile caller
// cannot probe which emails are registered.
func (r *Router) PostAPIUserLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.RegisterRequest
	if !r.decodeAndValidate(response, request, &loginRequest) {
		return
	}

	usr, err := r.service.Authenticate(request.Context(), loginRequest.Email, loginRequest.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(response, "invalid email or password", http.StatusUnauthorized)
			return
		}
		r.writeServiceError(response, err)
		return
	}

	if err := r.auth.IssueSession(response, usr.ID); err != nil {
		logger.Log.Debugln("Error calling the `r.auth.IssueSession()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, map[string]string{
		"id":    usr.ID,
		"email": usr.Email,
	})
}

// PostAPIUserLogout drops the caller's session cookie.
func (r *Router) PostAPIUserLogout(response http.ResponseWriter, request *http.Request) {
	r.auth.ClearSession(response)
	response.WriteHeader(http.StatusNoContent)
}

// PostShorten is the legacy text endpoint: the body is free-form text the
// first http(s) URL is extracted from.
func (r *Router) PostShorten(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(request.Body)
	if err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	urlToShort, err := r.service.ExtractFirstURL(string(body))
	if err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	shortURL, err := r.service.ShortenURL(request.Context(), urlToShort, callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	response.WriteHeader(http.StatusCreated)
	if _, err := response.Write([]byte(shortURL)); err != nil {
		logger.Log.Debugln("Error writing the response body: ", zap.Error(err))
	}
}

// PostAPIShorten is the JSON shorten endpoint.
func (r *Router) PostAPIShorten(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var shortenRequest models.ShortenRequest
	if !r.decodeAndValidate(response, request, &shortenRequest) {
		return
	}

	shortURL, err := r.service.ShortenURL(request.Context(), shortenRequest.URL, callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.ShortenResponse{Result: shortURL})
}

// GetRedirectToFullURL resolves a short code publicly. No session, no
// ownership: short links are followable by anyone.
func (r *Router) GetRedirectToFullURL(response http.ResponseWriter, request *http.Request) {
	code := chi.URLParam(request, "code")

	full, err := r.service.GetOriginalURL(request.Context(), code)
	if err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}
	if full == "" {
		response.WriteHeader(http.StatusNotFound)
		return
	}

	http.Redirect(response, request, full, http.StatusTemporaryRedirect)
}

// GetAPIUserURLs lists the caller's own links. Zero links answer with an
// empty JSON array, not an error and not null.
func (r *Router) GetAPIUserURLs(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	urls, err := r.service.GetUserURLs(request.Context(), callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, urls)
}

// GetAPIUserURL returns a single link to its owner.
func (r *Router) GetAPIUserURL(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	lnk, err := r.service.GetUserLink(request.Context(), chi.URLParam(request, "code"), callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.UserURL{
		Code:        lnk.Code,
		ShortURL:    r.service.GetShortURL(lnk.Code),
		OriginalURL: lnk.TargetURL,
	})
}

// PutAPIUserURL rewrites the target of a link owned by the caller.
func (r *Router) PutAPIUserURL(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var updateRequest models.UpdateURLRequest
	if !r.decodeAndValidate(response, request, &updateRequest) {
		return
	}

	err := r.service.UpdateUserLink(request.Context(), chi.URLParam(request, "code"), updateRequest.URL, callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// DeleteAPIUserURL removes a link owned by the caller.
func (r *Router) DeleteAPIUserURL(response http.ResponseWriter, request *http.Request) {
	callerID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	err := r.service.DeleteUserLink(request.Context(), chi.URLParam(request, "code"), callerID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// GetPing reports storage health.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.service.Ping(request.Context()); err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetAPIInternalStats answers store totals to callers from the trusted
// subnet only.
func (r *Router) GetAPIInternalStats(response http.ResponseWriter, request *http.Request) {
	if r.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := r.ipChecker.GetClientIP(request)
	if err != nil || !r.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := r.service.GetInternalStats(request.Context())
	if err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

func (r *Router) decodeAndValidate(response http.ResponseWriter, request *http.Request, target interface{}) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := r.validator.Struct(target); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (r *Router) writeServiceError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(response, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrEmailTaken):
		http.Error(response, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrUnauthenticated):
		response.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		response.WriteHeader(http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		response.WriteHeader(http.StatusNotFound)
	case errors.Is(err, keygen.ErrAttemptsExceeded):
		http.Error(response, err.Error(), http.StatusInternalServerError)
	default:
		logger.Log.Debugln("Unexpected service error: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response body: ", zap.Error(err))
	}
}
