package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelth-com/sowflow/internal/config"
	"github.com/xelth-com/sowflow/internal/database"
	"github.com/xelth-com/sowflow/internal/middleware"
	"github.com/xelth-com/sowflow/internal/notify"
	"github.com/xelth-com/sowflow/internal/workflow"
)

// Router wraps the mux router and the service collaborators
type Router struct {
	*mux.Router
	db     *database.DB
	engine *workflow.Engine
	hub    *notify.Hub
	cfg    *config.Config
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, engine *workflow.Engine, hub *notify.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		engine: engine,
		hub:    hub,
		cfg:    cfg,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Workflow event feed (token via query param, see serveWS)
	r.HandleFunc("/ws", r.serveWS).Methods("GET")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.HandleFunc("/stages", r.listStages).Methods("GET")

	api.HandleFunc("/sows", r.createSOW).Methods("POST")
	api.HandleFunc("/sows", r.listSOWs).Methods("GET")
	api.HandleFunc("/sows/diff", r.diffSOWs).Methods("GET")
	api.HandleFunc("/sows/{id}", r.getSOW).Methods("GET")
	api.HandleFunc("/sows/{id}", r.updateSOW).Methods("PUT")
	api.HandleFunc("/sows/{id}/revisions", r.listRevisions).Methods("GET")
	api.HandleFunc("/sows/{id}/requirements", r.stageRequirements).Methods("GET")
	api.HandleFunc("/sows/{id}/approvals", r.listApprovals).Methods("GET")
	api.HandleFunc("/sows/{id}/changelog", r.listChangelog).Methods("GET")
	api.HandleFunc("/sows/{id}/history.pdf", r.exportHistory).Methods("GET")
	api.HandleFunc("/sows/{id}/submit", r.submitSOW).Methods("POST")
	api.HandleFunc("/sows/{id}/recall", r.recallSOW).Methods("POST")
	api.HandleFunc("/sows/{id}/revise", r.reviseSOW).Methods("POST")

	api.HandleFunc("/approvals/{id}/decide", r.decideApproval).Methods("POST")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// serveWS upgrades to the websocket event feed. Browsers cannot set headers
// on websocket dials, so the token travels as a query parameter.
func (r *Router) serveWS(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	identity, err := identityFromToken(token, r.cfg.JWTSecret)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}
	notify.ServeWS(r.hub, w, req, identity.ActorID)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondWorkflowError maps the engine's error taxonomy onto HTTP statuses.
// Workflow errors are surfaced verbatim; anything else is an internal error
// logged with context.
func respondWorkflowError(w http.ResponseWriter, err error) {
	var (
		notFound      *workflow.NotFoundError
		invalidState  *workflow.InvalidStateError
		permission    *workflow.PermissionError
		comment       *workflow.CommentRequiredError
		alreadyAppr   *workflow.AlreadyApprovedError
		alreadySubm   *workflow.AlreadySubmittedError
		concurrentRev *workflow.ConcurrentRevisionError
		unrelated     *workflow.UnrelatedRevisionsError
	)

	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &permission):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &comment):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unrelated):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidState),
		errors.As(err, &alreadyAppr),
		errors.As(err, &alreadySubm),
		errors.As(err, &concurrentRev):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("workflow operation failed")
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}
