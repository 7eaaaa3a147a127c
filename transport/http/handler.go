// Package http is the JSON transport. Identity arrives
// pre-authenticated in the X-User-ID header; this layer trusts it
// verbatim and the service layer decides what that identity may do.
package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/matryer/way"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkupapp/linkup/auth"
	"github.com/linkupapp/linkup/service"
	"github.com/linkupapp/linkup/types"
)

const userHeader = "X-User-ID"

type Handler struct {
	Service *service.Service
	Logger  *slog.Logger

	handler http.Handler
	once    sync.Once
}

func (h *Handler) init() {
	router := way.NewRouter()

	// Static segments must register before the :activity_id routes.
	router.HandleFunc("POST", "/api/activities", h.createActivity)
	router.HandleFunc("GET", "/api/activities/categories", h.categories)
	router.HandleFunc("GET", "/api/activities/nearby", h.nearbyActivities)
	router.HandleFunc("GET", "/api/activities/match", h.matchActivities)
	router.HandleFunc("GET", "/api/activities/user/:user_id", h.userActivities)
	router.HandleFunc("GET", "/api/activities/:activity_id", h.activity)
	router.HandleFunc("PUT", "/api/activities/:activity_id", h.updateActivity)
	router.HandleFunc("DELETE", "/api/activities/:activity_id", h.cancelActivity)
	router.HandleFunc("POST", "/api/activities/:activity_id/join", h.joinActivity)
	router.HandleFunc("POST", "/api/activities/:activity_id/leave", h.leaveActivity)
	router.HandleFunc("GET", "/api/activities/:activity_id/participants", h.participants)

	router.HandleFunc("GET", "/api/users/:user_id", h.user)

	router.HandleFunc("GET", "/api/connections", h.connections)
	router.HandleFunc("GET", "/api/connections/pending", h.pendingConnections)
	router.HandleFunc("GET", "/api/connections/:connection_id", h.connection)
	router.HandleFunc("POST", "/api/connections/:connection_id/respond", h.respondToConnection)
	router.HandleFunc("POST", "/api/connections/:connection_id/message", h.sendMessage)
	router.HandleFunc("GET", "/api/connections/:connection_id/messages", h.messages)

	router.HandleFunc("GET", "/api/activity-stats", h.activityStats)
	router.HandleFunc("POST", "/api/admin/cleanup", h.cleanup)

	router.Handle("GET", "/metrics", promhttp.Handler())

	h.handler = h.withUser(router)
	h.handler = h.withMetrics(h.handler)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(userHeader); userID != "" {
			ctx := auth.ContextWithUser(r.Context(), types.User{ID: userID})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
