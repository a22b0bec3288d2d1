package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Auth session
// ============================================================

func loginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		status, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func logoutHandler(authSvc *service.AuthService, ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := authSvc.Logout(r.Context()); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		ws.DropUploads()
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "signed out"})
	}
}

func sessionHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := authSvc.Status(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
