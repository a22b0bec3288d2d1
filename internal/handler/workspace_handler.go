package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Workspaces
// ============================================================

func createWorkspaceHandler(ws *service.WorkspaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, ws.Create())
	}
}

func listWorkspacesHandler(ws *service.WorkspaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := ws.List()
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.WorkspaceInfo]{Data: items, Total: len(items)})
	}
}

func getWorkspaceHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d.Info())
	}
}

func deleteWorkspaceHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := ws.Delete(id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "workspace deleted", ID: id})
	}
}

func resetWorkspaceHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		d.Reset()
		writeJSON(w, http.StatusOK, d.Info())
	}
}

// ============================================================
// Loading
// ============================================================

func loadCSVHandler(ws *service.WorkspaceService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/workspaces/{id}/dataset")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("workspace.id", id))

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "csv body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}

		res, err := ws.LoadCSV(ctx, id, string(body))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func reloadDatasetHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/workspaces/{id}/dataset/{datasetId}")
		defer span.End()

		id := chi.URLParam(r, "id")
		datasetID := chi.URLParam(r, "datasetId")
		span.SetAttributes(attribute.String("workspace.id", id), attribute.String("dataset.id", datasetID))

		res, err := ws.ReloadDataset(ctx, id, datasetID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

var uploadFields = []string{domain.FieldTimeEntries, domain.FieldIncomes, domain.FieldProjects}

func uploadHandler(ws *service.WorkspaceService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/workspaces/{id}/upload")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("workspace.id", id))

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		req := &domain.MergeRequest{}
		for _, field := range uploadFields {
			file, header, err := r.FormFile(field)
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid file field "+field)
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "could not read file "+field)
				return
			}
			req.Files = append(req.Files, domain.UploadFile{
				Field:    field,
				Filename: header.Filename,
				Content:  content,
			})
		}

		res, err := ws.Upload(ctx, id, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listDatasetsHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets")
		defer span.End()

		items, err := ws.ListDatasets(ctx, parseLimit(r, 50))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.DatasetInfo]{Data: items, Total: len(items)})
	}
}

func deleteDatasetHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/datasets/{datasetId}")
		defer span.End()

		id := chi.URLParam(r, "datasetId")
		span.SetAttributes(attribute.String("dataset.id", id))

		if err := ws.DeleteDataset(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "dataset deleted", ID: id})
	}
}

// ============================================================
// Controls
// ============================================================

type stateResponse struct {
	Phase domain.Phase      `json:"phase"`
	State domain.ChartState `json:"state"`
}

func getStateHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		state, phase, err := d.State()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse{Phase: phase, State: state})
	}
}

func patchStateHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "PATCH /v1/workspaces/{id}/state")
		defer span.End()

		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var patch domain.StatePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := d.Update(patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		_, phase, _ := d.State()
		writeJSON(w, http.StatusOK, stateResponse{Phase: phase, State: state})
	}
}
