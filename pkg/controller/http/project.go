package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func projectIDParam(r *http.Request) model.ProjectID {
	return model.ProjectID(chi.URLParam(r, "projectID"))
}

func listProjectsHandler(uc *usecase.ProjectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := uc.ListProjects(r.Context())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		resp := make([]projectResponse, len(projects))
		for i, p := range projects {
			resp[i] = toProjectResponse(p)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func createProjectHandler(uc *usecase.ProjectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		project, err := uc.CreateProject(r.Context(), req.Name, req.Description)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toProjectResponse(project))
	}
}

func getProjectHandler(uc *usecase.ProjectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := uc.GetProject(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toProjectResponse(project))
	}
}

func updateProjectHandler(uc *usecase.ProjectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		project, err := uc.UpdateProject(r.Context(), projectIDParam(r), req.Name, req.Description)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toProjectResponse(project))
	}
}

func deleteProjectHandler(uc *usecase.ProjectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteProject(r.Context(), projectIDParam(r)); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}
