package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/safe"
)

func listArtefactsHandler(uc *usecase.ArtefactUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artefacts, err := uc.ListArtefacts(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		resp := make([]artefactResponse, len(artefacts))
		for i, a := range artefacts {
			resp[i] = toArtefactResponse(a)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func exportArtefactHandler(uc *usecase.ArtefactUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artefact, err := uc.ExportRegister(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toArtefactResponse(artefact))
	}
}

// getArtefactHandler serves the stored Markdown of one register version
func getArtefactHandler(uc *usecase.ArtefactUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "version")
		version, err := strconv.Atoi(raw)
		if err != nil {
			handleError(r.Context(), w, goerr.Wrap(usecase.ErrInvalidInput, "version must be a number", goerr.V("version", raw)))
			return
		}

		data, err := uc.GetArtefact(r.Context(), projectIDParam(r), version)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, data)
	}
}
