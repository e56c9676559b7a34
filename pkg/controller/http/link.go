package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type addLinkRequest struct {
	From endpointJSON `json:"from"`
	To   endpointJSON `json:"to"`
}

func toLinkResponses(links []*model.Link) []linkResponse {
	resp := make([]linkResponse, len(links))
	for i, l := range links {
		resp[i] = toLinkResponse(l)
	}
	return resp
}

func listLinksHandler(uc *usecase.LinkUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := uc.ListLinks(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toLinkResponses(links))
	}
}

func addLinkHandler(uc *usecase.LinkUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addLinkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		link, err := uc.AddLink(r.Context(), projectIDParam(r), req.From.toModel(), req.To.toModel())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toLinkResponse(link))
	}
}

func deleteLinkHandler(uc *usecase.LinkUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteLink(r.Context(), projectIDParam(r), model.LinkID(chi.URLParam(r, "linkID"))); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

func clearLinksHandler(uc *usecase.LinkUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.ClearLinks(r.Context(), projectIDParam(r)); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}
