package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type createItemRequest struct {
	Table int    `json:"table"`
	Text  string `json:"text"`
}

type updateItemRequest struct {
	Text string `json:"text"`
}

type tablesEnvelope struct {
	Tables []tableResponse `json:"tables"`
}

// listItemsHandler returns the project's items grouped into the eight
// reference tables. Item mutations answer with the same shape since indexes
// shift.
func listItemsHandler(uc *usecase.ItemUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := uc.ListItems(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, tablesEnvelope{Tables: toTablesResponse(items)})
	}
}

func createItemHandler(uc *usecase.ItemUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		projectID := projectIDParam(r)
		if _, err := uc.CreateItem(r.Context(), projectID, types.TableIndex(req.Table), req.Text); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		items, err := uc.ListItems(r.Context(), projectID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, tablesEnvelope{Tables: toTablesResponse(items)})
	}
}

func updateItemHandler(uc *usecase.ItemUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		projectID := projectIDParam(r)
		if _, err := uc.UpdateItem(r.Context(), projectID, model.ItemID(chi.URLParam(r, "itemID")), req.Text); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		items, err := uc.ListItems(r.Context(), projectID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, tablesEnvelope{Tables: toTablesResponse(items)})
	}
}

func deleteItemHandler(uc *usecase.ItemUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := projectIDParam(r)
		if err := uc.DeleteItem(r.Context(), projectID, model.ItemID(chi.URLParam(r, "itemID"))); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		items, err := uc.ListItems(r.Context(), projectID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, tablesEnvelope{Tables: toTablesResponse(items)})
	}
}
