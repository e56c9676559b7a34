package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

// controlRequest fields left out of the body are not changed on update
type controlRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	OwnerIDs    []string `json:"owner_ids"`
	URL         *string  `json:"url"`
	Status      *string  `json:"status"`
}

func (req controlRequest) toInput() usecase.ControlInput {
	input := usecase.ControlInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerIDs:    req.OwnerIDs,
		URL:         req.URL,
	}
	if req.Status != nil {
		status := types.ControlStatus(*req.Status)
		input.Status = &status
	}
	return input
}

type linkControlRequest struct {
	ControlID string `json:"control_id"`
}

type linkControlResponse struct {
	Control controlResponse  `json:"control"`
	Threats []threatResponse `json:"threats"`
}

func controlIDParam(r *http.Request) model.ControlID {
	return model.ControlID(chi.URLParam(r, "controlID"))
}

func listControlsHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		controls, err := uc.ListControls(r.Context(), projectIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toControlResponses(controls))
	}
}

func createControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req controlRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		control, err := uc.CreateControl(r.Context(), projectIDParam(r), req.toInput())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toControlResponse(control))
	}
}

func getControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		control, err := uc.GetControl(r.Context(), projectIDParam(r), controlIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toControlResponse(control))
	}
}

func updateControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req controlRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		control, err := uc.UpdateControl(r.Context(), projectIDParam(r), controlIDParam(r), req.toInput())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toControlResponse(control))
	}
}

func deleteControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteControl(r.Context(), projectIDParam(r), controlIDParam(r)); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

func listThreatControlsHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		controls, err := uc.ListControlsByThreat(r.Context(), projectIDParam(r), threatIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toControlResponses(controls))
	}
}

// linkControlHandler links a control to the threat and the rest of its
// family, answering with every threat that now carries the control
func linkControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linkControlRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		ctx := r.Context()
		projectID := projectIDParam(r)
		controlID := model.ControlID(req.ControlID)

		family, err := uc.LinkControl(ctx, projectID, threatIDParam(r), controlID)
		if err != nil {
			handleError(ctx, w, err)
			return
		}
		control, err := uc.GetControl(ctx, projectID, controlID)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, linkControlResponse{
			Control: toControlResponse(control),
			Threats: toThreatResponses(family),
		})
	}
}

func unlinkControlHandler(uc *usecase.ControlUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.UnlinkControl(r.Context(), projectIDParam(r), threatIDParam(r), controlIDParam(r)); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}
