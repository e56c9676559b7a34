package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type composeRequest struct {
	Stage        string          `json:"stage"`
	BaseThreatID string          `json:"base_threat_id"`
	LocalImpact  string          `json:"local_impact"`
	Techniques   []techniqueJSON `json:"techniques"`
}

func (req composeRequest) toUseCase() usecase.ComposeRequest {
	out := usecase.ComposeRequest{
		Stage:        types.Stage(req.Stage),
		BaseThreatID: model.ThreatID(req.BaseThreatID),
		LocalImpact:  req.LocalImpact,
	}
	for _, t := range req.Techniques {
		out.Techniques = append(out.Techniques, t.toModel())
	}
	return out
}

// saveThreatRequest saves either the current composition or, when Text is
// set, a hand-written statement
type saveThreatRequest struct {
	composeRequest
	Text     string `json:"text"`
	ParentID string `json:"parent_id"`
}

type updateThreatRequest struct {
	Statement string `json:"statement"`
}

type rateThreatRequest struct {
	LikelihoodID string `json:"likelihood_id"`
	ImpactID     string `json:"impact_id"`
}

type suggestionResponse struct {
	Technique techniqueJSON `json:"technique"`
	Reason    string        `json:"reason"`
}

func threatIDParam(r *http.Request) model.ThreatID {
	return model.ThreatID(chi.URLParam(r, "threatID"))
}

// composeHandler previews a statement without saving it. Missing inputs are
// reported in the body with complete=false, not as an error.
func composeHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req composeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		composition, err := uc.Compose(r.Context(), projectIDParam(r), req.toUseCase())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCompositionResponse(composition))
	}
}

func listThreatsHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage := types.Stage(r.URL.Query().Get("stage"))
		threats, err := uc.ListThreats(r.Context(), projectIDParam(r), stage)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toThreatResponses(threats))
	}
}

func saveThreatHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveThreatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		var (
			threat *model.Threat
			err    error
		)
		if req.Text != "" {
			threat, err = uc.SaveText(r.Context(), projectIDParam(r), req.Text, types.Stage(req.Stage), model.ThreatID(req.ParentID))
		} else {
			threat, err = uc.SaveComposed(r.Context(), projectIDParam(r), req.toUseCase())
		}
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toThreatResponse(threat))
	}
}

func getThreatHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threat, err := uc.GetThreat(r.Context(), projectIDParam(r), threatIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toThreatResponse(threat))
	}
}

func updateThreatHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateThreatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		threat, err := uc.UpdateText(r.Context(), projectIDParam(r), threatIDParam(r), req.Statement)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toThreatResponse(threat))
	}
}

func deleteThreatHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteThreat(r.Context(), projectIDParam(r), threatIDParam(r)); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

func familyHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		family, err := uc.Family(r.Context(), projectIDParam(r), threatIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toThreatResponses(family))
	}
}

func revisionsHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		revisions, err := uc.ListRevisions(r.Context(), projectIDParam(r), threatIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		resp := make([]revisionResponse, len(revisions))
		for i, rev := range revisions {
			resp[i] = revisionResponse{
				ID:        string(rev.ID),
				Previous:  rev.Previous,
				Current:   rev.Current,
				Patch:     rev.Patch,
				CreatedAt: rev.CreatedAt,
			}
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func rateThreatHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateThreatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		threat, err := uc.RateThreat(r.Context(), projectIDParam(r), threatIDParam(r),
			types.LikelihoodID(req.LikelihoodID), types.ImpactID(req.ImpactID))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toThreatResponse(threat))
	}
}

func suggestTechniquesHandler(uc *usecase.ThreatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions, err := uc.SuggestTechniques(r.Context(), projectIDParam(r), threatIDParam(r))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		resp := make([]suggestionResponse, 0, len(suggestions))
		for _, s := range suggestions {
			if s == nil {
				continue
			}
			resp = append(resp, suggestionResponse{
				Technique: toTechniqueJSON(s.Technique),
				Reason:    s.Reason,
			})
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
