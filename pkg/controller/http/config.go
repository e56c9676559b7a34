package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type levelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Score       int    `json:"score"`
}

type subTechniqueResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type catalogTechniqueResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	SubTechniques []subTechniqueResponse `json:"sub_techniques"`
}

type configResponse struct {
	Likelihood []levelResponse            `json:"likelihood"`
	Impact     []levelResponse            `json:"impact"`
	Techniques []catalogTechniqueResponse `json:"techniques"`
	Tables     []tableInfo                `json:"tables"`
	Stages     []string                   `json:"stages"`
}

// configHandler serves the rating levels, the technique catalog and the
// table layout that clients need to render the builder
func configHandler(cfg *config.RiskConfig) http.HandlerFunc {
	resp := configResponse{
		Likelihood: make([]levelResponse, 0, len(cfg.Likelihood)),
		Impact:     make([]levelResponse, 0, len(cfg.Impact)),
		Techniques: make([]catalogTechniqueResponse, 0, len(cfg.Techniques)),
		Tables:     make([]tableInfo, 0, types.TableCount),
	}
	for _, l := range cfg.Likelihood {
		resp.Likelihood = append(resp.Likelihood, levelResponse{ID: l.ID, Name: l.Name, Description: l.Description, Score: l.Score})
	}
	for _, i := range cfg.Impact {
		resp.Impact = append(resp.Impact, levelResponse{ID: i.ID, Name: i.Name, Description: i.Description, Score: i.Score})
	}
	for _, t := range cfg.Techniques {
		entry := catalogTechniqueResponse{
			ID:            t.ID,
			Name:          t.Name,
			Description:   t.Description,
			SubTechniques: make([]subTechniqueResponse, 0, len(t.Subs)),
		}
		for _, sub := range t.Subs {
			entry.SubTechniques = append(entry.SubTechniques, subTechniqueResponse{ID: sub.ID, Name: sub.Name})
		}
		resp.Techniques = append(resp.Techniques, entry)
	}
	for _, table := range types.AllTables() {
		resp.Tables = append(resp.Tables, toTableInfo(table))
	}
	for _, stage := range types.AllStages() {
		resp.Stages = append(resp.Stages, stage.String())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

// stageTablesHandler lists the tables whose items take part in a stage
func stageTablesHandler() http.HandlerFunc {
	type response struct {
		Stage  string      `json:"stage"`
		Tables []tableInfo `json:"tables"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		stage, err := types.ParseStage(chi.URLParam(r, "stage"))
		if err != nil {
			handleError(r.Context(), w, goerr.Wrap(usecase.ErrInvalidInput, err.Error()))
			return
		}

		active := stage.ActiveTables()
		resp := response{
			Stage:  stage.String(),
			Tables: make([]tableInfo, 0, len(active)),
		}
		for _, table := range active {
			resp.Tables = append(resp.Tables, toTableInfo(table))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
