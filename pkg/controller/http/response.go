package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/statement"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/usecase"
	"github.com/secmon-lab/threatline/pkg/utils/errutil"
	"github.com/secmon-lab/threatline/pkg/utils/safe"
)

const maxRequestBody = 1 << 20

type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// decodeJSON reads the request body into v. Malformed bodies are invalid
// input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer safe.Close(r.Context(), body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(usecase.ErrInvalidInput, "request body is required")
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed request body", goerr.V("error", err.Error()))
	}
	return nil
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, usecase.ErrProjectNotFound):
		return http.StatusNotFound
	case usecase.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrIncompleteStatement):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}

type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type tableInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toTableInfo(t types.TableIndex) tableInfo {
	return tableInfo{
		Index: int(t),
		Name:  t.Name(),
		Role:  string(t.Role()),
	}
}

type itemResponse struct {
	ID    string `json:"id"`
	Table int    `json:"table"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type tableResponse struct {
	tableInfo
	Items []itemResponse `json:"items"`
}

// toTablesResponse groups items per table. Index is the rank used by links.
func toTablesResponse(items []*model.TableItem) []tableResponse {
	tables := make([]tableResponse, 0, types.TableCount)
	for _, table := range types.AllTables() {
		tables = append(tables, tableResponse{
			tableInfo: toTableInfo(table),
			Items:     []itemResponse{},
		})
	}

	sorted := make([]*model.TableItem, len(items))
	copy(sorted, items)
	model.SortItems(sorted)
	for _, item := range sorted {
		if !item.Table.IsValid() {
			continue
		}
		t := &tables[item.Table]
		t.Items = append(t.Items, itemResponse{
			ID:    item.ID.String(),
			Table: int(item.Table),
			Index: len(t.Items),
			Text:  item.Text,
		})
	}
	return tables
}

type endpointJSON struct {
	Table int `json:"table"`
	Item  int `json:"item"`
}

func (e endpointJSON) toModel() model.Endpoint {
	return model.Endpoint{Table: types.TableIndex(e.Table), Item: e.Item}
}

type linkResponse struct {
	ID        string       `json:"id"`
	From      endpointJSON `json:"from"`
	To        endpointJSON `json:"to"`
	CreatedAt time.Time    `json:"created_at"`
}

func toLinkResponse(l *model.Link) linkResponse {
	return linkResponse{
		ID:        l.ID.String(),
		From:      endpointJSON{Table: int(l.Table1), Item: l.Item1},
		To:        endpointJSON{Table: int(l.Table2), Item: l.Item2},
		CreatedAt: l.CreatedAt,
	}
}

type techniqueJSON struct {
	TechniqueID      string `json:"technique_id"`
	TechniqueName    string `json:"technique_name,omitempty"`
	SubTechniqueID   string `json:"sub_technique_id,omitempty"`
	SubTechniqueName string `json:"sub_technique_name,omitempty"`
	Label            string `json:"label,omitempty"`
}

func toTechniqueJSON(t model.AttackTechnique) techniqueJSON {
	return techniqueJSON{
		TechniqueID:      t.TechniqueID,
		TechniqueName:    t.TechniqueName,
		SubTechniqueID:   t.SubTechniqueID,
		SubTechniqueName: t.SubTechniqueName,
		Label:            t.Label(),
	}
}

func (t techniqueJSON) toModel() model.AttackTechnique {
	return model.AttackTechnique{
		TechniqueID:      t.TechniqueID,
		TechniqueName:    t.TechniqueName,
		SubTechniqueID:   t.SubTechniqueID,
		SubTechniqueName: t.SubTechniqueName,
	}
}

type componentsResponse struct {
	Article            string          `json:"article,omitempty"`
	Actor              string          `json:"actor,omitempty"`
	Vector             string          `json:"vector,omitempty"`
	Stride             string          `json:"stride,omitempty"`
	Asset              string          `json:"asset,omitempty"`
	LocalObjective     string          `json:"local_objective,omitempty"`
	StrategicObjective string          `json:"strategic_objective,omitempty"`
	AdversarialAction  string          `json:"adversarial_action,omitempty"`
	LocalImpact        string          `json:"local_impact,omitempty"`
	CIANA              string          `json:"ciana,omitempty"`
	Techniques         []techniqueJSON `json:"techniques,omitempty"`
	Base               string          `json:"base,omitempty"`
}

func toComponentsResponse(c *model.StatementComponents) *componentsResponse {
	if c == nil {
		return nil
	}
	resp := &componentsResponse{
		Article:            c.Article,
		Actor:              c.Actor,
		Vector:             c.Vector,
		Stride:             c.Stride,
		Asset:              c.Asset,
		LocalObjective:     c.LocalObjective,
		StrategicObjective: c.StrategicObjective,
		AdversarialAction:  c.AdversarialAction,
		LocalImpact:        c.LocalImpact,
		CIANA:              c.CIANA,
		Base:               c.Base,
	}
	for _, t := range c.Techniques {
		resp.Techniques = append(resp.Techniques, toTechniqueJSON(t))
	}
	return resp
}

type ratingResponse struct {
	LikelihoodID string `json:"likelihood_id"`
	ImpactID     string `json:"impact_id"`
	Score        int    `json:"score"`
}

type threatResponse struct {
	ID         string              `json:"id"`
	Statement  string              `json:"statement"`
	Stage      string              `json:"stage"`
	ParentID   string              `json:"parent_id,omitempty"`
	Components *componentsResponse `json:"components,omitempty"`
	Rating     *ratingResponse     `json:"rating,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func toThreatResponse(t *model.Threat) threatResponse {
	resp := threatResponse{
		ID:         t.ID.String(),
		Statement:  t.Statement,
		Stage:      t.Stage.String(),
		ParentID:   t.ParentID.String(),
		Components: toComponentsResponse(t.Components),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Rating != nil {
		resp.Rating = &ratingResponse{
			LikelihoodID: t.Rating.LikelihoodID.String(),
			ImpactID:     t.Rating.ImpactID.String(),
			Score:        t.Rating.Score,
		}
	}
	return resp
}

func toThreatResponses(threats []*model.Threat) []threatResponse {
	resp := make([]threatResponse, len(threats))
	for i, t := range threats {
		resp[i] = toThreatResponse(t)
	}
	return resp
}

type conflictResponse struct {
	Role     string `json:"role"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type compositionResponse struct {
	Statement  string              `json:"statement"`
	Complete   bool                `json:"complete"`
	Components *componentsResponse `json:"components,omitempty"`
	Conflicts  []conflictResponse  `json:"conflicts"`
}

func toCompositionResponse(c *statement.Composition) compositionResponse {
	resp := compositionResponse{
		Statement:  c.Statement,
		Complete:   c.Complete,
		Components: toComponentsResponse(c.Components),
		Conflicts:  []conflictResponse{},
	}
	for _, conflict := range c.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictResponse{
			Role:     string(conflict.Role),
			Previous: conflict.Previous,
			Current:  conflict.Current,
		})
	}
	return resp
}

type revisionResponse struct {
	ID        string    `json:"id"`
	Previous  string    `json:"previous"`
	Current   string    `json:"current"`
	Patch     string    `json:"patch"`
	CreatedAt time.Time `json:"created_at"`
}

type controlResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerIDs    []string  `json:"owner_ids"`
	URL         string    `json:"url,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toControlResponse(c *model.Control) controlResponse {
	owners := c.OwnerIDs
	if owners == nil {
		owners = []string{}
	}
	return controlResponse{
		ID:          c.ID.String(),
		Title:       c.Title,
		Description: c.Description,
		OwnerIDs:    owners,
		URL:         c.URL,
		Status:      c.Status.Normalize().String(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toControlResponses(controls []*model.Control) []controlResponse {
	resp := make([]controlResponse, len(controls))
	for i, c := range controls {
		resp[i] = toControlResponse(c)
	}
	return resp
}

type artefactResponse struct {
	Version   int       `json:"version"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func toArtefactResponse(a *model.Artefact) artefactResponse {
	return artefactResponse{
		Version:   a.Version,
		Format:    string(a.Format),
		Path:      a.Path,
		Size:      a.Size,
		CreatedAt: a.CreatedAt,
	}
}
