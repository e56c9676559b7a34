package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/threatline/pkg/controller/http"
	"github.com/secmon-lab/threatline/pkg/domain/model/config"
	"github.com/secmon-lab/threatline/pkg/repository/memory"
	"github.com/secmon-lab/threatline/pkg/service/storage"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type item struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type table struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Items []item `json:"items"`
}

type tables struct {
	Tables []table `json:"tables"`
}

type composition struct {
	Statement string `json:"statement"`
	Complete  bool   `json:"complete"`
}

type rating struct {
	Score int `json:"score"`
}

type threat struct {
	ID        string  `json:"id"`
	Statement string  `json:"statement"`
	Stage     string  `json:"stage"`
	ParentID  string  `json:"parent_id"`
	Rating    *rating `json:"rating"`
}

type control struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type errorBody struct {
	Error string `json:"error"`
}

func newRiskConfig() *config.RiskConfig {
	return &config.RiskConfig{
		Likelihood: []config.LikelihoodLevel{{ID: "likely", Name: "Likely", Score: 3}},
		Impact:     []config.ImpactLevel{{ID: "major", Name: "Major", Score: 4}},
		Techniques: []config.Technique{{ID: "T1566", Name: "Phishing"}},
	}
}

func newServer(t *testing.T, opts ...usecase.Option) *httpctrl.Server {
	t.Helper()
	opts = append([]usecase.Option{usecase.WithRiskConfig(newRiskConfig())}, opts...)
	return httpctrl.New(usecase.New(memory.New(), opts...))
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v)).Required()
	return v
}

func createProject(t *testing.T, srv http.Handler) project {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/projects", map[string]string{"name": "Payments"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	return decode[project](t, rec)
}

func seedItems(t *testing.T, srv http.Handler, projectID string) {
	t.Helper()
	texts := []string{
		"attacker",
		"phishing email",
		"spoofing",
		"customer database",
		"deploy ransomware",
		"data theft",
		"availability",
		"extort the company",
	}
	for i, text := range texts {
		rec := do(t, srv, http.MethodPost, "/api/projects/"+projectID+"/items", map[string]any{"table": i, "text": text})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)
	}
}

func link(t *testing.T, srv http.Handler, projectID string, t1, i1, t2, i2 int) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, http.MethodPost, "/api/projects/"+projectID+"/links", map[string]any{
		"from": map[string]int{"table": t1, "item": i1},
		"to":   map[string]int{"table": t2, "item": i2},
	})
}

func linkInitial(t *testing.T, srv http.Handler, projectID string) {
	t.Helper()
	for _, l := range [][4]int{{0, 0, 1, 0}, {3, 0, 5, 0}, {7, 0, 0, 0}} {
		rec := link(t, srv, projectID, l[0], l[1], l[2], l[3])
		gt.Value(t, rec.Code).Equal(http.StatusCreated)
	}
}

const initialStatement = "An attacker with phishing email could target the customer database to conduct data theft in order to extort the company"

func TestServer_Health(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestServer_Config(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/api/config", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	resp := decode[struct {
		Likelihood []struct {
			ID string `json:"id"`
		} `json:"likelihood"`
		Tables []table `json:"tables"`
	}](t, rec)
	gt.Array(t, resp.Likelihood).Length(1)
	gt.Array(t, resp.Tables).Length(8)

	rec = do(t, srv, http.MethodGet, "/api/stages/initial/tables", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	stage := decode[struct {
		Tables []table `json:"tables"`
	}](t, rec)
	gt.Array(t, stage.Tables).Length(5)

	rec = do(t, srv, http.MethodGet, "/api/stages/draft/tables", nil)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestServer_Projects(t *testing.T) {
	srv := newServer(t)
	p := createProject(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/projects/"+p.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[project](t, rec).Name).Equal("Payments")

	rec = do(t, srv, http.MethodPut, "/api/projects/"+p.ID, map[string]string{"name": "Billing"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[project](t, rec).Name).Equal("Billing")

	rec = do(t, srv, http.MethodGet, "/api/projects", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]project](t, rec)).Length(1)

	rec = do(t, srv, http.MethodPost, "/api/projects", map[string]string{"name": ""})
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.String(t, decode[errorBody](t, rec).Error).Contains("project name is required")

	rec = do(t, srv, http.MethodPost, "/api/projects", map[string]string{"unknown": "x"})
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	rec = do(t, srv, http.MethodDelete, "/api/projects/"+p.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, srv, http.MethodGet, "/api/projects/"+p.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestServer_ItemsAndLinks(t *testing.T) {
	srv := newServer(t)
	p := createProject(t, srv)
	seedItems(t, srv, p.ID)

	rec := do(t, srv, http.MethodPost, "/api/projects/"+p.ID+"/items", map[string]any{"table": 0, "text": "insider"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	got := decode[tables](t, rec)
	gt.Array(t, got.Tables).Length(8).Required()
	gt.Array(t, got.Tables[0].Items).Length(2).Required()
	gt.Value(t, got.Tables[0].Items[1].Text).Equal("insider")
	gt.Value(t, got.Tables[0].Items[1].Index).Equal(1)

	rec = link(t, srv, p.ID, 0, 1, 1, 0)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)

	rec = link(t, srv, p.ID, 0, 5, 1, 0)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	rec = link(t, srv, p.ID, 0, 0, 0, 0)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	// deleting the linked actor drops the link
	rec = do(t, srv, http.MethodDelete, "/api/projects/"+p.ID+"/items/"+got.Tables[0].Items[1].ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, srv, http.MethodGet, "/api/projects/"+p.ID+"/links", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]map[string]any](t, rec)).Length(0)

	rec = do(t, srv, http.MethodPut, "/api/projects/"+p.ID+"/items/"+got.Tables[0].Items[0].ID, map[string]string{"text": "organised crime"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[tables](t, rec).Tables[0].Items[0].Text).Equal("organised crime")

	linkInitial(t, srv, p.ID)
	rec = do(t, srv, http.MethodDelete, "/api/projects/"+p.ID+"/links", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, srv, http.MethodGet, "/api/projects/"+p.ID+"/links", nil)
	gt.Array(t, decode[[]map[string]any](t, rec)).Length(0)
}

func TestServer_ComposeAndSave(t *testing.T) {
	srv := newServer(t)
	p := createProject(t, srv)
	seedItems(t, srv, p.ID)
	base := "/api/projects/" + p.ID

	rec := do(t, srv, http.MethodPost, base+"/compose", map[string]string{"stage": "initial"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	preview := decode[composition](t, rec)
	gt.Bool(t, preview.Complete).False()
	gt.String(t, preview.Statement).Contains("Select items from")

	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]string{"stage": "initial"})
	gt.Value(t, rec.Code).Equal(http.StatusUnprocessableEntity)

	linkInitial(t, srv, p.ID)
	rec = do(t, srv, http.MethodPost, base+"/compose", map[string]string{"stage": "initial"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[composition](t, rec).Statement).Equal(initialStatement)

	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]string{"stage": "initial"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	initial := decode[threat](t, rec)
	gt.Value(t, initial.Statement).Equal(initialStatement)

	rec = link(t, srv, p.ID, 4, 0, 6, 0)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]string{
		"stage":          "intermediate",
		"base_threat_id": initial.ID,
		"local_impact":   "service outage",
	})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	intermediate := decode[threat](t, rec)
	gt.Value(t, intermediate.ParentID).Equal(initial.ID)

	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]any{
		"stage":          "final",
		"base_threat_id": intermediate.ID,
		"techniques":     []map[string]string{{"technique_id": "T1566"}},
	})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	final := decode[threat](t, rec)
	gt.String(t, final.Statement).Contains("Using Phishing (T1566), an attacker")

	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]string{
		"stage": "initial",
		"text":  "Power loss takes the data centre offline",
	})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)

	rec = do(t, srv, http.MethodGet, base+"/threats?stage=initial", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]threat](t, rec)).Length(2)

	rec = do(t, srv, http.MethodGet, base+"/threats/"+final.ID+"/family", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]threat](t, rec)).Length(3)

	rec = do(t, srv, http.MethodPut, base+"/threats/"+initial.ID+"/rating", map[string]string{
		"likelihood_id": "likely",
		"impact_id":     "major",
	})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	rated := decode[threat](t, rec)
	gt.Value(t, rated.Rating).NotNil().Required()
	gt.Value(t, rated.Rating.Score).Equal(12)

	rec = do(t, srv, http.MethodPut, base+"/threats/"+initial.ID+"/rating", map[string]string{
		"likelihood_id": "rare",
		"impact_id":     "major",
	})
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	rec = do(t, srv, http.MethodPut, base+"/threats/"+initial.ID, map[string]string{"statement": "An attacker could do harm"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, srv, http.MethodGet, base+"/threats/"+initial.ID+"/revisions", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]map[string]any](t, rec)).Length(1)

	rec = do(t, srv, http.MethodPost, base+"/threats/"+initial.ID+"/suggestions", nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotImplemented)

	rec = do(t, srv, http.MethodDelete, base+"/threats/"+final.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, srv, http.MethodGet, base+"/threats/"+final.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestServer_Controls(t *testing.T) {
	srv := newServer(t)
	p := createProject(t, srv)
	seedItems(t, srv, p.ID)
	base := "/api/projects/" + p.ID

	linkInitial(t, srv, p.ID)
	rec := do(t, srv, http.MethodPost, base+"/threats", map[string]string{"stage": "initial"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	initial := decode[threat](t, rec)

	rec = link(t, srv, p.ID, 4, 0, 6, 0)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	rec = do(t, srv, http.MethodPost, base+"/threats", map[string]string{
		"stage":          "intermediate",
		"base_threat_id": initial.ID,
		"local_impact":   "service outage",
	})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	intermediate := decode[threat](t, rec)

	rec = do(t, srv, http.MethodPost, base+"/controls", map[string]string{"title": "Mail filtering"})
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	c := decode[control](t, rec)
	gt.Value(t, c.Status).Equal("backlog")

	rec = do(t, srv, http.MethodPost, base+"/controls", map[string]string{"status": "todo"})
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	rec = do(t, srv, http.MethodPut, base+"/controls/"+c.ID, map[string]string{"status": "in-progress"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, decode[control](t, rec).Status).Equal("in-progress")

	rec = do(t, srv, http.MethodPost, base+"/threats/"+intermediate.ID+"/controls", map[string]string{"control_id": c.ID})
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	linked := decode[struct {
		Threats []threat `json:"threats"`
	}](t, rec)
	gt.Array(t, linked.Threats).Length(2)

	rec = do(t, srv, http.MethodGet, base+"/threats/"+initial.ID+"/controls", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]control](t, rec)).Length(1)

	rec = do(t, srv, http.MethodDelete, base+"/threats/"+initial.ID+"/controls/"+c.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = do(t, srv, http.MethodGet, base+"/threats/"+intermediate.ID+"/controls", nil)
	gt.Array(t, decode[[]control](t, rec)).Length(0)

	rec = do(t, srv, http.MethodDelete, base+"/threats/"+initial.ID+"/controls/"+c.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)

	rec = do(t, srv, http.MethodDelete, base+"/controls/"+c.ID, nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	rec = do(t, srv, http.MethodGet, base+"/controls", nil)
	gt.Array(t, decode[[]control](t, rec)).Length(0)
}

func TestServer_Artefacts(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := newServer(t)
		p := createProject(t, srv)

		rec := do(t, srv, http.MethodPost, "/api/projects/"+p.ID+"/artefacts", nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotImplemented)
	})

	t.Run("export and download", func(t *testing.T) {
		store, err := storage.NewLocal(t.TempDir())
		gt.NoError(t, err).Required()
		srv := newServer(t, usecase.WithArtefactStore(store))
		p := createProject(t, srv)
		seedItems(t, srv, p.ID)
		linkInitial(t, srv, p.ID)
		base := "/api/projects/" + p.ID

		rec := do(t, srv, http.MethodPost, base+"/threats", map[string]string{"stage": "initial"})
		gt.Value(t, rec.Code).Equal(http.StatusCreated)

		rec = do(t, srv, http.MethodPost, base+"/artefacts", nil)
		gt.Value(t, rec.Code).Equal(http.StatusCreated)
		exported := decode[struct {
			Version int `json:"version"`
		}](t, rec)
		gt.Value(t, exported.Version).Equal(1)

		rec = do(t, srv, http.MethodGet, base+"/artefacts", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, decode[[]map[string]any](t, rec)).Length(1)

		rec = do(t, srv, http.MethodGet, base+"/artefacts/1", nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/markdown; charset=utf-8")
		gt.String(t, rec.Body.String()).Contains(initialStatement)

		rec = do(t, srv, http.MethodGet, base+"/artefacts/v1", nil)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

		rec = do(t, srv, http.MethodGet, base+"/artefacts/9", nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}
