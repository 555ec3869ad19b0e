package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/api/middleware"
	"forum-letter/dto"
	"forum-letter/models"
	"forum-letter/pipeline"
	"forum-letter/repositories"
	"forum-letter/services"
)

type memEditions struct {
	editions []models.Edition
	entries  map[primitive.ObjectID][]models.EditionEntry
}

func (m *memEditions) LatestEdition(ctx context.Context) (*models.Edition, error) {
	if len(m.editions) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &m.editions[0], nil
}

func (m *memEditions) FindEdition(ctx context.Context, id primitive.ObjectID) (*models.Edition, error) {
	for i := range m.editions {
		if m.editions[i].ID == id {
			return &m.editions[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memEditions) ListEditions(ctx context.Context, page, pageSize int) ([]models.Edition, int64, error) {
	start := min((page-1)*pageSize, len(m.editions))
	end := min(start+pageSize, len(m.editions))
	return m.editions[start:end], int64(len(m.editions)), nil
}

func (m *memEditions) EditionEntries(ctx context.Context, id primitive.ObjectID) ([]models.EditionEntry, error) {
	return m.entries[id], nil
}

type stubRunner struct{ release chan struct{} }

func (s *stubRunner) Run(ctx context.Context, cadence models.Cadence) (*pipeline.Report, error) {
	<-s.release
	return nil, errors.New("done")
}

func newTestEngine(t *testing.T, store *memEditions, health func(context.Context) error) (*gin.Engine, *stubRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	runner := &stubRunner{release: make(chan struct{})}
	t.Cleanup(func() { close(runner.release) })

	sections := []pipeline.Section{{Key: "news", Title: "News"}, {Key: "community", Title: "Community"}}
	return New(Deps{
		Editions: services.NewEditionService(store, sections, 2),
		Pipeline: services.NewPipelineService(runner, nil),
		Health:   health,
	}), runner
}

func seeded() *memEditions {
	m := &memEditions{entries: map[primitive.ObjectID][]models.EditionEntry{}}
	for i := 0; i < 3; i++ {
		m.editions = append(m.editions, models.Edition{ID: primitive.NewObjectID(), Title: "Edition", Cadence: models.CadenceDaily})
	}
	latest := m.editions[0].ID
	m.entries[latest] = []models.EditionEntry{
		{
			EditionItem: models.EditionItem{ID: primitive.NewObjectID(), Section: "news", DisplayOrder: 0, Headline: "A"},
			Item:        models.Item{Source: "ClaudeAI"},
			Annotation:  &models.Annotation{Tags: []string{"claude-code"}},
		},
		{
			EditionItem: models.EditionItem{ID: primitive.NewObjectID(), Section: "community", DisplayOrder: 1, Headline: "B"},
			Item:        models.Item{Source: "cursor"},
		},
	}
	return m
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEditionRoutes(t *testing.T) {
	store := seeded()
	r, _ := newTestEngine(t, store, nil)

	testCases := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"latest", "/api/v1/editions/latest", http.StatusOK},
		{"by id", "/api/v1/editions/" + store.editions[1].ID.Hex(), http.StatusOK},
		{"bad id", "/api/v1/editions/xyz", http.StatusBadRequest},
		{"missing", "/api/v1/editions/" + primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"archive", "/api/v1/editions?page=2", http.StatusOK},
		{"health", "/health", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tc.target)
			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestLatestEditionFiltered(t *testing.T) {
	r, _ := newTestEngine(t, seeded(), nil)

	w := do(r, http.MethodGet, "/api/v1/editions/latest?source=cursor")
	require.Equal(t, http.StatusOK, w.Code)

	var view dto.EditionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Sections, 1)
	assert.Equal(t, "community", view.Sections[0].Key)
	assert.Equal(t, []string{"ClaudeAI", "cursor"}, view.Facets.Sources)
	assert.Equal(t, []string{"cursor"}, view.Filter.Sources)
}

func TestArchivePaging(t *testing.T) {
	r, _ := newTestEngine(t, seeded(), nil)

	w := do(r, http.MethodGet, "/api/v1/editions")
	require.Equal(t, http.StatusOK, w.Code)
	var page dto.PaginationEditionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.True(t, page.HasNext)
}

func TestLatestEditionEmptyStore(t *testing.T) {
	r, _ := newTestEngine(t, &memEditions{}, nil)
	w := do(r, http.MethodGet, "/api/v1/editions/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunPipeline(t *testing.T) {
	r, _ := newTestEngine(t, seeded(), nil)

	w := do(r, http.MethodPost, "/api/v1/pipeline/run?cadence=weekly")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp dto.PipelineRunResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp.Status)
	assert.Equal(t, "weekly", resp.Cadence)
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), resp.RequestID)

	// first run has not finished yet
	w = do(r, http.MethodPost, "/api/v1/pipeline/run")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/pipeline/run?cadence=monthly")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthDegraded(t *testing.T) {
	r, _ := newTestEngine(t, seeded(), func(ctx context.Context) error { return errors.New("no primary") })
	w := do(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWithCORS(t *testing.T) {
	r, _ := newTestEngine(t, seeded(), nil)
	h := WithCORS(r, []string{"https://letter.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/editions", nil)
	req.Header.Set("Origin", "https://letter.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://letter.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.Handler(r), WithCORS(r, nil))
}
