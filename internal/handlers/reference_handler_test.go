package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/internal/models"
)

type fakeReferenceStore struct {
	items map[models.ReferenceKind][]models.ReferenceItem
	inUse map[int64]int
}

func (f *fakeReferenceStore) List(_ context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	return f.items[kind], nil
}

func (f *fakeReferenceStore) GetByID(_ context.Context, kind models.ReferenceKind, id int64) (*models.ReferenceItem, error) {
	for i := range f.items[kind] {
		if f.items[kind][i].ID == id {
			return &f.items[kind][i], nil
		}
	}
	return nil, models.ErrEntityNotFound
}

func (f *fakeReferenceStore) Create(_ context.Context, kind models.ReferenceKind, name string) (*models.ReferenceItem, error) {
	item := models.ReferenceItem{ID: int64(len(f.items[kind]) + 1), Name: name}
	f.items[kind] = append(f.items[kind], item)
	return &item, nil
}

func (f *fakeReferenceStore) Rename(ctx context.Context, kind models.ReferenceKind, id int64, name string) (*models.ReferenceItem, error) {
	item, err := f.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	item.Name = name
	return item, nil
}

func (f *fakeReferenceStore) Delete(_ context.Context, kind models.ReferenceKind, id int64) error {
	if n := f.inUse[id]; n > 0 {
		return &models.ReferencedError{Kind: string(kind), Usages: n, UsedIn: "booking tours"}
	}
	return nil
}

type fakeTours struct{}

func (fakeTours) List(_ context.Context) ([]models.Tour, error) {
	return []models.Tour{{ID: 1}, {ID: 2}}, nil
}

func setupReferenceRouter() (*gin.Engine, *fakeReferenceStore) {
	store := &fakeReferenceStore{
		items: map[models.ReferenceKind][]models.ReferenceItem{
			models.ReferenceShip: {{ID: 1, Name: "MSC Euribia"}},
		},
		inUse: map[int64]int{1: 3},
	}
	h := NewReferenceHandler(store, fakeTours{}, newTestLogger())

	router := gin.New()
	h.Register(router.Group("/ships"), models.ReferenceShip)
	h.Register(router.Group("/agents"), models.ReferenceAgent)
	router.GET("/tours", h.ListTours)
	return router, store
}

func TestReferenceCRUD(t *testing.T) {
	router, store := setupReferenceRouter()

	w := doRequest(router, http.MethodPost, "/agents", map[string]string{"name": "  Gulf Travel "}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.items[models.ReferenceAgent], 1)
	assert.Equal(t, "Gulf Travel", store.items[models.ReferenceAgent][0].Name)

	w = doRequest(router, http.MethodPut, "/ships/1", map[string]string{"name": "Costa Smeralda"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Costa Smeralda", store.items[models.ReferenceShip][0].Name)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/ships/1", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodGet, "/ships/9", nil, nil).Code)
	assert.Len(t, decodeBody(t, doRequest(router, http.MethodGet, "/ships", nil, nil))["items"], 1)
}

func TestReferenceCreate_BlankName(t *testing.T) {
	router, store := setupReferenceRouter()

	w := doRequest(router, http.MethodPost, "/agents", map[string]string{"name": "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.items[models.ReferenceAgent])
}

func TestReferenceDelete_InUse(t *testing.T) {
	router, _ := setupReferenceRouter()

	w := doRequest(router, http.MethodDelete, "/ships/1", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "referenced", body["error"])
	assert.Contains(t, body["message"], "used in 3")

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/ships/2", nil, nil).Code)
}

func TestListTours(t *testing.T) {
	router, _ := setupReferenceRouter()
	assert.Len(t, decodeBody(t, doRequest(router, http.MethodGet, "/tours", nil, nil))["tours"], 2)
}
