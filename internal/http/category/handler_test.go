package category_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
	categoryhttp "github.com/MrJamesThe3rd/moneyflow/internal/http/category"
	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
)

func serve(t *testing.T, repo category.Repository, user uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Route("/categories", categoryhttp.NewHandler(category.NewService(repo)).Routes)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(identity.WithUserID(req.Context(), user))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	user := uuid.New()

	repo.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(nil)

	rec := serve(t, repo, user, http.MethodPost, "/categories", `{"name":"Gym","icon":"Dumbbell","color":"#aabbcc","type":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "Gym", got["name"])
	assert.Equal(t, user.String(), got["userId"])
	assert.Equal(t, false, got["isDefault"])
}

func TestCreate_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)

	rec := serve(t, repo, uuid.New(), http.MethodPost, "/categories", `{"name":"Gym","icon":"Dumbbell","color":"green","type":"transfer"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Contains(t, rec.Body.String(), `"field":"color"`)
	assert.Contains(t, rec.Body.String(), `"field":"type"`)
}

func TestUpdate_DefaultIsForbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	user := uuid.New()
	id := uuid.New()

	repo.EXPECT().GetCategory(gomock.Any(), id, user).Return(&category.Category{ID: id, IsDefault: true}, nil)

	rec := serve(t, repo, user, http.MethodPut, "/categories/"+id.String(), `{"name":"Mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDelete_ForeignIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	user := uuid.New()
	id := uuid.New()

	repo.EXPECT().GetCategory(gomock.Any(), id, user).Return(nil, category.ErrNotFound)

	rec := serve(t, repo, user, http.MethodDelete, "/categories/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	user := uuid.New()
	income := category.TypeIncome

	repo.EXPECT().
		ListCategories(gomock.Any(), user, category.ListFilter{Type: &income}).
		Return([]*category.Category{{ID: uuid.New(), Name: "Salary", IsDefault: true, Type: income}}, nil)

	rec := serve(t, repo, user, http.MethodGet, "/categories?type=income", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Nil(t, got[0]["userId"])

	assert.Equal(t, http.StatusBadRequest, serve(t, repo, user, http.MethodGet, "/categories?type=savings", "").Code)
}
