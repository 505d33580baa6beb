package representative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visaflow/internal/domain"
	"visaflow/internal/matching"
)

type mockRepository struct {
	FindByIDsFunc func(ctx context.Context, ids []string) ([]domain.Representative, error)
}

func (m *mockRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Representative, error) {
	return m.FindByIDsFunc(ctx, ids)
}

func newRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	NewModule(repo, zap.NewNop()).Register(r)
	return r
}

func search(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/representatives/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestService_GetRepresentatives_ReportsNotFound(t *testing.T) {
	svc := NewService(matching.NewStaticDirectory(matching.DefaultRoster()))

	found, notFound, err := svc.GetRepresentatives(context.Background(), []string{"rep-seoul-01", "rep-ghost"}, "")

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "rep-seoul-01", found[0].ID)
	assert.Equal(t, []string{"rep-ghost"}, notFound)
}

func TestService_GetRepresentatives_FiltersByCategory(t *testing.T) {
	svc := NewService(matching.NewStaticDirectory(matching.DefaultRoster()))

	found, notFound, err := svc.GetRepresentatives(context.Background(),
		[]string{"rep-seoul-01", "rep-seoul-02"}, domain.VisaD8)

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "rep-seoul-02", found[0].ID)
	assert.Equal(t, []string{"rep-seoul-01"}, notFound)
}

func TestService_GetRepresentatives_RepositoryError(t *testing.T) {
	svc := NewService(&mockRepository{
		FindByIDsFunc: func(ctx context.Context, ids []string) ([]domain.Representative, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, _, err := svc.GetRepresentatives(context.Background(), []string{"rep-1"}, "")

	assert.Error(t, err)
}

func TestHandleSearch_Success(t *testing.T) {
	h := newRouter(matching.NewStaticDirectory(matching.DefaultRoster()))

	rec, resp := search(t, h, `{"visaCategory":"e1","representativeIds":["rep-seoul-01","rep-daejeon-01","rep-busan-01"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	reps := resp["representatives"].([]any)
	require.Len(t, reps, 2)
	first := reps[0].(map[string]any)
	assert.Equal(t, "rep-daejeon-01", first["id"])
	assert.Equal(t, float64(6), first["availableSlots"])
	assert.Equal(t, true, first["accepting"])
	assert.Equal(t, []any{"rep-busan-01"}, resp["notFound"])
}

func TestHandleSearch_EmptyNotFoundIsArray(t *testing.T) {
	h := newRouter(matching.NewStaticDirectory(matching.DefaultRoster()))

	_, resp := search(t, h, `{"representativeIds":["rep-seoul-01"]}`)

	assert.Equal(t, []any{}, resp["notFound"])
}

func TestHandleSearch_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{`, "body"},
		{"missing ids", `{}`, "representativeIds"},
		{"blank id", `{"representativeIds":["  "]}`, "representativeIds"},
		{"unsupported category", `{"visaCategory":"Z-99","representativeIds":["rep-seoul-01"]}`, "visaCategory"},
	}

	h := newRouter(matching.NewStaticDirectory(matching.DefaultRoster()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := search(t, h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", resp["error"])
			assert.Equal(t, tt.want, resp["details"].([]any)[0].(map[string]any)["field"])
		})
	}
}

func TestHandleSearch_TooManyIDs(t *testing.T) {
	ids := make([]string, maxSearchIDs+1)
	for i := range ids {
		ids[i] = "rep"
	}
	body, err := json.Marshal(SearchRepresentativesRequest{RepresentativeIDs: ids})
	require.NoError(t, err)

	rec, _ := search(t, newRouter(&mockRepository{}), string(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_RepositoryFailureIs500(t *testing.T) {
	h := newRouter(&mockRepository{
		FindByIDsFunc: func(ctx context.Context, ids []string) ([]domain.Representative, error) {
			return nil, errors.New("connection refused")
		},
	})

	rec, resp := search(t, h, `{"representativeIds":["rep-seoul-01"]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", resp["error"])
}
