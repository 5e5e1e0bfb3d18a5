package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"parlour/auth"
	"parlour/middleware"
	"parlour/models"
	"parlour/utils"
)

type memStore struct {
	mu   sync.Mutex
	rows []models.Review
}

func (m *memStore) Insert(_ context.Context, rv *models.Review) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *rv)
	return rv.ID, nil
}

func (m *memStore) List(_ context.Context, skip, limit int64) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Review{}, m.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return []models.Review{}, nil
	}
	out = out[skip:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(store Store) *Service {
	svc := NewService(store)
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	var n int
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Hour)
	}
	return svc
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(&memStore{})

	for _, rv := range []models.Review{
		{Rating: 0, Text: "ok"},
		{Rating: 6, Text: "ok"},
		{Rating: 4, Text: "   "},
	} {
		_, err := svc.Create(context.Background(), "ayesha@example.com", rv)
		assert.ErrorIs(t, err, utils.ErrBadRequest)
	}
}

func TestCreate_AuthorFromToken(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), "ayesha@example.com", models.Review{Email: "forged@example.com", Rating: 5, Text: "Lovely facial"})
	require.NoError(t, err)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "ayesha@example.com", store.rows[0].Email)
}

func TestHandlers(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	h := NewHandler(newTestService(&memStore{}))
	router := httprouter.New()
	router.POST("/review", middleware.Protect(h.AddReview, middleware.Authenticated(tokens)))
	router.GET("/reviews", h.GetReviews)

	post := func(body, bearer string) int {
		req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(body))
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, post(`{"rating":5,"text":"great"}`, ""))

	tok, err := tokens.Issue("ayesha@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, post(`{"rating":4,"text":"first"}`, tok))
	assert.Equal(t, http.StatusOK, post(`{"rating":5,"text":"second"}`, tok))
	assert.Equal(t, http.StatusBadRequest, post(`{"rating":9,"text":"third"}`, tok))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Text)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews?limit=1", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		id, err := NewMongoStore(mt.Coll).Insert(context.Background(), &models.Review{Email: "a@example.com", Rating: 5, Text: "ok"})
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
	})

	mt.Run("list", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "rating", Value: 5}, {Key: "text", Value: "great"}},
		))
		list, err := NewMongoStore(mt.Coll).List(context.Background(), 0, 0)
		require.NoError(mt, err)
		require.Len(mt, list, 1)
		assert.Equal(mt, 5, list[0].Rating)
	})
}
