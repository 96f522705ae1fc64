package store_test

import (
	"context"
	"testing"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h *store.Handler, method, path string, query map[string]string, body any) *domain.Response {
	t.Helper()
	return h.Handle(context.Background(), &domain.Request{
		Method: method,
		Host:   "storage",
		Path:   path,
		Query:  query,
		Body:   body,
	})
}

func TestHandler_BuyMilk(t *testing.T) {
	s, _ := openStore(t)
	h := store.NewHandler(s, nil)

	res := do(t, h, domain.MethodPost, "/", nil, map[string]any{"title": "buy milk", "completed": false})
	require.Equal(t, domain.StatusCreated, res.Status)
	location := res.HeaderValue("location")
	require.NotEmpty(t, location)
	created := res.Body.(domain.Item)
	assert.Equal(t, "/"+created.ID, location)

	res = do(t, h, domain.MethodPut, location, nil, map[string]any{"completed": true})
	assert.Equal(t, domain.StatusNoContent, res.Status)

	res = do(t, h, domain.MethodGet, location, nil, nil)
	require.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, domain.Item{ID: created.ID, Title: "buy milk", Completed: true}, res.Body)
	assert.Equal(t, store.ContentTypeJSON, res.HeaderValue("Content-Type"))

	res = do(t, h, domain.MethodDelete, location, nil, nil)
	assert.Equal(t, domain.StatusNoContent, res.Status)

	res = do(t, h, domain.MethodGet, location, nil, nil)
	assert.Equal(t, domain.StatusNotFound, res.Status)
	assert.Equal(t, "not found", res.StatusText)
}

func TestHandler_Collection(t *testing.T) {
	s, _ := openStore(t)
	h := store.NewHandler(s, nil)

	create(t, s, "a", false)
	create(t, s, "b", true)
	create(t, s, "c", true)

	res := do(t, h, domain.MethodCount, "/", nil, nil)
	require.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, domain.Counts{Active: 1, Completed: 2, Total: 3}, res.Body)

	res = do(t, h, domain.MethodGet, "/", map[string]string{"completed": "1"}, nil)
	require.Equal(t, domain.StatusOK, res.Status)
	assert.Len(t, res.Body, 2)

	res = do(t, h, domain.MethodGet, "/", map[string]string{"completed": "0"}, nil)
	require.Equal(t, domain.StatusOK, res.Status)
	assert.Len(t, res.Body, 1)

	res = do(t, h, domain.MethodGet, "/", map[string]string{"completed": "perhaps"}, nil)
	assert.Equal(t, domain.StatusBadRequest, res.Status)

	res = do(t, h, domain.MethodDelete, "/", nil, nil)
	assert.Equal(t, domain.StatusNoContent, res.Status)

	res = do(t, h, domain.MethodGet, "/", nil, nil)
	assert.Empty(t, res.Body)
}

func TestHandler_Links(t *testing.T) {
	s, _ := openStore(t)
	h := store.NewHandler(s, nil)

	res := do(t, h, domain.MethodHead, "/", nil, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	require.Len(t, res.Links, 2)
	assert.True(t, res.Links[0].HasRel("self"))
	assert.True(t, res.Links[0].HasRel("collection"))
	assert.Equal(t, "/{id}", res.Links[1].Href)

	res = do(t, h, domain.MethodHead, "/42", nil, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.True(t, res.Links[0].HasRel("up"))
	assert.Equal(t, "/42", res.Links[1].Href)
}

func TestHandler_Errors(t *testing.T) {
	s, _ := openStore(t)
	h := store.NewHandler(s, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"bad method on collection", domain.MethodPut, "/", nil, domain.StatusMethodNotAllowed},
		{"bad method on item", domain.MethodPost, "/1", nil, domain.StatusMethodNotAllowed},
		{"nested path", domain.MethodGet, "/1/2", nil, domain.StatusNotFound},
		{"unknown field", domain.MethodPost, "/", map[string]any{"title": "a", "due": "today"}, domain.StatusBadRequest},
		{"missing title", domain.MethodPost, "/", map[string]any{"completed": true}, domain.StatusBadRequest},
		{"put on missing item", domain.MethodPut, "/nope", map[string]any{"completed": true}, domain.StatusNoContent},
		{"delete missing item", domain.MethodDelete, "/nope", nil, domain.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, tt.method, tt.path, nil, tt.body)
			assert.Equal(t, tt.status, res.Status)
		})
	}
}
