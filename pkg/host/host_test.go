package host_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/todosoa/pkg/adapters/memory"
	"github.com/aretw0/todosoa/pkg/dispatch"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/host"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/aretw0/todosoa/pkg/render"
	"github.com/aretw0/todosoa/pkg/store"
	"github.com/aretw0/todosoa/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	registry *dispatch.Registry
	store    *store.Store
	view     *view.Model
	host     *host.Host
}

// newEnv wires storage, render and host servers. wrapRender, when given,
// decorates the render server (to slow it down or make it fail).
func newEnv(t *testing.T, wrapRender func(ports.RequestHandler) ports.RequestHandler, opts ...host.Option) *env {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, "todos", memory.New())
	require.NoError(t, err)
	svc, err := render.New()
	require.NoError(t, err)

	var renderer ports.RequestHandler = svc
	if wrapRender != nil {
		renderer = wrapRender(svc)
	}

	r := dispatch.NewRegistry()
	r.Register("storage", store.NewHandler(s, nil))
	r.Register("view", renderer)

	model := view.New()
	h := host.New(r, "local://storage/", "local://view/", model, opts...)
	r.Register(h.Name(), h)

	return &env{registry: r, store: s, view: model, host: h}
}

func (e *env) do(t *testing.T, method, path string, body any) *domain.Response {
	t.Helper()
	res, _ := e.registry.Dispatch(context.Background(), &domain.Request{
		Method: method,
		Host:   host.DefaultName,
		Path:   path,
		Body:   body,
	})
	return res
}

func (e *env) add(t *testing.T, titles ...string) []domain.Item {
	t.Helper()
	for _, title := range titles {
		res := e.do(t, domain.MethodPost, "/", map[string]any{"title": title})
		require.Equal(t, domain.StatusNoContent, res.Status, res.Body)
	}
	items, err := e.store.FindAll(context.Background())
	require.NoError(t, err)
	return items
}

func titles(rows []view.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func TestHost_Links(t *testing.T) {
	e := newEnv(t, nil)

	res := e.do(t, domain.MethodHead, "/", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	require.Len(t, res.Links, 4)
	assert.True(t, res.Links[0].HasRel("self"))
	assert.Equal(t, "/{id}", res.Links[3].Href)

	res = e.do(t, domain.MethodHead, "/42", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.True(t, res.Links[0].HasRel("up"))
	assert.Equal(t, "42", res.Links[1].ID)
}

func TestHost_BadMethods(t *testing.T) {
	e := newEnv(t, nil)

	tests := []struct{ method, path string }{
		{domain.MethodGet, "/"},
		{domain.MethodDelete, "/"},
		{domain.MethodPut, "/42"},
		{domain.MethodShow, "/42"},
		{domain.MethodCount, "/all"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			res := e.do(t, tt.method, tt.path, nil)
			assert.Equal(t, domain.StatusMethodNotAllowed, res.Status)
			assert.Equal(t, "bad method", res.StatusText)
		})
	}
}

func TestHost_CreateRendersAndCounts(t *testing.T) {
	e := newEnv(t, nil)
	e.add(t, "buy milk")

	snap := e.view.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "buy milk", snap.Rows[0].Title)
	assert.Contains(t, snap.Rows[0].Markup, "<label>buy milk</label>")
	assert.Equal(t, "<strong>1</strong> item left", snap.Counter)
	assert.False(t, snap.ClearVisible)
	assert.False(t, snap.ToggleAll)
	assert.True(t, snap.FrameVisible)
}

func TestHost_CreateMalformed(t *testing.T) {
	e := newEnv(t, nil)

	res := e.do(t, domain.MethodPost, "/", map[string]any{"title": "x", "colour": "red"})
	assert.Equal(t, domain.StatusBadRequest, res.Status)
	assert.Empty(t, e.view.Snapshot().Rows)
}

func TestHost_CheckAndUncheck(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b")
	ctx := context.Background()

	res := e.do(t, domain.MethodCheck, "/"+items[0].ID, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)

	row, ok := e.view.Row(items[0].ID)
	require.True(t, ok)
	assert.True(t, row.Completed)
	assert.Contains(t, row.Markup, `class="completed"`)

	stored, err := e.store.Find(ctx, domain.ByID(items[0].ID))
	require.NoError(t, err)
	assert.True(t, stored[0].Completed)

	snap := e.view.Snapshot()
	assert.Equal(t, "<strong>1</strong> item left", snap.Counter)
	assert.Equal(t, "Clear completed (1)", snap.ClearButton)
	assert.True(t, snap.ClearVisible)

	res = e.do(t, domain.MethodCheck, "/active", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.True(t, e.view.Snapshot().ToggleAll)

	res = e.do(t, domain.MethodUncheck, "/completed", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	counts, err := e.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Active: 2, Completed: 0, Total: 2}, counts)
	assert.False(t, e.view.Snapshot().ClearVisible)
}

func TestHost_CheckCompletedIsIdempotent(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b", "c")
	ctx := context.Background()

	e.do(t, domain.MethodCheck, "/"+items[1].ID, nil)
	e.do(t, domain.MethodCheck, "/"+items[2].ID, nil)

	for i := 0; i < 2; i++ {
		res := e.do(t, domain.MethodCheck, "/completed", nil)
		require.Equal(t, domain.StatusNoContent, res.Status)

		counts, err := e.store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{Active: 0, Completed: 3, Total: 3}, counts)
		row, ok := e.view.Row(items[0].ID)
		require.True(t, ok)
		assert.True(t, row.Completed)
	}
}

func TestHost_UncheckActiveClearsAll(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b", "c")
	ctx := context.Background()

	e.do(t, domain.MethodCheck, "/"+items[0].ID, nil)

	res := e.do(t, domain.MethodUncheck, "/active", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)

	counts, err := e.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Active: 3, Completed: 0, Total: 3}, counts)
}

func TestHost_UnknownTargetIsNoop(t *testing.T) {
	e := newEnv(t, nil)
	e.add(t, "a")
	before := e.view.Snapshot()

	for _, method := range []string{domain.MethodCheck, domain.MethodUncheck, domain.MethodDelete} {
		res := e.do(t, method, "/does-not-exist", nil)
		assert.Equal(t, domain.StatusNoContent, res.Status, method)
	}

	after := e.view.Snapshot()
	assert.Equal(t, before.Rows, after.Rows)
}

func TestHost_DeleteCompleted(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b", "c")
	ctx := context.Background()

	e.do(t, domain.MethodCheck, "/"+items[0].ID, nil)
	e.do(t, domain.MethodCheck, "/"+items[2].ID, nil)

	res := e.do(t, domain.MethodDelete, "/completed", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)

	left, err := e.store.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{items[1]}, left)
	assert.Equal(t, []string{"b"}, titles(e.view.Snapshot().Rows))

	res = e.do(t, domain.MethodDelete, "/"+items[1].ID, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)

	snap := e.view.Snapshot()
	assert.Empty(t, snap.Rows)
	assert.False(t, snap.FrameVisible, "frame hides when nothing is left")
	assert.False(t, snap.ToggleAll)
}

func TestHost_ShowPreservesOrder(t *testing.T) {
	// earlier items render slower, so completions arrive in reverse order
	slow := func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			if req.Path == "/listitem" && req.Method == domain.MethodGet {
				delay := map[string]time.Duration{"a": 60, "b": 40, "c": 20, "d": 0}[req.Query["title"]]
				time.Sleep(delay * time.Millisecond)
			}
			return next.Handle(ctx, req)
		})
	}
	e := newEnv(t, slow)
	items := e.add(t, "a", "b", "c", "d")
	e.do(t, domain.MethodCheck, "/"+items[1].ID, nil)

	res := e.do(t, domain.MethodShow, "/active", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.Equal(t, []string{"a", "c", "d"}, titles(e.view.Snapshot().Rows))

	res = e.do(t, domain.MethodShow, "/all", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles(e.view.Snapshot().Rows))

	res = e.do(t, domain.MethodShow, "/completed", nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	assert.Equal(t, []string{"b"}, titles(e.view.Snapshot().Rows))
}

func failingFor(title string) func(ports.RequestHandler) ports.RequestHandler {
	return func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			if req.Path == "/listitem" && req.Query["title"] == title {
				return domain.ErrorResponse(domain.ErrResourceNotFound)
			}
			return next.Handle(ctx, req)
		})
	}
}

func TestHost_AggregateFailureLeavesViewUntouched(t *testing.T) {
	e := newEnv(t, failingFor("bad"))
	items := e.add(t, "good")

	_, err := e.store.Create(context.Background(), domain.Patch{Title: domain.Ptr("bad")})
	require.NoError(t, err)
	before := e.view.Snapshot()

	res := e.do(t, domain.MethodShow, "/all", nil)
	assert.Equal(t, domain.StatusInternalServerError, res.Status)
	assert.Equal(t, "aggregate failure", res.StatusText)
	assert.Equal(t, before.Rows, e.view.Snapshot().Rows)

	countsBefore, err := e.store.Count(context.Background())
	require.NoError(t, err)

	res = e.do(t, domain.MethodCheck, "/active", nil)
	assert.Equal(t, domain.StatusInternalServerError, res.Status)
	row, _ := e.view.Row(items[0].ID)
	assert.False(t, row.Completed, "no row is updated when any render fails")

	countsAfter, err := e.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, countsBefore, countsAfter, "storage is not written when any render fails")
	assert.Equal(t, domain.Counts{Active: 2, Completed: 0, Total: 2}, countsAfter)
}

func TestHost_FailedWriteRestoresFlags(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b", "c")
	ctx := context.Background()

	// storage refuses to update "b"
	e.registry.Register("storage", ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
		if req.Method == domain.MethodPut && strings.Trim(req.Path, "/") == items[1].ID {
			return domain.ErrorResponse(errors.New("disk full"))
		}
		return store.NewHandler(e.store, nil).Handle(ctx, req)
	}))

	res := e.do(t, domain.MethodCheck, "/active", nil)
	assert.Equal(t, domain.StatusInternalServerError, res.Status)

	counts, err := e.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Active: 3, Completed: 0, Total: 3}, counts)
	for _, item := range items {
		row, ok := e.view.Row(item.ID)
		require.True(t, ok)
		assert.False(t, row.Completed, item.Title)
	}
}

func TestHost_AggregateTimeout(t *testing.T) {
	hang := func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			if req.Path == "/listitem" && req.Query["title"] == "stuck" {
				<-ctx.Done()
				return domain.ErrorResponse(ctx.Err())
			}
			return next.Handle(ctx, req)
		})
	}
	e := newEnv(t, hang, host.WithTimeout(50*time.Millisecond))
	_, err := e.store.Create(context.Background(), domain.Patch{Title: domain.Ptr("stuck")})
	require.NoError(t, err)

	start := time.Now()
	res := e.do(t, domain.MethodShow, "/all", nil)
	assert.Equal(t, domain.StatusGatewayTimeout, res.Status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHost_BestEffortCounter(t *testing.T) {
	brokenCounter := func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			if req.Path == "/counter" && req.Method == domain.MethodGet {
				return domain.ErrorResponse(domain.ErrResourceNotFound)
			}
			return next.Handle(ctx, req)
		})
	}
	e := newEnv(t, brokenCounter)
	items := e.add(t, "a")

	res := e.do(t, domain.MethodCheck, "/"+items[0].ID, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)

	snap := e.view.Snapshot()
	assert.Empty(t, snap.Counter, "failed render leaves the counter as it was")
	assert.Equal(t, "Clear completed (1)", snap.ClearButton)
	assert.True(t, snap.ToggleAll)
}

func TestHost_Navigate(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b", "c")
	ctx := context.Background()
	e.do(t, domain.MethodCheck, "/"+items[0].ID, nil)

	require.NoError(t, e.host.Navigate(ctx, "#/completed"))
	assert.Equal(t, domain.RouteCompleted, e.host.Route())
	snap := e.view.Snapshot()
	assert.Equal(t, domain.RouteCompleted, snap.Filter)
	assert.Equal(t, []string{"a"}, titles(snap.Rows))

	// while filtered, mutations redraw the list
	e.do(t, domain.MethodCheck, "/"+items[1].ID, nil)
	assert.Equal(t, []string{"a", "b"}, titles(e.view.Snapshot().Rows))

	require.NoError(t, e.host.Navigate(ctx, "#/active"))
	assert.Equal(t, []string{"c"}, titles(e.view.Snapshot().Rows))

	require.NoError(t, e.host.Navigate(ctx, "#/bogus"))
	assert.Equal(t, domain.RouteAll, e.host.Route())
	assert.Equal(t, []string{"a", "b", "c"}, titles(e.view.Snapshot().Rows))

	require.NoError(t, e.host.Navigate(ctx, ""))
	assert.Equal(t, domain.RouteAll, e.view.Snapshot().Filter)
}

func TestHost_Edit(t *testing.T) {
	e := newEnv(t, nil)
	items := e.add(t, "a", "b")
	ctx := context.Background()

	res := e.do(t, domain.MethodEdit, "/"+items[0].ID, nil)
	require.Equal(t, domain.StatusNoContent, res.Status)
	row, _ := e.view.Row(items[0].ID)
	assert.True(t, row.Editing)

	t.Run("discard", func(t *testing.T) {
		require.NoError(t, e.host.CommitEdit(ctx, items[0].ID, "ignored", true))
		row, _ := e.view.Row(items[0].ID)
		assert.False(t, row.Editing)
		assert.Equal(t, "a", row.Title)
	})

	t.Run("rename", func(t *testing.T) {
		e.do(t, domain.MethodEdit, "/"+items[0].ID, nil)
		require.NoError(t, e.host.CommitEdit(ctx, items[0].ID, "  renamed  ", false))

		row, _ := e.view.Row(items[0].ID)
		assert.False(t, row.Editing)
		assert.Equal(t, "renamed", row.Title)
		assert.True(t, strings.Contains(row.Markup, "<label>renamed</label>"))

		stored, err := e.store.Find(ctx, domain.ByID(items[0].ID))
		require.NoError(t, err)
		assert.Equal(t, "renamed", stored[0].Title)
	})

	t.Run("empty title removes", func(t *testing.T) {
		e.do(t, domain.MethodEdit, "/"+items[1].ID, nil)
		require.NoError(t, e.host.CommitEdit(ctx, items[1].ID, "   ", false))

		_, ok := e.view.Row(items[1].ID)
		assert.False(t, ok)
		left, err := e.store.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, left, 1)
	})
}

func TestHost_UnknownStorage(t *testing.T) {
	e := newEnv(t, nil)
	e.registry.Unregister("storage")

	res := e.do(t, domain.MethodShow, "/all", nil)
	assert.Equal(t, domain.StatusBadGateway, res.Status)
}

func TestHost_FirstNavigateDraws(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "todos", memory.New())
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.Patch{Title: ptr("seeded")})
	require.NoError(t, err)

	svc, err := render.New()
	require.NoError(t, err)
	r := dispatch.NewRegistry()
	r.Register("storage", store.NewHandler(s, nil))
	r.Register("view", svc)
	model := view.New()
	h := host.New(r, "local://storage/", "local://view/", model)
	r.Register(h.Name(), h)

	require.NoError(t, h.Navigate(ctx, ""))
	assert.Equal(t, []string{"seeded"}, titles(model.Snapshot().Rows))
}

func ptr[T any](v T) *T { return &v }
