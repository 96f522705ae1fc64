package todosoa_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/pkg/adapters/memory"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/host"
	"github.com/aretw0/todosoa/pkg/persistence/middleware"
	"github.com/aretw0/todosoa/pkg/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, opts ...todosoa.Option) *todosoa.App {
	t.Helper()
	opts = append([]todosoa.Option{todosoa.WithBackend(memory.New())}, opts...)
	app, err := todosoa.New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := todosoa.New(context.Background())
	assert.Error(t, err)
}

func TestApp_Flow(t *testing.T) {
	ctx := context.Background()
	app := newApp(t)

	require.NoError(t, app.Add(ctx, "Buy milk"))
	require.NoError(t, app.Add(ctx, "Walk the dog"))
	require.NoError(t, app.Add(ctx, "Read"))

	snap := app.View().Snapshot()
	require.Len(t, snap.Rows, 3)
	assert.True(t, snap.FrameVisible)
	assert.Equal(t, "<strong>3</strong> items left", snap.Counter)

	require.NoError(t, app.SetCompleted(ctx, snap.Rows[0].ID, true))
	counts, err := app.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Active: 2, Completed: 1, Total: 3}, counts)

	require.NoError(t, app.Rename(ctx, snap.Rows[1].ID, "Walk the cat"))
	row, ok := app.View().Row(snap.Rows[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Walk the cat", row.Title)
	assert.False(t, row.Editing)

	require.NoError(t, app.ClearCompleted(ctx))
	counts, err = app.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Active: 2, Total: 2}, counts)

	require.NoError(t, app.ToggleAll(ctx, true))
	snap = app.View().Snapshot()
	assert.True(t, snap.ToggleAll)
	assert.Equal(t, "Clear completed (2)", snap.ClearButton)

	require.NoError(t, app.ToggleAll(ctx, false))
	assert.False(t, app.View().Snapshot().ToggleAll)
}

func TestApp_Show(t *testing.T) {
	ctx := context.Background()
	app := newApp(t)

	require.NoError(t, app.Add(ctx, "a"))
	require.NoError(t, app.Add(ctx, "b"))
	first := app.View().Snapshot().Rows[0]
	require.NoError(t, app.SetCompleted(ctx, first.ID, true))

	require.NoError(t, app.Show(ctx, domain.RouteCompleted))
	snap := app.View().Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "a", snap.Rows[0].Title)
	assert.Equal(t, domain.RouteCompleted, snap.Filter)
	assert.Equal(t, domain.RouteCompleted, app.Host().Route())
}

func TestApp_MalformedAdd(t *testing.T) {
	app := newApp(t)

	err := app.Add(context.Background(), "   ")
	var resErr *domain.ResponseError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, domain.StatusBadRequest, resErr.Response.Status)
	assert.Empty(t, app.View().Snapshot().Rows)
}

func TestApp_Options(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	key := middleware.DeriveKey("secret")
	backend := memory.New()

	app := newApp(t,
		todosoa.WithBackend(backend),
		todosoa.WithMiddleware(middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})),
		todosoa.WithCollection("groceries"),
		todosoa.WithMetrics(reg),
		todosoa.WithHostOptions(host.WithName("groceries.app")),
		todosoa.WithTemplates(render.Definition{Name: render.Counter, Params: []string{"active"}, Source: "{{.active}} open"}),
	)

	assert.Equal(t, "groceries", app.Store().Name())
	assert.Equal(t, "groceries.app", app.Host().Name())

	require.NoError(t, app.Add(ctx, "eggs"))
	assert.Equal(t, "1 open", app.View().Snapshot().Counter)

	raw, err := backend.Load(ctx, "groceries")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "eggs", "document is encrypted at rest")

	require.NotNil(t, app.Metrics())
	assert.Equal(t, float64(1), testutil.ToFloat64(
		app.Metrics().Requests().WithLabelValues("groceries.app", domain.MethodPost, "204")))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestApp_Close(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	app, err := todosoa.New(context.Background(),
		todosoa.WithBackend(memory.New()),
		todosoa.WithCloser(closerFunc(func() error { order = append(order, "first"); return nil })),
		todosoa.WithCloser(closerFunc(func() error { order = append(order, "second"); return boom })),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, app.Close(), boom)
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, app.Close(), "closing twice is a no-op")
}
