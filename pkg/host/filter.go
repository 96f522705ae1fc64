package host

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/fanout"
)

// Navigate applies a navigation fragment such as "#/active": it recomputes
// the active route, re-runs the filter and marks the matching filter link.
// Unknown pages fall back to the "all" route.
func (h *Host) Navigate(ctx context.Context, fragment string) error {
	route, ok := domain.RouteFromFragment(fragment)
	if !ok {
		h.logger.Warn("Unknown page, showing all items", "fragment", fragment)
	}

	h.mu.Lock()
	h.activeRoute = route
	h.mu.Unlock()

	err := h.filter(ctx, false)
	h.view.SelectFilter(route)
	return err
}

// refilter runs the filter after a mutation. The mutation already succeeded,
// so a failing refresh is logged rather than returned.
func (h *Host) refilter(ctx context.Context, force bool) {
	if err := h.filter(ctx, force); err != nil {
		h.logger.Warn("View refresh failed", "route", h.Route(), "err", err)
	}
}

// filter refreshes the counters and, when needed, re-renders the list for
// the active route by sending SHOW to the host itself. The list is redrawn
// when forced, when the active route is not "all", or when it changed.
func (h *Host) filter(ctx context.Context, force bool) error {
	h.mu.Lock()
	active := h.activeRoute
	redraw := force || active != domain.RouteAll || h.lastActiveRoute != active
	h.lastActiveRoute = active
	h.mu.Unlock()

	tasks := []fanout.Task[struct{}]{
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, h.updateCount(ctx)
		},
	}
	if redraw {
		tasks = append(tasks, func(ctx context.Context) (struct{}, error) {
			_, err := h.shows[active].Do(ctx, domain.MethodShow, nil, nil)
			return struct{}{}, err
		})
	}

	_, err := fanout.All(ctx, tasks)
	return err
}

// updateCount reads the counts from storage and refreshes the counter, the
// clear button, the toggle-all box and the frame. The two renders are best
// effort: a failed one leaves its element as it was.
func (h *Host) updateCount(ctx context.Context) error {
	res, err := h.storage.Do(ctx, domain.MethodCount, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	counts, err := decodeCounts(res.Body)
	if err != nil {
		return err
	}

	outcomes := fanout.Bundle(ctx, []fanout.Task[string]{
		func(ctx context.Context) (string, error) {
			res, err := h.counter.Get(ctx, map[string]string{"active": strconv.Itoa(counts.Active)})
			if err != nil {
				return "", err
			}
			return bodyString(res.Body), nil
		},
		func(ctx context.Context) (string, error) {
			res, err := h.clearBtn.Get(ctx, map[string]string{"completed": strconv.Itoa(counts.Completed)})
			if err != nil {
				return "", err
			}
			return bodyString(res.Body), nil
		},
	}, h.fanoutOptions()...)

	if err := fanout.Failures(outcomes); err != nil {
		h.logger.Warn("Counter render failed", "err", err)
	}
	if outcomes[0].Err == nil {
		h.view.SetCounter(outcomes[0].Value)
	}
	if outcomes[1].Err == nil {
		h.view.SetClearButton(outcomes[1].Value, counts.Completed > 0)
	}
	h.view.SetToggleAll(counts.Total > 0 && counts.Completed == counts.Total)
	h.view.SetFrameVisible(counts.Total > 0)
	return nil
}
