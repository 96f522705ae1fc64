package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/todosoa/pkg/dispatch"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/fanout"
	"github.com/aretw0/todosoa/pkg/link"
	"github.com/aretw0/todosoa/pkg/ports"
)

// show replaces the list with one rendered row per item of the route,
// in storage order.
func (h *Host) show(ctx context.Context, route domain.Route) error {
	query := map[string]string{}
	switch route {
	case domain.RouteActive:
		query["completed"] = "0"
	case domain.RouteCompleted:
		query["completed"] = "1"
	}

	res, err := h.storage.Get(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query storage: %w", err)
	}
	items, err := decodeItems(res.Body)
	if err != nil {
		return err
	}

	tasks := make([]fanout.Task[ports.Row], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (ports.Row, error) {
			return h.renderRow(ctx, item)
		}
	}
	rows, err := fanout.All(ctx, tasks, h.fanoutOptions()...)
	if err != nil {
		return err
	}

	h.view.ReplaceList(rows)
	return nil
}

func (h *Host) renderRow(ctx context.Context, item domain.Item) (ports.Row, error) {
	res, err := h.listItem.Get(ctx, map[string]string{
		"item_id":   item.ID,
		"title":     item.Title,
		"completed": strconv.FormatBool(item.Completed),
	})
	if err != nil {
		return ports.Row{}, fmt.Errorf("failed to render item %s: %w", item.ID, err)
	}
	return ports.Row{Item: item, Markup: bodyString(res.Body)}, nil
}

// storageItem points at one item of the storage server.
func (h *Host) storageItem(id string) *dispatch.Agent {
	return h.storage.Follow(link.Query{Rel: "item", ID: id})
}

// targets resolves the items a CHECK, UNCHECK or DELETE applies to.
// Pseudo-collection names win over literal ids and select every item whose
// completed flag is pick(route); an unknown id is an empty set.
func (h *Host) targets(ctx context.Context, id string, pick func(domain.Route) bool) ([]domain.Item, error) {
	var agent *dispatch.Agent
	switch route := domain.Route(id); route {
	case domain.RouteCompleted, domain.RouteActive:
		completed := "0"
		if pick(route) {
			completed = "1"
		}
		agent = h.storage.Follow(link.Query{Rel: "self", Params: map[string]string{"completed": completed}})
	default:
		agent = h.storageItem(id)
	}

	res, err := agent.Get(ctx, nil)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve targets of %s: %w", id, err)
	}
	return decodeItems(res.Body)
}

// setCompleted renders every target with the new flag, stores the flag and
// only then updates the view. On a pseudo-collection it selects the items
// not yet carrying the flag, so CHECK and UNCHECK leave every item in the
// requested state whichever name is used.
func (h *Host) setCompleted(ctx context.Context, id string, completed bool) error {
	items, err := h.targets(ctx, id, func(domain.Route) bool { return !completed })
	if err != nil {
		return err
	}

	tasks := make([]fanout.Task[ports.Row], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (ports.Row, error) {
			item.Completed = completed
			return h.renderRow(ctx, item)
		}
	}
	rows, err := fanout.All(ctx, tasks, h.fanoutOptions()...)
	if err != nil {
		return err
	}

	if err := h.storeCompleted(ctx, items, completed); err != nil {
		return err
	}

	for _, row := range rows {
		h.view.UpdateRow(row)
	}
	h.refilter(ctx, false)
	return nil
}

// storeCompleted writes the flag to every item. If any write fails, the
// items already written get their previous flag back.
func (h *Host) storeCompleted(ctx context.Context, items []domain.Item, completed bool) error {
	put := func(item domain.Item, flag bool) fanout.Task[string] {
		return func(ctx context.Context) (string, error) {
			if _, err := h.storageItem(item.ID).Put(ctx, domain.Patch{Completed: &flag}); err != nil {
				return "", fmt.Errorf("failed to update item %s: %w", item.ID, err)
			}
			return item.ID, nil
		}
	}

	writes := make([]fanout.Task[string], len(items))
	for i, item := range items {
		writes[i] = put(item, completed)
	}
	outcomes := fanout.Bundle(ctx, writes, h.fanoutOptions()...)
	failed := fanout.Failures(outcomes)
	if failed == nil {
		return nil
	}

	var undo []fanout.Task[string]
	for i, o := range outcomes {
		if o.Err == nil {
			undo = append(undo, put(items[i], items[i].Completed))
		}
	}
	restored := fanout.Bundle(context.WithoutCancel(ctx), undo, h.fanoutOptions()...)
	if err := fanout.Failures(restored); err != nil {
		h.logger.Error("Failed to restore completed flags", "err", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrAggregateFailure, failed)
}

// remove deletes every target from storage, then from the view.
func (h *Host) remove(ctx context.Context, id string) error {
	items, err := h.targets(ctx, id, func(route domain.Route) bool { return route == domain.RouteCompleted })
	if err != nil {
		return err
	}

	tasks := make([]fanout.Task[string], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (string, error) {
			if _, err := h.storageItem(item.ID).Delete(ctx); err != nil {
				return "", fmt.Errorf("failed to delete item %s: %w", item.ID, err)
			}
			return item.ID, nil
		}
	}
	ids, err := fanout.All(ctx, tasks, h.fanoutOptions()...)
	if err != nil {
		return err
	}

	for _, id := range ids {
		h.view.RemoveRow(id)
	}
	h.refilter(ctx, false)
	return nil
}

// create adds an item through storage and forces a re-render.
func (h *Host) create(ctx context.Context, body any) error {
	if _, err := h.storage.Post(ctx, body); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	h.refilter(ctx, true)
	return nil
}

func (h *Host) edit(id string) {
	if !h.view.EditRow(id) {
		h.logger.Debug("Edit requested for an item not on display", "id", id)
	}
}

// CommitEdit finishes edit mode for an item. A non-empty title is stored and
// the row re-rendered; an empty one deletes the item; a discarded edit only
// leaves edit mode.
func (h *Host) CommitEdit(ctx context.Context, id, title string, discard bool) error {
	defer h.view.EndEdit(id)

	if discard {
		return nil
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return h.remove(ctx, id)
	}

	item := h.storageItem(id)
	if _, err := item.Put(ctx, domain.Patch{Title: &title}); err != nil {
		return fmt.Errorf("failed to rename item %s: %w", id, err)
	}

	res, err := item.Get(ctx, nil)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			return nil
		}
		return fmt.Errorf("failed to reload item %s: %w", id, err)
	}
	stored, err := decodeItems(res.Body)
	if err != nil || len(stored) == 0 {
		return err
	}

	row, err := h.renderRow(ctx, stored[0])
	if err != nil {
		return err
	}
	h.view.UpdateRow(row)
	return nil
}

// decodeItems accepts the in-process bodies of the storage server as well as
// their JSON form.
func decodeItems(body any) ([]domain.Item, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []domain.Item:
		return b, nil
	case domain.Item:
		return []domain.Item{b}, nil
	case *domain.Item:
		return []domain.Item{*b}, nil
	}

	data, ok := body.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("unexpected storage body %T: %w", body, err)
		}
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var item domain.Item
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to decode storage item: %w", err)
		}
		return []domain.Item{item}, nil
	}
	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode storage items: %w", err)
	}
	return items, nil
}

func decodeCounts(body any) (domain.Counts, error) {
	switch b := body.(type) {
	case domain.Counts:
		return b, nil
	case *domain.Counts:
		return *b, nil
	}

	data, ok := body.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return domain.Counts{}, fmt.Errorf("unexpected count body %T: %w", body, err)
		}
	}
	var counts domain.Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		return domain.Counts{}, fmt.Errorf("failed to decode counts: %w", err)
	}
	return counts, nil
}

func bodyString(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return b
	case []byte:
		return string(b)
	}
	return fmt.Sprint(body)
}
