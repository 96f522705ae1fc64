package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/todosoa/pkg/domain"
)

// ContentTypeJSON marks response bodies carrying items or counts.
const ContentTypeJSON = "application/json"

// Handler exposes a Store as the storage resource tree:
//
//	/      HEAD GET(?completed) COUNT POST DELETE
//	/{id}  HEAD GET PUT DELETE
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler wraps store. The logger may be nil.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = store.logger
	}
	return &Handler{store: store, logger: logger}
}

// Handle implements ports.RequestHandler.
func (h *Handler) Handle(ctx context.Context, req *domain.Request) *domain.Response {
	res, err := h.route(ctx, req)
	if err != nil {
		if domain.StatusFor(err) >= domain.StatusInternalServerError {
			h.logger.Error("Storage request failed", "method", req.Method, "url", req.URL(), "err", err)
		}
		return domain.ErrorResponse(err)
	}
	return res
}

func (h *Handler) route(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	id := strings.Trim(req.Path, "/")
	if strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, req.Path)
	}
	if id == "" {
		return h.collection(ctx, req)
	}
	return h.item(ctx, req, id)
}

func collectionLinks() []domain.Link {
	return []domain.Link{
		{Href: "/{?completed}", Rel: "self service collection"},
		{Href: "/{id}", Rel: "item"},
	}
}

func itemLinks(id string) []domain.Link {
	return []domain.Link{
		{Href: "/", Rel: "up service collection"},
		{Href: "/" + id, Rel: "self item", ID: id},
	}
}

func (h *Handler) collection(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	switch req.Method {
	case domain.MethodHead:
		res := domain.NewResponse(domain.StatusNoContent)
		res.Links = collectionLinks()
		return res, nil

	case domain.MethodGet:
		filter := domain.Filter{}
		if raw, ok := req.QueryValue("completed"); ok && raw != "" {
			completed, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: completed=%q", domain.ErrMalformedBody, raw)
			}
			filter = domain.ByCompleted(completed)
		}
		items, err := h.store.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		return h.json(domain.StatusOK, items, collectionLinks()), nil

	case domain.MethodCount:
		counts, err := h.store.Count(ctx)
		if err != nil {
			return nil, err
		}
		return h.json(domain.StatusOK, counts, collectionLinks()), nil

	case domain.MethodPost:
		patch, err := DecodePatch(req.Body)
		if err != nil {
			return nil, err
		}
		item, err := h.store.Create(ctx, patch)
		if err != nil {
			return nil, err
		}
		res := h.json(domain.StatusCreated, item, itemLinks(item.ID))
		res.SetHeader("location", "/"+item.ID)
		return res, nil

	case domain.MethodDelete:
		if err := h.store.Drop(ctx); err != nil {
			return nil, err
		}
		return domain.NewResponse(domain.StatusNoContent), nil
	}
	return nil, fmt.Errorf("%w: %s /", domain.ErrUnsupportedMethod, req.Method)
}

func (h *Handler) item(ctx context.Context, req *domain.Request, id string) (*domain.Response, error) {
	switch req.Method {
	case domain.MethodHead:
		res := domain.NewResponse(domain.StatusNoContent)
		res.Links = itemLinks(id)
		return res, nil

	case domain.MethodGet:
		items, err := h.store.Find(ctx, domain.ByID(id))
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: item %s", domain.ErrResourceNotFound, id)
		}
		return h.json(domain.StatusOK, items[0], itemLinks(id)), nil

	case domain.MethodPut:
		patch, err := DecodePatch(req.Body)
		if err != nil {
			return nil, err
		}
		if _, err := h.store.Update(ctx, id, patch); err != nil {
			return nil, err
		}
		return domain.NewResponse(domain.StatusNoContent), nil

	case domain.MethodDelete:
		if err := h.store.Remove(ctx, id); err != nil {
			return nil, err
		}
		return domain.NewResponse(domain.StatusNoContent), nil
	}
	return nil, fmt.Errorf("%w: %s /%s", domain.ErrUnsupportedMethod, req.Method, id)
}

func (h *Handler) json(status int, body any, links []domain.Link) *domain.Response {
	res := domain.NewResponse(status)
	res.SetHeader("content-type", ContentTypeJSON)
	res.Links = links
	res.Body = body
	return res
}
