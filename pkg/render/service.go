package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/aretw0/todosoa/internal/logging"
	"github.com/aretw0/todosoa/pkg/domain"
)

// ContentTypeHTML marks rendered fragments.
const ContentTypeHTML = "text/html"

// Title names the service in its root link.
const Title = "Todo HTML Renderer"

type entry struct {
	def  Definition
	tmpl *template.Template
}

// Service renders the configured templates.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	order   []string
	entries map[string]entry
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*config)

type config struct {
	defs   []Definition
	logger *slog.Logger
}

// WithDefinitions adds or replaces templates by name.
func WithDefinitions(defs ...Definition) Option {
	return func(c *config) {
		c.defs = append(c.defs, defs...)
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New compiles the built-in templates plus any definitions passed in.
func New(opts ...Option) (*Service, error) {
	cfg := config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Service{
		entries: make(map[string]entry),
		logger:  cfg.logger,
	}
	for _, def := range append(Defaults(), cfg.defs...) {
		if err := s.add(def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

var funcs = template.FuncMap{
	"truthy": truthy,
	"int":    toInt,
}

func (s *Service) add(def Definition) error {
	tmpl, err := template.New(def.Name).Funcs(funcs).Option("missingkey=zero").Parse(def.Source)
	if err != nil {
		return fmt.Errorf("failed to parse template %q: %w", def.Name, err)
	}
	if _, exists := s.entries[def.Name]; !exists {
		s.order = append(s.order, def.Name)
	}
	s.entries[def.Name] = entry{def: def, tmpl: tmpl}
	return nil
}

// Render executes the named template. Params not declared by the template
// are ignored; declared ones that are missing render empty.
func (s *Service) Render(name string, params map[string]string) (string, error) {
	e, ok := s.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: template %q", domain.ErrResourceNotFound, name)
	}

	data := make(map[string]any, len(e.def.Params))
	for _, p := range e.def.Params {
		data[p] = params[p]
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", name, err)
	}
	return buf.String(), nil
}

// Links returns the root link header: self first, then one item link per template.
func (s *Service) Links() []domain.Link {
	links := []domain.Link{{Href: "/", Rel: "self collection service", Title: Title}}
	for _, name := range s.order {
		links = append(links, s.link(name, "item"))
	}
	return links
}

func (s *Service) link(name, rel string) domain.Link {
	e := s.entries[name]
	href := "/" + name
	if len(e.def.Params) > 0 {
		href += "{?" + strings.Join(e.def.Params, ",") + "}"
	}
	return domain.Link{Href: href, Rel: rel, ID: name}
}

// Handle implements ports.RequestHandler. Only HEAD and GET are served.
func (s *Service) Handle(ctx context.Context, req *domain.Request) *domain.Response {
	if req.Method != domain.MethodHead && req.Method != domain.MethodGet {
		return domain.ErrorResponse(fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, req.Method))
	}

	name := strings.Trim(req.Path, "/")
	if name == "" {
		res := domain.NewResponse(domain.StatusNoContent)
		res.Links = s.Links()
		return res
	}

	if _, ok := s.entries[name]; !ok {
		return domain.ErrorResponse(fmt.Errorf("%w: %s", domain.ErrResourceNotFound, req.Path))
	}

	links := []domain.Link{
		{Href: "/", Rel: "up collection service", Title: Title},
		s.link(name, "self item"),
	}
	if req.Method == domain.MethodHead {
		res := domain.NewResponse(domain.StatusNoContent)
		res.Links = links
		return res
	}

	markup, err := s.Render(name, req.Query)
	if err != nil {
		s.logger.Error("Render failed", "template", name, "err", err)
		return domain.ErrorResponse(err)
	}

	res := domain.NewResponse(domain.StatusOK)
	res.SetHeader("content-type", ContentTypeHTML)
	res.Links = links
	res.Body = markup
	return res
}
