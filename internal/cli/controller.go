package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/internal/presentation/tui"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/view"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

// ErrUsage reports a command line the controller cannot parse.
var ErrUsage = errors.New("usage")

// Printer turns a view snapshot into terminal output.
type Printer func(view.Snapshot) string

// Controller drives an App from line commands, the way a user would drive
// the list view with a keyboard.
type Controller struct {
	app    *todosoa.App
	out    io.Writer
	print  Printer
	logger *slog.Logger
}

// NewController creates a controller writing to out. A nil printer prints
// the plain markdown checklist.
func NewController(app *todosoa.App, out io.Writer, printer Printer, logger *slog.Logger) *Controller {
	if printer == nil {
		printer = tui.Checklist
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{app: app, out: out, print: printer, logger: logger}
}

const help = `commands:
  add <title>        create an item
  check <id|active>  mark completed
  uncheck <id|completed>
  rm <id|completed>  delete
  edit <id> [title]  rename; an empty title deletes
  show [all|active|completed]
  clear              delete completed items
  toggle             complete all, or reopen all when all are completed
  quit`

// Run reads commands from in until EOF, quit or ctx is done. Command
// failures are printed and do not end the loop.
func (c *Controller) Run(ctx context.Context, in io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.app.Navigate(ctx, domain.RouteAll.Fragment()); err != nil {
		return err
	}
	c.flush()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			err := c.Exec(ctx, line)
			switch {
			case errors.Is(err, ErrQuit):
				return nil
			case errors.Is(err, ErrUsage):
				fmt.Fprintln(c.out, help)
			case err != nil:
				fmt.Fprintf(c.out, "error: %v\n", err)
				c.logger.Debug("Command failed", "line", line, "err", err)
			default:
				c.flush()
			}
		}
	}
}

// Exec runs a single command line.
func (c *Controller) Exec(ctx context.Context, line string) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "":
		return nil
	case "quit", "exit":
		return ErrQuit
	case "help":
		return ErrUsage
	case "add":
		if rest == "" {
			return ErrUsage
		}
		return c.app.Add(ctx, rest)
	case "check", "uncheck":
		if rest == "" {
			return ErrUsage
		}
		return c.app.SetCompleted(ctx, c.resolve(rest), verb == "check")
	case "rm":
		if rest == "" {
			return ErrUsage
		}
		return c.app.Remove(ctx, c.resolve(rest))
	case "edit":
		id, title, _ := strings.Cut(rest, " ")
		if id == "" {
			return ErrUsage
		}
		return c.app.Rename(ctx, c.resolve(id), title)
	case "show":
		if rest == "" || rest == string(domain.RouteAll) {
			return c.app.Navigate(ctx, domain.RouteAll.Fragment())
		}
		return c.app.Navigate(ctx, domain.Route(rest).Fragment())
	case "clear":
		return c.app.ClearCompleted(ctx)
	case "toggle":
		return c.app.ToggleAll(ctx, !c.app.View().Snapshot().ToggleAll)
	}
	return ErrUsage
}

// resolve maps a 1-based row number of the current view onto an item id.
// Anything else is passed through as an id.
func (c *Controller) resolve(ref string) string {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref
	}
	rows := c.app.View().Snapshot().Rows
	if n < 1 || n > len(rows) {
		return ref
	}
	return rows[n-1].ID
}

func (c *Controller) flush() {
	fmt.Fprint(c.out, c.print(c.app.View().Snapshot()))
}
