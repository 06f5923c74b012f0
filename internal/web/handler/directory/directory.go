// Package directory provides the directory browser: tree, search, selection and bulk actions.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/bulk"
	"github.com/GoADConsole/GoADConsole/internal/directory"
	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/navigation"
)

const (
	// Path is the path to the directory browser.
	Path = handler.RootPath + "directory"

	// TemplateName is the name of the directory template.
	TemplateName = "directory/directory"

	defaultTimeout = 60 * time.Second
)

// CheckRequest is a checkbox change in the tree or the search view.
type CheckRequest struct {
	DN      string `json:"dn"`
	Checked bool   `json:"checked"`
}

// SelectRequest names nodes to add to or remove from the selection.
type SelectRequest struct {
	DNs []string `json:"dns"`
}

// SelectionView is the selection as returned to the page.
type SelectionView struct {
	Items []directory.Node `json:"items"`
	Count int              `json:"count"`
}

// CheckResponse carries the delta of a checkbox change and the resulting selection.
type CheckResponse struct {
	Delta     directory.Delta `json:"delta"`
	Selection SelectionView   `json:"selection"`
}

// BulkResponse is the outcome of a bulk action.
type BulkResponse struct {
	Response      *bulk.Response        `json:"response,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
	Selection     SelectionView         `json:"selection"`
}

// unavailable is the runner used when no backend client could be built.
type unavailable struct {
	err error
}

func (u unavailable) BulkAction(context.Context, bulk.Payload) (*bulk.Response, error) {
	return nil, u.err
}

// Service is the directory handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the directory handler.
var Handler = Service{}

// Init initializes the directory handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Get("/root", s.Root)
		router.Get("/children", s.Children)
		router.Get("/search", s.Search)
		router.Get("/user", s.User)
		router.Post("/check", s.Check)
		router.Get("/selection", s.Selection)
		router.Post("/selection", s.Select)
		router.Delete("/selection", s.Deselect)
		router.Post("/bulk", s.Bulk)
	})

	return nil
}

func selectionView(ws *directory.Workspace) SelectionView {
	return SelectionView{Items: ws.Selection.Items(), Count: ws.Selection.Len()}
}

func timeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), defaultTimeout)
}

// fail answers a failed backend or tree operation.
func (s *Service) fail(c *fiber.Ctx, title string, err error) error {
	switch {
	case errors.Is(err, directory.ErrStale):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"stale": true})
	case errors.Is(err, directory.ErrUnknownNode):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"notifications": []notify.Notification{notify.New(notify.LevelWarning, title, err.Error())},
		})
	}

	n, ok := handler.Failure(title, err)
	if !ok {
		return s.deps.Unauthorized(c)
	}

	log.Warn().Err(err).Str("path", c.Path()).Msg("directory request failed")

	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"notifications": []notify.Notification{n},
	})
}

// Get renders the directory browser page.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.New("Directory", navigation.SectionDirectory, "browser")
	ws := s.deps.Workspace(c)

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"User":       c.Locals(handler.LocalUser),
		"Actions":    bulk.Actions,
		"Selection":  selectionView(ws),
		"Search":     ws.Tree.ActiveSearch(),
		"MaxResults": s.deps.Cfg.Directory.SearchMaxResults,
	}, handler.BaseLayout)
}

// Root loads the top level of the tree.
func (s *Service) Root(c *fiber.Ctx) error {
	client, err := s.deps.Client(c)
	if err != nil {
		return s.fail(c, "Directory", err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	nodes, err := s.deps.Workspace(c).Tree.LoadRoot(ctx, client)
	if err != nil {
		return s.fail(c, "Directory", err)
	}

	return c.JSON(fiber.Map{"nodes": nodes})
}

// Children expands one container.
func (s *Service) Children(c *fiber.Ctx) error {
	dn := c.Query("dn")
	if dn == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dn is required"})
	}

	client, err := s.deps.Client(c)
	if err != nil {
		return s.fail(c, "Directory", err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	nodes, err := s.deps.Workspace(c).Tree.Expand(ctx, client, dn)
	if err != nil {
		return s.fail(c, "Directory", err)
	}

	return c.JSON(fiber.Map{"dn": dn, "nodes": nodes})
}

// Search runs a directory search. An empty query returns to the tree.
func (s *Service) Search(c *fiber.Ctx) error {
	tree := s.deps.Workspace(c).Tree

	query := c.Query("q")
	if query == "" {
		tree.ClearSearch()

		return c.JSON(fiber.Map{"active": false, "query": "", "results": []directory.Node{}})
	}

	client, err := s.deps.Client(c)
	if err != nil {
		return s.fail(c, "Search", err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	view, err := tree.Search(ctx, client, query, s.deps.Cfg.Directory.SearchMaxResults)
	if err != nil {
		return s.fail(c, "Search", err)
	}

	if view == nil {
		return c.JSON(fiber.Map{"active": false, "query": "", "results": []directory.Node{}})
	}

	return c.JSON(fiber.Map{"active": true, "query": view.Query, "results": view.Results})
}

// User returns the details of one user.
func (s *Service) User(c *fiber.Ctx) error {
	dn := c.Query("dn")
	if _, err := directory.ParseDN(dn); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	client, err := s.deps.Client(c)
	if err != nil {
		return s.fail(c, "User", err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	u, err := client.User(ctx, dn)
	if err != nil {
		return s.fail(c, "User", err)
	}

	return c.JSON(u)
}

// Check applies a checkbox change to the selection.
func (s *Service) Check(c *fiber.Ctx) error {
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil || req.DN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dn is required"})
	}

	client, err := s.deps.Client(c)
	if err != nil {
		return s.fail(c, "Selection", err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	ws := s.deps.Workspace(c)

	delta, err := ws.Resolver.Check(ctx, client, req.DN, req.Checked)
	if err != nil {
		return s.fail(c, "Selection", err)
	}

	return c.JSON(CheckResponse{Delta: delta, Selection: selectionView(ws)})
}

// Selection returns the current selection.
func (s *Service) Selection(c *fiber.Ctx) error {
	return c.JSON(selectionView(s.deps.Workspace(c)))
}

// Select adds loaded user nodes to the selection by hand.
func (s *Service) Select(c *fiber.Ctx) error {
	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ws := s.deps.Workspace(c)

	var nodes []directory.Node

	for _, dn := range req.DNs {
		node, _, ok := ws.Tree.Lookup(dn)
		if ok && node.IsUser() {
			nodes = append(nodes, node)
		}
	}

	added := ws.Selection.Add(directory.ManualSource, nodes...)

	return c.JSON(CheckResponse{
		Delta:     directory.Delta{Added: added},
		Selection: selectionView(ws),
	})
}

// Deselect removes the users named by the dn query parameter, or clears the selection.
func (s *Service) Deselect(c *fiber.Ctx) error {
	ws := s.deps.Workspace(c)

	var removed []directory.Node

	if dns := c.Context().QueryArgs().PeekMulti("dn"); len(dns) > 0 {
		list := make([]string, len(dns))
		for i, dn := range dns {
			list[i] = string(dn)
		}

		removed = ws.Selection.Remove(list...)
	} else {
		removed = ws.Selection.Items()
		ws.Selection.Clear()
	}

	return c.JSON(CheckResponse{
		Delta:     directory.Delta{Removed: removed},
		Selection: selectionView(ws),
	})
}

// Bulk runs a bulk action. Without an explicit user list the selection is used.
func (s *Service) Bulk(c *fiber.Ctx) error {
	var p bulk.Payload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ws := s.deps.Workspace(c)
	if len(p.Users) == 0 {
		p.Users = ws.Selection.DNs()
	}

	// validation runs before the client is needed
	var runner bulk.Runner

	client, err := s.deps.Client(c)
	if err != nil {
		runner = unavailable{err: err}
	} else {
		runner = client
	}

	ctx, cancel := timeout(c)
	defer cancel()

	sink := &notify.Collector{}

	resp, err := s.deps.Executor.Execute(ctx, runner, sink, p)

	out := BulkResponse{Response: resp, Notifications: sink.Items(), Selection: selectionView(ws)}

	switch {
	case err == nil:
		return c.JSON(out)
	case errors.Is(err, bulk.ErrNoUsers), errors.Is(err, bulk.ErrInvalidPayload):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(out)
	case handler.IsAuthError(err):
		return s.deps.Unauthorized(c)
	default:
		return c.Status(fiber.StatusBadGateway).JSON(out)
	}
}
