// Package editor provides the pages editing the CSV import, attribute mapping and
// Teams integration configuration stored by the AD management API.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/importconfig"
	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/navigation"
)

const (
	// ImportPath is the path to the CSV import configuration.
	ImportPath = handler.RootPath + "config/import"

	// PreviewPath takes a CSV upload and previews the import mapping on it.
	PreviewPath = ImportPath + "/csv"

	// MappingsPath is the path to the attribute mappings.
	MappingsPath = handler.RootPath + "config/mappings"

	// TeamsPath is the path to the Teams integration configuration.
	TeamsPath = handler.RootPath + "config/teams"

	// Template names.
	ImportTemplate   = "config/import"
	MappingsTemplate = "config/mappings"
	TeamsTemplate    = "config/teams"

	// PreviewRows is the number of data records shown in a preview.
	PreviewRows = 20

	// MaxUploadSize bounds the CSV file accepted by the preview.
	MaxUploadSize = 4 << 20

	defaultTimeout = 30 * time.Second
)

// Response answers a save or preview request issued by the page scripts.
type Response struct {
	Config        any                   `json:"config,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// PreviewResponse is the outcome of a CSV upload.
type PreviewResponse struct {
	Header        []string              `json:"header"`
	Suggested     []importconfig.Column `json:"suggested"`
	Preview       *importconfig.Preview `json:"preview,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// Service is the configuration editor handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the configuration editor handler.
var Handler = Service{}

// Init initializes the configuration editor handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Route(ImportPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetImport)
		router.Post(handler.RouterRootPath, s.PostImport)
		router.Post("/csv", s.Preview)
	})

	app.Route(MappingsPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetMappings)
		router.Post(handler.RouterRootPath, s.PostMappings)
	})

	app.Route(TeamsPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetTeams)
		router.Post(handler.RouterRootPath, s.PostTeams)
	})

	return nil
}

var errConfigJSON = errors.New("the import configuration is not valid JSON")

// render loads a section and shows its page. A failed load still renders the page with
// an alert and the zero value.
func render[T any](
	s *Service, c *fiber.Ctx, title, page, template string,
	load func(context.Context, importconfig.Backend) (*T, error), extra fiber.Map,
) error {
	var (
		alerts []notify.Notification
		value  *T
	)

	client, err := s.deps.Client(c)
	if err == nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
		defer cancel()

		value, err = load(ctx, client)
	}

	if err != nil {
		n, ok := handler.Failure(title, err)
		if !ok {
			return s.deps.Unauthorized(c)
		}

		log.Error().Err(err).Str("page", page).Msg("failed to load configuration")

		alerts = append(alerts, n)
		value = new(T)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	data := fiber.Map{
		"Navigation": navigation.New(title, navigation.SectionConfig, page),
		"User":       c.Locals(handler.LocalUser),
		"Config":     value,
		"ConfigJSON": string(raw),
		"Alerts":     alerts,
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Render(template, data, handler.BaseLayout)
}

// save stores a section posted as JSON. Invalid input never reaches the backend.
func save[T any](s *Service, c *fiber.Ctx, title string, store func(context.Context, importconfig.Backend, *T) error) error {
	value := new(T)
	if err := json.Unmarshal(c.Body(), value); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Notifications: []notify.Notification{notify.New(notify.LevelWarning, title, "Invalid request body")},
		})
	}

	client, err := s.deps.Client(c)
	if err == nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
		defer cancel()

		err = store(ctx, client, value)
	}

	switch {
	case err == nil:
		log.Info().Str("section", title).Msg("configuration saved")

		return c.JSON(Response{
			Config:        value,
			Notifications: []notify.Notification{notify.New(notify.LevelSuccess, title, "Configuration saved.")},
		})
	case errors.Is(err, importconfig.ErrInvalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Response{
			Config:        value,
			Notifications: []notify.Notification{notify.New(notify.LevelWarning, title, err.Error())},
		})
	}

	n, ok := handler.Failure(title, err)
	if !ok {
		return s.deps.Unauthorized(c)
	}

	log.Error().Err(err).Str("section", title).Msg("failed to save configuration")

	return c.Status(fiber.StatusBadGateway).JSON(Response{
		Config:        value,
		Notifications: []notify.Notification{n},
	})
}

// GetImport renders the CSV import configuration.
func (s *Service) GetImport(c *fiber.Ctx) error {
	return render(s, c, "CSV import", "import", ImportTemplate, s.deps.Editor.Import, fiber.Map{
		"Transforms":  importconfig.Transforms,
		"PreviewRows": PreviewRows,
	})
}

// PostImport stores the CSV import configuration.
func (s *Service) PostImport(c *fiber.Ctx) error {
	return save(s, c, "CSV import", s.deps.Editor.SaveImport)
}

// GetMappings renders the attribute mappings.
func (s *Service) GetMappings(c *fiber.Ctx) error {
	return render(s, c, "Attribute mappings", "mappings", MappingsTemplate, s.deps.Editor.Mappings, nil)
}

// PostMappings stores the attribute mappings.
func (s *Service) PostMappings(c *fiber.Ctx) error {
	return save(s, c, "Attribute mappings", s.deps.Editor.SaveMappings)
}

// GetTeams renders the Teams integration configuration.
func (s *Service) GetTeams(c *fiber.Ctx) error {
	return render(s, c, "Teams", "teams", TeamsTemplate, s.deps.Editor.Teams, nil)
}

// PostTeams stores the Teams integration configuration.
func (s *Service) PostTeams(c *fiber.Ctx) error {
	return save(s, c, "Teams", s.deps.Editor.SaveTeams)
}

func previewFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(PreviewResponse{
		Notifications: []notify.Notification{notify.New(notify.LevelWarning, "CSV preview", message)},
	})
}

// Preview reads an uploaded CSV file and applies the import mapping to its first rows.
// The mapping comes from the "config" form field, or from the stored configuration.
// Without any column mapping the suggested columns are previewed.
func (s *Service) Preview(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return previewFailure(c, fiber.StatusBadRequest, "A CSV file is required.")
	}

	if fh.Size > MaxUploadSize {
		return previewFailure(c, fiber.StatusRequestEntityTooLarge, "The CSV file is too large.")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, MaxUploadSize))
	if err != nil {
		return err
	}

	cfg, err := s.previewConfig(c)
	if errors.Is(err, errConfigJSON) {
		return previewFailure(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err != nil {
		n, ok := handler.Failure("CSV preview", err)
		if !ok {
			return s.deps.Unauthorized(c)
		}

		return c.Status(fiber.StatusBadGateway).JSON(PreviewResponse{Notifications: []notify.Notification{n}})
	}

	out := PreviewResponse{Header: []string{}, Suggested: []importconfig.Column{}}

	if cfg.HasHeader {
		header, err := importconfig.ReadHeader(bytes.NewReader(raw), cfg.Comma())
		if err != nil {
			return previewFailure(c, fiber.StatusUnprocessableEntity, err.Error())
		}

		out.Header = header
		if suggested := importconfig.Suggest(header); suggested != nil {
			out.Suggested = suggested
		}

		if len(cfg.Columns) == 0 {
			cfg.Columns = out.Suggested
		}
	}

	if len(cfg.Columns) == 0 {
		return previewFailure(c, fiber.StatusUnprocessableEntity, "No column is mapped.")
	}

	preview, err := importconfig.BuildPreview(bytes.NewReader(raw), cfg, PreviewRows)
	if err != nil {
		return previewFailure(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	out.Preview = preview
	out.Notifications = []notify.Notification{}

	if preview.ErrorRows > 0 {
		out.Notifications = append(out.Notifications, notify.New(notify.LevelWarning, "CSV preview",
			"Some rows are missing required values."))
	}

	return c.JSON(out)
}

func (s *Service) previewConfig(c *fiber.Ctx) (*importconfig.ImportConfig, error) {
	if field := c.FormValue("config"); field != "" {
		cfg := importconfig.DefaultImportConfig()
		if err := json.Unmarshal([]byte(field), &cfg); err != nil {
			return nil, errConfigJSON
		}

		return &cfg, nil
	}

	client, err := s.deps.Client(c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
	defer cancel()

	return s.deps.Editor.Import(ctx, client)
}
