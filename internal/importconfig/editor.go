package importconfig

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoADConsole/GoADConsole/internal/adapi"
	"github.com/GoADConsole/GoADConsole/internal/validation"
)

// ErrInvalid wraps validation failures. Invalid sections are never sent to the backend.
var ErrInvalid = errors.New("invalid configuration")

// Backend reads and writes configuration sections.
type Backend interface {
	GetConfig(ctx context.Context, section string, out any) error
	PutConfig(ctx context.Context, section string, in any) error
}

// Editor loads and stores the configuration sections.
type Editor struct {
	validate *validator.Validate
}

// NewEditor returns an editor.
func NewEditor() *Editor {
	return &Editor{validate: validation.New()}
}

// load decodes section into out. A section the backend does not know yet leaves out untouched.
func load(ctx context.Context, b Backend, section string, out any) error {
	err := b.GetConfig(ctx, section, out)

	var se *adapi.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil
	}

	return err
}

func (e *Editor) save(ctx context.Context, b Backend, section string, in any) error {
	if err := e.Validate(in); err != nil {
		return err
	}

	return b.PutConfig(ctx, section, in)
}

// Validate checks a section value.
func (e *Editor) Validate(in any) error {
	if err := e.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(validation.Messages(err), "; "))
	}

	return nil
}

// Import returns the CSV import configuration.
func (e *Editor) Import(ctx context.Context, b Backend) (*ImportConfig, error) {
	cfg := DefaultImportConfig()
	if err := load(ctx, b, SectionImport, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveImport validates and stores the CSV import configuration.
func (e *Editor) SaveImport(ctx context.Context, b Backend, cfg *ImportConfig) error {
	return e.save(ctx, b, SectionImport, cfg)
}

// Mappings returns the attribute mappings.
func (e *Editor) Mappings(ctx context.Context, b Backend) (*AttributeMappings, error) {
	m := AttributeMappings{Mappings: []AttributeMapping{}}
	if err := load(ctx, b, SectionAttributeMappings, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// SaveMappings validates and stores the attribute mappings. Blank rows are dropped.
func (e *Editor) SaveMappings(ctx context.Context, b Backend, m *AttributeMappings) error {
	kept := m.Mappings[:0]

	for _, am := range m.Mappings {
		am.Source = strings.TrimSpace(am.Source)
		am.Attribute = strings.TrimSpace(am.Attribute)

		if am.Source == "" && am.Attribute == "" {
			continue
		}

		kept = append(kept, am)
	}

	m.Mappings = kept

	return e.save(ctx, b, SectionAttributeMappings, m)
}

// Teams returns the Teams integration configuration.
func (e *Editor) Teams(ctx context.Context, b Backend) (*TeamsConfig, error) {
	t := TeamsConfig{ChannelMappings: []ChannelMapping{}}
	if err := load(ctx, b, SectionTeams, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// SaveTeams validates and stores the Teams integration configuration.
func (e *Editor) SaveTeams(ctx context.Context, b Backend, t *TeamsConfig) error {
	return e.save(ctx, b, SectionTeams, t)
}
