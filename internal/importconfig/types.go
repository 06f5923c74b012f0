// Package importconfig edits the CSV import, attribute mapping and Teams integration
// configuration stored by the backend.
package importconfig

// Configuration sections below /api/Config/.
const (
	SectionImport            = "import"
	SectionAttributeMappings = "attribute-mappings"
	SectionTeams             = "teams"
)

// Column transforms.
const (
	TransformNone       = "none"
	TransformTrim       = "trim"
	TransformLowercase  = "lowercase"
	TransformUppercase  = "uppercase"
	TransformCapitalize = "capitalize"
)

// Transforms lists the transforms offered by the editor.
var Transforms = []string{TransformNone, TransformTrim, TransformLowercase, TransformUppercase, TransformCapitalize}

// Column maps one CSV column to a directory attribute.
type Column struct {
	CSVColumn string `json:"csvColumn" validate:"required"`
	Attribute string `json:"attribute" validate:"required"`
	Required  bool   `json:"required"`
	Transform string `json:"transform,omitempty" validate:"omitempty,oneof=none trim lowercase uppercase capitalize"`
}

// ImportConfig describes how a CSV file becomes directory users.
type ImportConfig struct {
	Name             string   `json:"name" validate:"required,max=128"`
	Delimiter        string   `json:"delimiter" validate:"required,len=1"`
	HasHeader        bool     `json:"hasHeader"`
	TargetOU         string   `json:"targetOU" validate:"required,dn"`
	UpdateExisting   bool     `json:"updateExisting"`
	CreateMissingOUs bool     `json:"createMissingOUs"`
	Columns          []Column `json:"columns" validate:"required,min=1,dive"`
}

// DefaultImportConfig is shown before anything was stored.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Name:      "Default import",
		Delimiter: ",",
		HasHeader: true,
	}
}

// Comma returns the delimiter as a rune, defaulting to a comma.
func (c *ImportConfig) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}

	return ','
}

// AttributeMapping maps a source field name to a directory attribute.
type AttributeMapping struct {
	Source    string `json:"source" validate:"required"`
	Attribute string `json:"attribute" validate:"required"`
}

// AttributeMappings is the attribute-mappings section.
type AttributeMappings struct {
	Mappings []AttributeMapping `json:"mappings" validate:"dive"`
}

// ChannelMapping routes users of an OU to a Teams channel.
type ChannelMapping struct {
	OU        string `json:"ou" validate:"required,dn"`
	TeamID    string `json:"teamId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
}

// TeamsConfig is the collaboration suite integration section.
type TeamsConfig struct {
	Enabled         bool             `json:"enabled"`
	TenantID        string           `json:"tenantId" validate:"required_if=Enabled true"`
	ClientID        string           `json:"clientId" validate:"required_if=Enabled true"`
	DefaultTeamID   string           `json:"defaultTeamId"`
	ChannelMappings []ChannelMapping `json:"channelMappings" validate:"dive"`
}
