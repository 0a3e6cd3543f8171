// Package schema names the entities, association kinds and conventions of the
// work-tracking tables that reports are built over.
package schema

// Entity names stored in nodeassociation.source_node_entity / sink_node_entity.
const (
	EntityIssue     = "Issue"
	EntityComponent = "Component"
	EntityVersion   = "Version"
)

// Association kinds stored in nodeassociation.association_type.
const (
	AssocComponent      = "IssueComponent"
	AssocAffectsVersion = "IssueVersion"
	AssocFixVersion     = "IssueFixVersion"
)

// Released is the value of projectversion.released for released versions.
// Unreleased versions hold NULL.
const Released = "true"

// Default names of the link type and custom field that model epics.
const (
	DefaultEpicLinkType  = "Epic-Story Link"
	DefaultEpicNameField = "Epic Name"
)

// Conventions carries the installation-specific names used to find epics.
type Conventions struct {
	EpicLinkType  string `mapstructure:"link_type" yaml:"link_type"`
	EpicNameField string `mapstructure:"name_field" yaml:"name_field"`
}

// DefaultConventions returns the stock epic naming.
func DefaultConventions() Conventions {
	return Conventions{
		EpicLinkType:  DefaultEpicLinkType,
		EpicNameField: DefaultEpicNameField,
	}
}

// WithDefaults fills empty names with the stock ones.
func (c Conventions) WithDefaults() Conventions {
	if c.EpicLinkType == "" {
		c.EpicLinkType = DefaultEpicLinkType
	}
	if c.EpicNameField == "" {
		c.EpicNameField = DefaultEpicNameField
	}
	return c
}
