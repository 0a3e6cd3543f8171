package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConventionsWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConventions(), Conventions{}.WithDefaults())

	custom := Conventions{EpicLinkType: "Parent Link"}.WithDefaults()
	assert.Equal(t, "Parent Link", custom.EpicLinkType)
	assert.Equal(t, DefaultEpicNameField, custom.EpicNameField)
}
