package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionMode(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want Mode
	}{
		{"empty", Selection{}, ModeAny},
		{"values only", Members("UI"), ModeMembers},
		{"sentinel only", Only(Missing), ModeSentinel},
		{"both", Selection{Values: []string{"UI"}, Sentinels: Missing}, ModeMembersOrSentinel},
		{"empty values slice", Selection{Values: []string{}}, ModeAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Mode())
		})
	}
}

func TestSentinelNamesRoundTrip(t *testing.T) {
	s := Missing | Unreleased
	assert.Equal(t, []string{"missing", "unreleased"}, s.Names())
	assert.Equal(t, "missing|unreleased", s.String())
	assert.Equal(t, "none", Sentinel(0).String())

	for _, name := range s.Names() {
		bit, err := ParseSentinel(name)
		require.NoError(t, err)
		assert.True(t, s.Has(bit))
	}
}

func TestSentinelHas(t *testing.T) {
	s := Missing | Released
	assert.True(t, s.Has(Missing))
	assert.True(t, s.Has(Missing|Released))
	assert.False(t, s.Has(Unreleased))
	assert.False(t, s.Has(0))
}

func TestParseSentinelUnknown(t *testing.T) {
	_, err := ParseSentinel("archived")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archived")

	bit, err := ParseSentinel("RELEASED")
	require.NoError(t, err)
	assert.Equal(t, Released, bit)
}

func TestParseColumn(t *testing.T) {
	c, err := ParseColumn("time_spent")
	require.NoError(t, err)
	assert.Equal(t, ColumnTimeSpent, c)

	c, err = ParseColumn("")
	require.NoError(t, err)
	assert.Equal(t, Column(""), c)

	_, err = ParseColumn("issueKey")
	assert.Error(t, err)

	assert.Len(t, Columns(), 18)
}

func TestPageBounded(t *testing.T) {
	assert.False(t, Page{}.Bounded())
	assert.False(t, Page{Offset: 10}.Bounded())
	assert.True(t, Page{Limit: 5}.Bounded())
}
