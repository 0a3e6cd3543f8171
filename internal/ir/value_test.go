package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = NewIRTime(time.Now())
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestIRObjectSortedKeysUTF16Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"AA": IRInt(6),
	}

	assert.Equal(t, []string{"A", "AA", "a", "aa"}, obj.SortedKeys())
}

func TestNewIRTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2024, 3, 1, 12, 0, 0, 0, loc)

	v := NewIRTime(local)

	assert.Equal(t, time.UTC, v.Time().Location())
	assert.True(t, v.Time().Equal(local))
	assert.Equal(t, "2024-03-01T10:00:00Z", v.String())
}

func TestStringsAndInts(t *testing.T) {
	assert.Equal(t, IRArray{IRString("UI"), IRString("API")}, Strings([]string{"UI", "API"}))
	assert.Equal(t, IRArray{IRInt(1), IRInt(2)}, Ints([]int64{1, 2}))
	assert.Empty(t, Strings(nil))
}

func TestMarshalIRValue(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"null", IRNull{}, "null"},
		{"string", IRString("hi"), `"hi"`},
		{"int", IRInt(7), "7"},
		{"bool", IRBool(false), "false"},
		{"time", NewIRTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), `"2024-01-02T03:04:05Z"`},
		{"array", IRArray{IRInt(1), IRString("x")}, `[1,"x"]`},
		{"object", IRObject{"b": IRInt(1), "a": IRInt(2)}, `{"a":2,"b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalIRValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestToParam(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   IRValue
		want    any
		wantErr bool
	}{
		{"string", IRString("P1"), "P1", false},
		{"int", IRInt(10), int64(10), false},
		{"bool", IRBool(true), true, false},
		{"time", NewIRTime(ts), ts, false},
		{"null", IRNull{}, nil, false},
		{"array", IRArray{IRInt(1)}, nil, true},
		{"object", IRObject{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToParam(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
