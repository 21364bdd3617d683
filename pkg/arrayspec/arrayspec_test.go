package arrayspec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, base, raw string) *Selector {
	t.Helper()
	sel, err := Parse(base, raw)
	require.NoError(t, err)
	return sel
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"empty is entire array", "", EntireArray},
		{"whitespace is entire array", "   ", EntireArray},
		{"range", "0-10", IndexRange},
		{"stepped range", "0-20:2", SteppedRange},
		{"single index list", "5", ExplicitList},
		{"list", "1,3,5,7", ExplicitList},
		{"list with spaces", "1, 3, 5", ExplicitList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := mustParse(t, "900", tt.raw)
			assert.Equal(t, tt.kind, sel.Kind)
			assert.Equal(t, "900", sel.Base)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"reversed range", "10-0"},
		{"zero step", "0-10:0"},
		{"negative index", "-1-5"},
		{"trailing comma", "1,2,"},
		{"letters", "abc"},
		{"mixed", "1-5,7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("900", tt.raw)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestResolveEntireArray(t *testing.T) {
	sel := mustParse(t, "900", "")
	res, err := sel.Resolve(Bounds{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"900"}, res.IDs, "entire array cancels the bare base id")
	assert.False(t, res.NeedsConfirmation)
}

func TestResolveRange(t *testing.T) {
	sel := mustParse(t, "900", "0-10")
	res, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.NoError(t, err)
	require.Len(t, res.IDs, 11)
	assert.Equal(t, "900_0", res.IDs[0])
	assert.Equal(t, "900_10", res.IDs[10])
}

func TestResolveSteppedRange(t *testing.T) {
	sel := mustParse(t, "900", "0-20:2")
	res, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.NoError(t, err)
	require.Len(t, res.IDs, 11)
	assert.Equal(t, "900_0", res.IDs[0])
	assert.Equal(t, "900_20", res.IDs[10])
}

func TestResolveExplicitList(t *testing.T) {
	sel := mustParse(t, "900", "1,3,5,7")
	res, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"900_1", "900_3", "900_5", "900_7"}, res.IDs, "order preserved")
}

func TestResolveDuplicateRejected(t *testing.T) {
	sel := mustParse(t, "900", "5,5,6")
	_, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasIndex)
	assert.Equal(t, 5, verr.Index)
}

func TestResolveOutOfBounds(t *testing.T) {
	sel := mustParse(t, "900", "0-50")
	_, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasIndex)
	assert.Equal(t, 21, verr.Index, "the first offending index is reported")
}

func TestResolveBelowLowerBound(t *testing.T) {
	sel := mustParse(t, "900", "0,1")
	_, err := sel.Resolve(Bounds{Low: 1, High: 20}, 0)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, verr.Index)
}

func TestConfirmationThreshold(t *testing.T) {
	bounds := Bounds{Low: 0, High: 500}

	// 101 resolved tasks: flagged, but not rejected.
	sel := mustParse(t, "900", "0-100")
	res, err := sel.Resolve(bounds, 0)
	require.NoError(t, err)
	assert.Len(t, res.IDs, 101)
	assert.True(t, res.NeedsConfirmation)

	// Exactly 100: not flagged.
	sel = mustParse(t, "900", "0-99")
	res, err = sel.Resolve(bounds, 0)
	require.NoError(t, err)
	assert.Len(t, res.IDs, 100)
	assert.False(t, res.NeedsConfirmation)

	// Custom threshold.
	sel = mustParse(t, "900", "0-10")
	res, err = sel.Resolve(bounds, 5)
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
}

func TestValidationErrorMessageNamesIndex(t *testing.T) {
	sel := mustParse(t, "900", "0-50")
	_, err := sel.Resolve(Bounds{Low: 0, High: 20}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", 21))
}
