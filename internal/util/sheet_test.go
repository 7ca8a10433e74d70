package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, names ...string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), names[0]))
	for _, name := range names[1:] {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	return f
}

func TestResolveSheet(t *testing.T) {
	f := newWorkbook(t, "1", "master", "2024")

	cases := []struct {
		name  string
		sheet string
		want  string
	}{
		{name: "empty is first", sheet: "", want: "1"},
		{name: "index", sheet: "0", want: "1"},
		{name: "digits are an index before a name", sheet: "1", want: "master"},
		{name: "by name", sheet: " master ", want: "master"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveSheet(f, tc.sheet)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveSheetNotFound(t *testing.T) {
	f := newWorkbook(t, "Sheet1")

	_, err := ResolveSheet(f, "missing")
	assert.ErrorIs(t, err, ErrNoSheet)

	_, err = ResolveSheet(f, "3")
	assert.ErrorIs(t, err, ErrNoSheet)

	_, err = ResolveSheet(f, "-1")
	assert.ErrorIs(t, err, ErrNoSheet)
}

func TestCellAtAndHeaderIndex(t *testing.T) {
	row := []string{" 品名 ", "薬価"}
	assert.Equal(t, "品名", CellAt(row, 0))
	assert.Equal(t, "", CellAt(row, 5))
	assert.Equal(t, 1, HeaderIndex(row, "薬価"))
	assert.Equal(t, 0, HeaderIndex(row, "品名"))
	assert.Equal(t, -1, HeaderIndex(row, ""))
}
