package listing

import (
	"strconv"
	"testing"

	"bookingcrm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute(t *testing.T) {
	tests := []struct {
		name                   string
		count, current, size   int
		wantCurrent, wantTotal int
	}{
		{"clamps to last page", 25, 5, 10, 3, 25},
		{"empty result resets to first page", 0, 4, 10, 1, 0},
		{"keeps valid page", 25, 2, 10, 2, 25},
		{"exact multiple", 30, 3, 10, 3, 30},
		{"non-positive page becomes first", 5, 0, 10, 1, 5},
		{"negative count treated as empty", -3, 2, 10, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Recompute(tt.count, tt.current, tt.size)
			assert.Equal(t, tt.wantCurrent, p.Current)
			assert.Equal(t, tt.wantTotal, p.Total)
			assert.Equal(t, tt.size, p.Size)
		})
	}
}

func TestRecompute_DefaultsPageSize(t *testing.T) {
	p := Recompute(3, 1, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
}

func TestPage_SetPage(t *testing.T) {
	p := Page{Current: 1, Size: 10, Total: 25}

	assert.False(t, p.SetPage(0))
	assert.False(t, p.SetPage(4))
	assert.Equal(t, 1, p.Current)

	assert.True(t, p.SetPage(3))
	assert.Equal(t, 3, p.Current)

	empty := Page{Current: 1, Size: 10}
	assert.False(t, empty.SetPage(1))
}

func TestPage_SetPageSizeResetsToFirstPage(t *testing.T) {
	p := Page{Current: 3, Size: 10, Total: 25}
	require.NoError(t, p.SetPageSize(20))
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 20, p.Size)

	err := p.SetPageSize(0)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 20, p.Size)
}

func TestPage_Slice(t *testing.T) {
	rows := make([]Record, 25)
	for i := range rows {
		rows[i] = Record{ID: strconv.Itoa(i + 1)}
	}

	p := Page{Current: 3, Size: 10, Total: 25}
	got := p.Slice(rows)
	require.Len(t, got, 5)
	assert.Equal(t, "21", got[0].ID)
	assert.Equal(t, "25", got[4].ID)

	lo, hi := Page{Current: 9, Size: 10}.Bounds(25)
	assert.Equal(t, 25, lo)
	assert.Equal(t, 25, hi)
}

func TestValidPageSize(t *testing.T) {
	assert.True(t, ValidPageSize(50))
	assert.False(t, ValidPageSize(15))
}
