package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSeatNumbers(t *testing.T) {
	tests := []struct {
		total int
		want  []string
	}{
		{total: 1, want: []string{"A1"}},
		{total: 4, want: []string{"A1", "A2", "B1", "B2"}},
		{total: 5, want: []string{"A1", "A2", "B1", "B2", "C1"}},
		{total: 10, want: []string{"A1", "A2", "A3", "B1", "B2", "B3", "C1", "C2", "C3", "D1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateSeatNumbers(tt.total), "total=%d", tt.total)
	}
}

func TestGenerateSeatNumbersCountAndUniqueness(t *testing.T) {
	for _, total := range []int{2, 7, 50, 99, 100, 101, 1000} {
		numbers := GenerateSeatNumbers(total)
		assert.Len(t, numbers, total)
		seen := make(map[string]bool, total)
		for _, n := range numbers {
			assert.False(t, seen[n], "duplicate %s for total=%d", n, total)
			seen[n] = true
		}
	}
}

func TestGenerateSeatNumbersRejectsNonPositive(t *testing.T) {
	assert.Empty(t, GenerateSeatNumbers(0))
	assert.Empty(t, GenerateSeatNumbers(-3))
}

func TestRowLabel(t *testing.T) {
	assert.Equal(t, "A", rowLabel(0))
	assert.Equal(t, "Z", rowLabel(25))
	assert.Equal(t, "AA", rowLabel(26))
	assert.Equal(t, "AZ", rowLabel(51))
	assert.Equal(t, "BA", rowLabel(52))
	for i := 0; i < 800; i++ {
		assert.Equal(t, i, rowIndex(rowLabel(i)))
	}
}

func TestGenerateSeatNumbersPastRowZ(t *testing.T) {
	// 27 rows of 27 seats
	numbers := GenerateSeatNumbers(27 * 27)
	assert.Equal(t, "Z27", numbers[26*27-1])
	assert.Equal(t, "AA1", numbers[26*27])
	assert.Equal(t, "AA27", numbers[len(numbers)-1])
}

func TestSortSeatNumbers(t *testing.T) {
	numbers := []string{"B1", "A10", "AA1", "A2", "Z3", "A1"}
	SortSeatNumbers(numbers)
	assert.Equal(t, []string{"A1", "A2", "A10", "B1", "Z3", "AA1"}, numbers)
}

func TestNormalizeSeatNumbers(t *testing.T) {
	assert.Equal(t, []string{"A1", "B2"}, normalizeSeatNumbers([]string{" B2", "A1", "A1 ", "", "B2"}))
	assert.Empty(t, normalizeSeatNumbers([]string{" ", ""}))
}
