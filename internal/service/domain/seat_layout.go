package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// GenerateSeatNumbers lays total seats out on a near-square grid:
// rows = ceil(sqrt(total)), seatsPerRow = ceil(total/rows). Rows are lettered
// A, B, C, ... and columns numbered from 1; the last row may be partial.
func GenerateSeatNumbers(total int) []string {
	if total < 1 {
		return nil
	}
	rows := int(math.Ceil(math.Sqrt(float64(total))))
	perRow := (total + rows - 1) / rows

	numbers := make([]string, 0, total)
	for row := 0; row < rows && len(numbers) < total; row++ {
		label := rowLabel(row)
		for col := 1; col <= perRow && len(numbers) < total; col++ {
			numbers = append(numbers, label+strconv.Itoa(col))
		}
	}
	return numbers
}

// rowLabel maps 0 -> A, 25 -> Z, 26 -> AA, spreadsheet style.
func rowLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

func rowIndex(label string) int {
	idx := 0
	for _, r := range label {
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1
}

// splitSeatNumber splits "AB12" into ("AB", 12). ok is false for anything
// not shaped like a generated seat number.
func splitSeatNumber(number string) (row string, col int, ok bool) {
	i := strings.IndexFunc(number, func(r rune) bool { return r < 'A' || r > 'Z' })
	if i <= 0 {
		return "", 0, false
	}
	col, err := strconv.Atoi(number[i:])
	if err != nil {
		return "", 0, false
	}
	return number[:i], col, true
}

// lessSeatNumber orders seats row first, then column, so A2 < A10 < B1.
func lessSeatNumber(a, b string) bool {
	ra, ca, okA := splitSeatNumber(a)
	rb, cb, okB := splitSeatNumber(b)
	if !okA || !okB {
		return a < b
	}
	if ia, ib := rowIndex(ra), rowIndex(rb); ia != ib {
		return ia < ib
	}
	return ca < cb
}

func SortSeatNumbers(numbers []string) {
	sort.SliceStable(numbers, func(i, j int) bool { return lessSeatNumber(numbers[i], numbers[j]) })
}

// normalizeSeatNumbers trims and de-duplicates a requested seat set and puts
// it in seat order.
func normalizeSeatNumbers(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	SortSeatNumbers(out)
	return out
}

func SortSeatViews(seats []SeatView) {
	sort.SliceStable(seats, func(i, j int) bool { return lessSeatNumber(seats[i].SeatNumber, seats[j].SeatNumber) })
}
