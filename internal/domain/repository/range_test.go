package repository

import "testing"

func TestNormalizeRange(t *testing.T) {
	cases := map[int]ChartRange{-1: Range30, 0: Range30, 5: Range7, 7: Range7, 8: Range30, 60: Range90, 91: Range180, 500: Range180}
	for in, want := range cases {
		if got := NormalizeRange(in); got != want {
			t.Fatalf("NormalizeRange(%d) = %d, want %d", in, got, want)
		}
	}
}
