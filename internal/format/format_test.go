package format

import "testing"

func TestYear(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2021-05-06", "2021"},
		{"1999-10-15", "1999"},
		{"2021", "2021"},
		{"2021-05", "2021"},
		{"", ""},
		{"not a date", ""},
		{"21", ""},
	}
	for _, tt := range tests {
		if got := Year(tt.in); got != tt.want {
			t.Errorf("Year(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"abcdef", 4, "abcd..."},
		{"abc", 4, "abc"},
		{"abcd", 4, "abcd"},
		{"", 4, ""},
		{"ab  cdef", 4, "ab..."},
		{"héllo wörld", 5, "héllo..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRating(t *testing.T) {
	if got := Rating(8.43); got != "8.4" {
		t.Errorf("Rating = %q", got)
	}
	if got := Rating(0); got != "0.0" {
		t.Errorf("Rating = %q", got)
	}
}

func TestRuntime(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, ""},
		{45, "45m"},
		{60, "1h 0m"},
		{125, "2h 5m"},
	}
	for _, tt := range tests {
		if got := Runtime(tt.in); got != tt.want {
			t.Errorf("Runtime(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
