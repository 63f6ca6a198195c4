package pagerange

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		total      int
		want       []int
	}{
		{"single pages", "1,3,5", 10, []int{0, 2, 4}},
		{"range clamped at end", "8-12", 10, []int{7, 8, 9}},
		{"single past end", "50", 10, []int{}},
		{"range starting past end", "11-15", 10, []int{}},
		{"reversed range", "5-3", 10, []int{}},
		{"mixed", "1-3, 7 ,9-11", 10, []int{0, 1, 2, 6, 8, 9}},
		{"duplicates kept in order", "2,1-2", 5, []int{1, 0, 1}},
		{"whole document", "1-1", 1, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expression, tt.total)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.expression, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q, %d) = %v, want %v", tt.expression, tt.total, got, tt.want)
			}
		})
	}
}

func TestParseFullRange(t *testing.T) {
	for total := 1; total <= 40; total++ {
		got, err := Parse("1-"+strconv.Itoa(total), total)
		if err != nil {
			t.Fatalf("total %d: %v", total, err)
		}
		if len(got) != total {
			t.Fatalf("total %d: got %d indices", total, len(got))
		}
		for i, idx := range got {
			if idx != i {
				t.Fatalf("total %d: index %d = %d", total, i, idx)
			}
		}
	}
}

func TestParseIndicesInBounds(t *testing.T) {
	expressions := []string{"1-100", "3,99,4-7", "10-10", "2-3,1-50"}
	for _, expr := range expressions {
		for total := 1; total <= 12; total++ {
			got, err := Parse(expr, total)
			if err != nil {
				t.Fatalf("Parse(%q): %v", expr, err)
			}
			for _, idx := range got {
				if idx < 0 || idx >= total {
					t.Errorf("Parse(%q, %d) produced out of range index %d", expr, total, idx)
				}
			}
		}
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	bad := []string{"abc", "1,,2", "", "0", "1-x", "-3", "2-", "1.5", "0-4"}
	for _, expr := range bad {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr, 10)
			if !errors.Is(err, apierr.ErrInvalidPageRange) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidPageRange", expr, err)
			}
		})
	}
}

func TestSelection(t *testing.T) {
	for _, expr := range []string{"", "all", "ALL", "  all "} {
		got, err := Selection(expr, 3)
		if err != nil {
			t.Fatalf("Selection(%q): %v", expr, err)
		}
		if !reflect.DeepEqual(got, []int{0, 1, 2}) {
			t.Errorf("Selection(%q) = %v", expr, got)
		}
	}

	got, err := Selection("2", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Selection(\"2\") = %v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("1-5,8"); err != nil {
		t.Errorf("Validate returned %v", err)
	}
	if err := Validate("1-z"); err == nil {
		t.Error("Validate should reject non-numeric range end")
	}
}

func TestPageNumbers(t *testing.T) {
	if got := PageNumbers([]int{0, 4, 2}); !reflect.DeepEqual(got, []int{1, 5, 3}) {
		t.Errorf("PageNumbers = %v", got)
	}
}
