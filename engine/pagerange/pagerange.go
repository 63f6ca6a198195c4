// Package pagerange parses human page selections such as "1-5,7,9-11".
package pagerange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// All is the selection keyword meaning every page of the document.
const All = "all"

// Parse resolves expression against a document of totalPages pages and
// returns zero-based page indices in the order the tokens list them.
// Pages past the end of the document are dropped, never reported.
func Parse(expression string, totalPages int) ([]int, error) {
	indices := []int{}
	for _, raw := range strings.Split(expression, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			return nil, fmt.Errorf("%w: empty token in %q", apierr.ErrInvalidPageRange, expression)
		}

		if startStr, endStr, isRange := strings.Cut(token, "-"); isRange {
			start, err := pageNumber(startStr, token)
			if err != nil {
				return nil, err
			}
			end, err := pageNumber(endStr, token)
			if err != nil {
				return nil, err
			}
			end = min(end, totalPages)
			for i := start; i <= end; i++ {
				indices = append(indices, i-1)
			}
			continue
		}

		n, err := pageNumber(token, token)
		if err != nil {
			return nil, err
		}
		if n <= totalPages {
			indices = append(indices, n-1)
		}
	}
	return indices, nil
}

// Selection resolves a selection that may be empty or "all" to every page.
func Selection(expression string, totalPages int) ([]int, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" || strings.EqualFold(expression, All) {
		indices := make([]int, totalPages)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	return Parse(expression, totalPages)
}

// Validate checks the syntax of an expression without a page count.
func Validate(expression string) error {
	_, err := Parse(expression, 0)
	return err
}

// PageNumbers converts zero-based indices to the one-based numbers PDF libraries expect.
func PageNumbers(indices []int) []int {
	numbers := make([]int, len(indices))
	for i, idx := range indices {
		numbers[i] = idx + 1
	}
	return numbers
}

func pageNumber(s, token string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a page number", apierr.ErrInvalidPageRange, token)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %q pages start at 1", apierr.ErrInvalidPageRange, token)
	}
	return n, nil
}
