package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Compare orders two "major.minor.patch" versions, with or without a leading v.
// It returns 1 if a is newer, -1 if b is newer and 0 if they are equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		if c := cmp.Compare(av[i], bv[i]); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func parse(v string) ([3]int, error) {
	var parts [3]int

	// pre-release and build suffixes do not take part in the ordering
	v, _, _ = strings.Cut(strings.TrimPrefix(v, "v"), "-")
	v, _, _ = strings.Cut(v, "+")

	fields := strings.Split(v, ".")
	if len(fields) != 3 {
		return parts, fmt.Errorf("version %q: want major.minor.patch", v)
	}

	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return parts, fmt.Errorf("version %q: bad component %q", v, f)
		}
		parts[i] = n
	}
	return parts, nil
}
