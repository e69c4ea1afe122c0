// Package testeq provides order-insensitive equality helpers
// for tests comparing map contents.
package testeq

import (
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Maps compares the expected and actual key-value associations,
// reporting every missing, unexpected and mismatching key through
// writer in ascending key order. Values are compared with go-cmp.
func Maps[K constraints.Ordered, V any](
	writer interface {
		Helper()
		Errorf(fmt string, v ...any)
	},
	title string,
	expected, actual map[K]V,
) (ok bool) {
	writer.Helper()
	ok = true

	expKeysOrdered := make([]K, 0, len(expected))
	for k := range expected {
		expKeysOrdered = append(expKeysOrdered, k)
	}
	slices.Sort(expKeysOrdered)

	actKeysOrdered := make([]K, 0, len(actual))
	for k := range actual {
		actKeysOrdered = append(actKeysOrdered, k)
	}
	slices.Sort(actKeysOrdered)

	for _, k := range expKeysOrdered {
		ev := expected[k]
		av, found := actual[k]
		if !found {
			writer.Errorf("missing %s %v (%v)", title, k, ev)
			ok = false
			continue
		}
		if !cmp.Equal(ev, av) {
			writer.Errorf(
				"mismatching %s %v: %s",
				title, k, cmp.Diff(ev, av),
			)
			ok = false
		}
	}

	for _, k := range actKeysOrdered {
		if _, found := expected[k]; !found {
			writer.Errorf("unexpected %s %v (%v)", title, k, actual[k])
			ok = false
		}
	}

	return ok
}
