// Package pattern implements WIND's glob-style service-name matcher
// (spec.md §4.2/§6): names are "/"-separated segments, pattern segments are
// either literal or "*" (match any single segment), and segment counts must
// be equal — there is no "**".
//
// Grounded on the name-pattern registries in the reference corpus (the
// multicast/discovery registry family under other_examples), which hand-roll
// this same kind of exact-or-wildcard segment matcher rather than reach for
// a general globbing library — no third-party glob package appears anywhere
// in the corpus for this shape, so this stays on stdlib strings.Split.
package pattern

import "strings"

const wildcard = "*"

// Match reports whether name satisfies pattern: equal segment count, and
// each pattern segment either equals the corresponding name segment or is
// the wildcard "*".
func Match(pattern, name string) bool {
	patternSegs := strings.Split(pattern, "/")
	nameSegs := strings.Split(name, "/")
	if len(patternSegs) != len(nameSegs) {
		return false
	}
	for i, p := range patternSegs {
		if p != wildcard && p != nameSegs[i] {
			return false
		}
	}
	return true
}
