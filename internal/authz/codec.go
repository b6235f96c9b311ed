package authz

import "strings"

// Encode produces the canonical persisted form of a category set: the
// ascending, deduplicated concatenation of each granted category's digit.
// Encoding the same effective set always yields the identical string, so
// repeated role edits converge instead of drifting.
func Encode(s CategorySet) string {
	var b strings.Builder
	for _, c := range s.Categories() {
		b.WriteByte(c.Digit())
	}
	return b.String()
}

// Decode parses a persisted permission encoding into a category set.
// Unrecognized characters and duplicates are discarded rather than
// rejected: legacy or corrupted data degrades to fewer permissions,
// never to a failure and never to broader access.
func Decode(code string) CategorySet {
	var s CategorySet
	for i := 0; i < len(code); i++ {
		if c, ok := CategoryFromDigit(code[i]); ok {
			s = s.With(c)
		}
	}
	return s
}

// HasCategory reports whether the encoded string grants the category
// without a full decode. Unknown categories are never granted.
func HasCategory(code string, c Category) bool {
	if !c.Valid() {
		return false
	}
	return strings.IndexByte(code, c.Digit()) >= 0
}
