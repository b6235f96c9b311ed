// Package authz implements the permission model: the category codec, the
// role resolver, the permission cache and the authorization engine that
// gates every administrative route.
package authz

// Category is one of the four coarse administrative permission domains.
// Each category is persisted as a single decimal digit inside a role's
// permission encoding.
type Category uint8

const (
	// CategoryContent covers staff, performance records and period data.
	CategoryContent Category = 1
	// CategoryTaxonomy covers the task catalogue and scoring periods.
	CategoryTaxonomy Category = 2
	// CategoryRoles covers role management.
	CategoryRoles Category = 3
	// CategoryUsers covers user account management.
	CategoryUsers Category = 4
)

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c >= CategoryContent && c <= CategoryUsers
}

// Digit returns the persisted single-character code for the category.
func (c Category) Digit() byte {
	return '0' + byte(c)
}

// CategoryFromDigit maps a persisted digit back to its category.
func CategoryFromDigit(ch byte) (Category, bool) {
	c := Category(ch - '0')
	if !c.Valid() {
		return 0, false
	}
	return c, true
}

// CategorySet is a fixed-size bitmask of granted categories.
type CategorySet uint8

// NewCategorySet builds a set from the given categories. Invalid
// categories are ignored.
func NewCategorySet(categories ...Category) CategorySet {
	var s CategorySet
	for _, c := range categories {
		s = s.With(c)
	}
	return s
}

// With returns the set with c granted.
func (s CategorySet) With(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<(c-1)
}

// Without returns the set with c revoked.
func (s CategorySet) Without(c Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s &^ (1 << (c - 1))
}

// Has reports whether c is granted.
func (s CategorySet) Has(c Category) bool {
	if !c.Valid() {
		return false
	}
	return s&(1<<(c-1)) != 0
}

// Categories returns the granted categories in ascending order.
func (s CategorySet) Categories() []Category {
	out := make([]Category, 0, 4)
	for c := CategoryContent; c <= CategoryUsers; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of granted categories.
func (s CategorySet) Len() int {
	return len(s.Categories())
}

// IsEmpty reports whether no category is granted.
func (s CategorySet) IsEmpty() bool {
	return s == 0
}
