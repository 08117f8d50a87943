package naming

import "fmt"

// CollisionResolver tracks output names already claimed within one export
// and resolves duplicates deterministically: the second and later claimants
// of a name get " (2)", " (3)", ... inserted before the extension, in claim
// order. Not safe for concurrent use; each export builds its own resolver.
type CollisionResolver struct {
	claimed  map[string]bool
	counters map[string]int // requested name -> next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		claimed:  make(map[string]bool),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output name for the requested name. An
// unclaimed name is returned as-is; otherwise a numbered variant is
// generated and claimed.
func (cr *CollisionResolver) Resolve(requested string) string {
	if !cr.claimed[requested] {
		cr.claimed[requested] = true
		return requested
	}

	base, ext := SplitName(requested)

	counter := cr.counters[requested]
	if counter < 2 {
		counter = 2
	}

	for {
		candidate := fmt.Sprintf("%s (%d)%s", base, counter, ext)
		if !cr.claimed[candidate] {
			cr.counters[requested] = counter + 1
			cr.claimed[candidate] = true
			return candidate
		}
		counter++
	}
}
