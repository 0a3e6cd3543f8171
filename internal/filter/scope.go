package filter

import "slices"

// Scope restricts requested project ids to the browsable ones.
//
// An empty request means every browsable project. Requested ids the caller may
// not browse are returned as denied and dropped from scoped. Both results are
// sorted.
func Scope(requested, browsable []int64) (scoped, denied []int64) {
	allowed := uniq(browsable)
	if len(requested) == 0 {
		if allowed == nil {
			allowed = []int64{}
		}
		return allowed, []int64{}
	}

	scoped, denied = []int64{}, []int64{}
	for _, id := range uniq(requested) {
		if _, ok := slices.BinarySearch(allowed, id); ok {
			scoped = append(scoped, id)
		} else {
			denied = append(denied, id)
		}
	}
	return scoped, denied
}
