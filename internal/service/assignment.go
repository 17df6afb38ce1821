package service

// DiffAssignments computes the minimal change set turning current into selection.
// Both inputs are treated as sets: duplicates collapse and order is ignored.
// The result feeds exactly one batched insert and one batched delete.
func DiffAssignments[T comparable](current, selection []T) (toAdd, toRemove []T) {
	currentSet := make(map[T]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	selectionSet := make(map[T]struct{}, len(selection))
	for _, id := range selection {
		selectionSet[id] = struct{}{}
	}

	added := make(map[T]struct{})
	for _, id := range selection {
		if _, ok := currentSet[id]; ok {
			continue
		}
		if _, dup := added[id]; dup {
			continue
		}
		added[id] = struct{}{}
		toAdd = append(toAdd, id)
	}

	removed := make(map[T]struct{})
	for _, id := range current {
		if _, ok := selectionSet[id]; ok {
			continue
		}
		if _, dup := removed[id]; dup {
			continue
		}
		removed[id] = struct{}{}
		toRemove = append(toRemove, id)
	}
	return toAdd, toRemove
}

// dedupe returns ids with duplicates removed, preserving first-seen order
func dedupe[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
