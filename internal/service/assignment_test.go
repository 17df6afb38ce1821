package service

import (
	"reflect"
	"sort"
	"testing"
)

func sorted(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestDiffAssignments(t *testing.T) {
	tests := []struct {
		name       string
		current    []uint
		selection  []uint
		wantAdd    []uint
		wantRemove []uint
	}{
		{
			name:       "overlap",
			current:    []uint{1, 2, 3},
			selection:  []uint{2, 3, 4},
			wantAdd:    []uint{4},
			wantRemove: []uint{1},
		},
		{
			name:       "empty selection removes everything",
			current:    []uint{5, 6},
			selection:  nil,
			wantAdd:    nil,
			wantRemove: []uint{5, 6},
		},
		{
			name:       "empty current adds everything",
			current:    nil,
			selection:  []uint{7, 8},
			wantAdd:    []uint{7, 8},
			wantRemove: nil,
		},
		{
			name:       "identical sets are a no-op",
			current:    []uint{1, 2},
			selection:  []uint{2, 1},
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "duplicates collapse",
			current:    []uint{1, 1, 2},
			selection:  []uint{2, 3, 3},
			wantAdd:    []uint{3},
			wantRemove: []uint{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAdd, gotRemove := DiffAssignments(tt.current, tt.selection)
			if !reflect.DeepEqual(sorted(gotAdd), sorted(tt.wantAdd)) {
				t.Errorf("toAdd = %v, want %v", gotAdd, tt.wantAdd)
			}
			if !reflect.DeepEqual(sorted(gotRemove), sorted(tt.wantRemove)) {
				t.Errorf("toRemove = %v, want %v", gotRemove, tt.wantRemove)
			}
		})
	}
}

func TestDiffAssignmentsStrings(t *testing.T) {
	gotAdd, gotRemove := DiffAssignments(
		[]string{"a", "b"},
		[]string{"b", "c"},
	)
	if !reflect.DeepEqual(gotAdd, []string{"c"}) || !reflect.DeepEqual(gotRemove, []string{"a"}) {
		t.Errorf("got add=%v remove=%v, want add=[c] remove=[a]", gotAdd, gotRemove)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]uint{3, 1, 3, 2, 1})
	if !reflect.DeepEqual(got, []uint{3, 1, 2}) {
		t.Errorf("dedupe = %v, want [3 1 2]", got)
	}
}
