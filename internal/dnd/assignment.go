package dnd

import "maps"

// Assignment records that an item was dropped onto a zone.
type Assignment[T any] struct {
	ZoneID string
	Data   T
}

// assignmentTable maps item ids to their current assignment.
type assignmentTable[T any] struct {
	items map[string]Assignment[T]
}

func newAssignmentTable[T any]() assignmentTable[T] {
	return assignmentTable[T]{items: make(map[string]Assignment[T])}
}

func (t *assignmentTable[T]) put(itemID string, a Assignment[T]) {
	t.items[itemID] = a
}

func (t *assignmentTable[T]) remove(itemID string) bool {
	if _, ok := t.items[itemID]; !ok {
		return false
	}
	delete(t.items, itemID)
	return true
}

func (t *assignmentTable[T]) get(itemID string) (Assignment[T], bool) {
	a, ok := t.items[itemID]
	return a, ok
}

// countIn counts the items assigned to zoneID, not counting exclude.
func (t *assignmentTable[T]) countIn(zoneID, exclude string) int {
	n := 0
	for id, a := range t.items {
		if a.ZoneID == zoneID && id != exclude {
			n++
		}
	}
	return n
}

func (t *assignmentTable[T]) snapshot() map[string]Assignment[T] {
	return maps.Clone(t.items)
}
