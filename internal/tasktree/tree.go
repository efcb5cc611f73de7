// Package tasktree orders a team's tasks as a forest of sibling groups.
//
// Every function works on a snapshot of nodes passed in by the caller and
// returns new values; nothing is stored between calls. Persisting the result
// (ideally inside one transaction) is the caller's job.
package tasktree

import (
	"errors"
	"sort"
)

// PositionStep is the gap left between positions of consecutively appended
// siblings so later midpoint insertions have room.
const PositionStep int64 = 1000

var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidParent     = errors.New("invalid parent task")
	ErrPositionCollision = errors.New("no free position between siblings")
	ErrInvalidDirection  = errors.New("direction must be up or down")
)

// Direction is the way Move shifts a task among its siblings.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Node is the ordering view of a task.
type Node struct {
	ID        uint64
	TeamID    uint64
	ParentID  *uint64
	Position  int64
	IsDeleted bool
}

// PositionUpdate is a single position write produced by Move or Renumber.
// From is the position the node held in the snapshot; writers apply the update
// only while the stored row still holds it.
type PositionUpdate struct {
	ID       uint64
	From     int64
	Position int64
}

// SiblingsOf returns the non-deleted nodes whose parent is exactly parentID,
// ordered by position and then by id.
func SiblingsOf(nodes []Node, parentID *uint64) []Node {
	siblings := make([]Node, 0)
	for _, n := range nodes {
		if n.IsDeleted || !sameParent(n.ParentID, parentID) {
			continue
		}
		siblings = append(siblings, n)
	}

	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Position != siblings[j].Position {
			return siblings[i].Position < siblings[j].Position
		}
		return siblings[i].ID < siblings[j].ID
	})

	return siblings
}

// NextPosition returns the position for a node appended after siblings.
func NextPosition(siblings []Node) int64 {
	if len(siblings) == 0 {
		return 0
	}

	highest := siblings[0].Position
	for _, s := range siblings[1:] {
		if s.Position > highest {
			highest = s.Position
		}
	}
	return highest + PositionStep
}

// Move swaps the task with its previous (up) or next (down) sibling.
// Moving the first sibling up or the last one down returns no updates.
func Move(nodes []Node, id uint64, direction Direction) ([]PositionUpdate, error) {
	var offset int
	switch direction {
	case DirectionUp:
		offset = -1
	case DirectionDown:
		offset = 1
	default:
		return nil, ErrInvalidDirection
	}

	task, ok := find(nodes, id)
	if !ok {
		return nil, ErrNotFound
	}

	siblings := SiblingsOf(nodes, task.ParentID)
	current := indexOf(siblings, id)
	if current < 0 {
		return nil, ErrNotFound
	}

	target := clamp(current+offset, 0, len(siblings)-1)
	if target == current {
		return []PositionUpdate{}, nil
	}

	a, b := siblings[current], siblings[target]
	return []PositionUpdate{
		{ID: a.ID, From: a.Position, Position: b.Position},
		{ID: b.ID, From: b.Position, Position: a.Position},
	}, nil
}

// InsertBetween returns a position between before and after. A nil before
// means the head of the list, a nil after means the tail, and both nil means
// an empty list.
func InsertBetween(before, after *int64) (int64, error) {
	switch {
	case before == nil && after == nil:
		return 0, nil
	case before == nil:
		return *after - PositionStep, nil
	case after == nil:
		return *before + PositionStep, nil
	}

	if *after-*before <= 1 {
		return 0, ErrPositionCollision
	}
	return *before + (*after-*before)/2, nil
}

// PositionAt returns the position that places a node at index among the
// siblings under parentID. excludeID is left out of the sibling list so a
// node being moved does not count against itself; pass 0 when creating.
// Indexes past the end append.
func PositionAt(nodes []Node, parentID *uint64, index int, excludeID uint64) (int64, error) {
	siblings := SiblingsOf(nodes, parentID)
	if excludeID != 0 {
		if i := indexOf(siblings, excludeID); i >= 0 {
			siblings = append(siblings[:i:i], siblings[i+1:]...)
		}
	}

	if index < 0 {
		index = 0
	}
	if index >= len(siblings) {
		return NextPosition(siblings), nil
	}

	after := siblings[index].Position
	if index == 0 {
		return InsertBetween(nil, &after)
	}
	before := siblings[index-1].Position
	return InsertBetween(&before, &after)
}

// Renumber spreads an ordered sibling group back out to 0, STEP, 2*STEP...
// Only nodes whose position changes are returned.
func Renumber(siblings []Node) []PositionUpdate {
	updates := make([]PositionUpdate, 0, len(siblings))
	for i, s := range siblings {
		pos := int64(i) * PositionStep
		if s.Position != pos {
			updates = append(updates, PositionUpdate{ID: s.ID, From: s.Position, Position: pos})
		}
	}
	return updates
}

// Compose folds batches computed one on top of another into a single batch
// against the original snapshot: From comes from a node's first update and
// Position from its last. Nodes that end where they started are dropped.
func Compose(batches ...[]PositionUpdate) []PositionUpdate {
	order := make([]uint64, 0)
	merged := make(map[uint64]PositionUpdate)
	for _, batch := range batches {
		for _, u := range batch {
			current, ok := merged[u.ID]
			if !ok {
				order = append(order, u.ID)
				merged[u.ID] = u
				continue
			}
			current.Position = u.Position
			merged[u.ID] = current
		}
	}

	updates := make([]PositionUpdate, 0, len(order))
	for _, id := range order {
		if u := merged[id]; u.From != u.Position {
			updates = append(updates, u)
		}
	}
	return updates
}

func find(nodes []Node, id uint64) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func indexOf(siblings []Node, id uint64) int {
	for i, s := range siblings {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func sameParent(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
