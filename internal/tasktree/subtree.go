package tasktree

// SoftDeleteSubtree marks the node and all of its transitive children deleted
// and returns the ids that were not already deleted. Deleting an already
// deleted node yields an empty result.
func SoftDeleteSubtree(nodes []Node, id uint64) ([]uint64, error) {
	root, ok := find(nodes, id)
	if !ok {
		return nil, ErrNotFound
	}

	affected := make([]uint64, 0)
	if root.IsDeleted {
		return affected, nil
	}

	byID := make(map[uint64]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	for _, nodeID := range append([]uint64{id}, Descendants(nodes, id)...) {
		if !byID[nodeID].IsDeleted {
			affected = append(affected, nodeID)
		}
	}
	return affected, nil
}

// Descendants returns the ids of every transitive child of id, deleted or not.
// Each id is visited once even if the stored parent links form a cycle.
func Descendants(nodes []Node, id uint64) []uint64 {
	children := childIndex(nodes)

	visited := map[uint64]bool{id: true}
	result := make([]uint64, 0)
	queue := []uint64{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// Reparent moves the node under newParentID (nil for root level). Without an
// explicit position the node is appended after its new siblings.
func Reparent(nodes []Node, id uint64, newParentID *uint64, explicitPosition *int64) (Node, error) {
	node, ok := find(nodes, id)
	if !ok || node.IsDeleted {
		return Node{}, ErrNotFound
	}

	if newParentID != nil {
		if *newParentID == id {
			return Node{}, ErrInvalidParent
		}
		parent, ok := find(nodes, *newParentID)
		if !ok || parent.IsDeleted || parent.TeamID != node.TeamID {
			return Node{}, ErrInvalidParent
		}
		for _, d := range Descendants(nodes, id) {
			if d == *newParentID {
				return Node{}, ErrInvalidParent
			}
		}
	}

	siblings := SiblingsOf(nodes, newParentID)
	if i := indexOf(siblings, id); i >= 0 {
		siblings = append(siblings[:i:i], siblings[i+1:]...)
	}

	var position int64
	if explicitPosition != nil {
		for _, s := range siblings {
			if s.Position == *explicitPosition {
				return Node{}, ErrPositionCollision
			}
		}
		position = *explicitPosition
	} else {
		position = NextPosition(siblings)
	}

	node.ParentID = copyID(newParentID)
	node.Position = position
	return node, nil
}

// FindDuplicatePositions returns every non-deleted sibling group in which two
// or more nodes share a position, each group in SiblingsOf order.
func FindDuplicatePositions(nodes []Node) [][]Node {
	type groupKey struct {
		team   uint64
		root   bool
		parent uint64
	}

	seen := make(map[groupKey]bool)
	groups := make([][]Node, 0)
	for _, n := range nodes {
		if n.IsDeleted {
			continue
		}
		key := groupKey{team: n.TeamID, root: n.ParentID == nil}
		if n.ParentID != nil {
			key.parent = *n.ParentID
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		siblings := SiblingsOf(teamNodes(nodes, n.TeamID), n.ParentID)
		for i := 1; i < len(siblings); i++ {
			if siblings[i].Position == siblings[i-1].Position {
				groups = append(groups, siblings)
				break
			}
		}
	}
	return groups
}

func childIndex(nodes []Node) map[uint64][]uint64 {
	children := make(map[uint64][]uint64)
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}
	return children
}

func teamNodes(nodes []Node, teamID uint64) []Node {
	result := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.TeamID == teamID {
			result = append(result, n)
		}
	}
	return result
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
