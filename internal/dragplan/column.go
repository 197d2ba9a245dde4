package dragplan

// Card is one rendered board card.
type Card struct {
	TaskID string
	Y      int
	Height int
}

func (c Card) bottom() int { return c.Y + max(c.Height, 1) }

// Column is one status column of the board. Top is where the indicator goes when it is empty.
type Column struct {
	StatusID string
	Top      int
	Cards    []Card
}

// ColumnPlacement moves TaskID into StatusID's column at Index among the column's other cards
// (Order, top to bottom, without the dragged task).
type ColumnPlacement struct {
	TaskID   string
	StatusID string
	Index    int
	LineY    int
	Order    []string
}

// PlanColumn is the board variant of Plan: boundaries are the card tops plus the bottom of the
// last card. Only live root tasks can be dragged on the board, and Shift disables it.
func PlanColumn(tree Tree, col Column, draggedID string, p Pointer) (ColumnPlacement, bool) {
	dragged, ok := tree.FindTask(draggedID)
	if !ok || dragged.IsDeleted() || dragged.ParentID != "" || p.Shift {
		return ColumnPlacement{}, false
	}

	order := make([]string, 0, len(col.Cards))
	for _, c := range col.Cards {
		if c.TaskID != dragged.ID {
			order = append(order, c.TaskID)
		}
	}
	if len(col.Cards) == 0 {
		return ColumnPlacement{TaskID: dragged.ID, StatusID: col.StatusID, LineY: col.Top, Order: order}, true
	}

	boundaries := make([]int, 0, len(col.Cards)+1)
	for _, c := range col.Cards {
		boundaries = append(boundaries, c.Y)
	}
	boundaries = append(boundaries, col.Cards[len(col.Cards)-1].bottom())

	k := nearest(boundaries, p.Y)
	index := k
	for i, c := range col.Cards {
		if c.TaskID == dragged.ID && i < k {
			index--
		}
	}
	return ColumnPlacement{
		TaskID:   dragged.ID,
		StatusID: col.StatusID,
		Index:    index,
		LineY:    boundaries[k],
		Order:    order,
	}, true
}
