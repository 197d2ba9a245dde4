package dragplan

// Session carries one drag from start to drop. Over and OverColumn only recompute the proposed
// target; Drop is the single call that mutates. A cancelled session, or a drop with no current
// target, leaves the tree untouched.
type Session struct {
	tree   Tree
	cfg    Config
	start  Start
	active bool

	target    *Placement
	colTarget *ColumnPlacement
}

func NewSession(tree Tree, cfg Config) *Session {
	return &Session{tree: tree, cfg: cfg}
}

// Start begins dragging taskID from y. It fails for missing or deleted tasks.
func (s *Session) Start(taskID string, y int) bool {
	t, ok := s.tree.FindTask(taskID)
	if !ok || t.IsDeleted() {
		return false
	}
	s.start = Start{TaskID: t.ID, Y: y}
	s.active = true
	s.target, s.colTarget = nil, nil
	return true
}

func (s *Session) Active() bool { return s.active }

func (s *Session) DraggedID() string {
	if !s.active {
		return ""
	}
	return s.start.TaskID
}

// Over recomputes the outline target for the pointer.
func (s *Session) Over(rows []Row, p Pointer) (Placement, bool) {
	if !s.active {
		return Placement{}, false
	}
	s.colTarget = nil
	pl, ok := Plan(s.tree, rows, s.start, p, s.cfg)
	if !ok {
		s.target = nil
		return Placement{}, false
	}
	s.target = &pl
	return pl, true
}

// OverColumn recomputes the board target for the pointer.
func (s *Session) OverColumn(col Column, p Pointer) (ColumnPlacement, bool) {
	if !s.active {
		return ColumnPlacement{}, false
	}
	s.target = nil
	pl, ok := PlanColumn(s.tree, col, s.start.TaskID, p)
	if !ok {
		s.colTarget = nil
		return ColumnPlacement{}, false
	}
	s.colTarget = &pl
	return pl, true
}

// Leave clears the current target; the drag itself continues.
func (s *Session) Leave() {
	s.target, s.colTarget = nil, nil
}

// Target returns the current outline proposal, if any.
func (s *Session) Target() (Placement, bool) {
	if s.target == nil {
		return Placement{}, false
	}
	return *s.target, true
}

// ColumnTarget returns the current board proposal, if any.
func (s *Session) ColumnTarget() (ColumnPlacement, bool) {
	if s.colTarget == nil {
		return ColumnPlacement{}, false
	}
	return *s.colTarget, true
}

func (s *Session) Cancel() {
	s.active = false
	s.target, s.colTarget = nil, nil
}

// Drop commits the current target and ends the session. It reports whether the tree changed.
func (s *Session) Drop(a Applier) bool {
	if !s.active {
		return false
	}
	target, colTarget := s.target, s.colTarget
	s.Cancel()
	switch {
	case target != nil:
		return Commit(a, *target)
	case colTarget != nil:
		return CommitColumn(a, s.tree, *colTarget, s.cfg.ManualSort)
	}
	return false
}
