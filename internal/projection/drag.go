package projection

// DragPhase is the state of a drag gesture.
type DragPhase int

// DragPhase values.
const (
	DragIdle DragPhase = iota
	DragDragging
	DragDropped
	DragCancelled
)

// String returns the phase name.
func (p DragPhase) String() string {
	switch p {
	case DragDragging:
		return "dragging"
	case DragDropped:
		return "dropped"
	case DragCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// DropResult is what a completed drag commits.
type DropResult[L comparable] struct {
	TaskID string
	Origin L
	Target L
}

// Moved reports whether the drop landed somewhere other than where it started.
func (r DropResult[L]) Moved() bool {
	return r.Origin != r.Target
}

// Drag tracks one gesture over locations of type L: idle -> dragging -> dropped | cancelled.
// Only Drop yields a result; Move is preview only.
type Drag[L comparable] struct {
	phase  DragPhase
	taskID string
	origin L
	target L
}

// Phase returns the current phase.
func (d *Drag[L]) Phase() DragPhase {
	return d.phase
}

// Active reports whether a gesture is in flight.
func (d *Drag[L]) Active() bool {
	return d.phase == DragDragging
}

// TaskID returns the task being dragged, if any.
func (d *Drag[L]) TaskID() string {
	if d.phase != DragDragging {
		return ""
	}
	return d.taskID
}

// Target returns the current hover location.
func (d *Drag[L]) Target() L {
	return d.target
}

// Begin picks up a task at origin. It fails while another gesture is in flight.
func (d *Drag[L]) Begin(taskID string, origin L) bool {
	if d.phase == DragDragging || taskID == "" {
		return false
	}
	d.phase = DragDragging
	d.taskID = taskID
	d.origin = origin
	d.target = origin
	return true
}

// Move updates the hover location.
func (d *Drag[L]) Move(target L) bool {
	if d.phase != DragDragging {
		return false
	}
	d.target = target
	return true
}

// Drop ends the gesture and returns what to commit.
func (d *Drag[L]) Drop() (DropResult[L], bool) {
	if d.phase != DragDragging {
		return DropResult[L]{}, false
	}
	d.phase = DragDropped
	return DropResult[L]{TaskID: d.taskID, Origin: d.origin, Target: d.target}, true
}

// Cancel abandons the gesture without a result.
func (d *Drag[L]) Cancel() bool {
	if d.phase != DragDragging {
		return false
	}
	d.phase = DragCancelled
	return true
}
