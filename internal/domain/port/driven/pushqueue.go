package driven

// PushQueue is the driving side's handle to the background push pipeline.
// Enqueue is fire-and-forget: delivery is at-least-once and no result is
// observable through this interface; outcomes land on the assignment's
// push result fields.
type PushQueue interface {
	Enqueue(assignmentID int64, action string)
}
