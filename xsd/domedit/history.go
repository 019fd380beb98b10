package domedit

// EditKind names which operation produced an EditRecord.
type EditKind string

const (
	KindAddElement   EditKind = "add_element"
	KindRemoveElement EditKind = "remove_element"
	KindRename       EditKind = "rename"
	KindAddAttribute EditKind = "add_attribute"
	KindAddFacet     EditKind = "add_facet"
	KindAddAssertion EditKind = "add_assertion"
)

// EditRecord is sufficient to reverse the edit that produced it, per
// spec.md §4.5/§9. The engine returns these but never owns an undo/redo
// stack; History is an optional helper for callers who want one (grounded
// on the teacher's preference for returning data over owning mutable
// global state, e.g. SchemaCache's explicit Clear/invalidate lifecycle).
type EditRecord struct {
	Kind EditKind

	// XPath is the location of the node the edit affected, as it exists
	// after the edit.
	XPath string

	// ParentXPath and Index locate where to reinsert a removed node, or
	// where to remove a node that was added.
	ParentXPath string
	Index       int

	// Attribute names the attribute affected by add_attribute, or holds
	// the element's old local name for rename.
	Attribute string
	OldValue  string // prior attribute value, or prior element name
	NewValue  string // new attribute value, or new element name

	// Before/After are serialized snapshots of the affected node, used to
	// reverse (Before) or reapply (After) add_element/remove_element/
	// add_facet/add_assertion edits. Before is "" when the node did not
	// exist prior to the edit.
	Before string
	After  string

	// VersioningAdded records whether this edit is the one that injected
	// xmlns:vc/vc:minVersion, so Undo can remove it again.
	VersioningAdded bool
}

// History is a caller-owned undo/redo stack built from EditRecords.
type History struct {
	undoStack []EditRecord
	redoStack []EditRecord
}

// NewHistory creates an empty undo/redo stack.
func NewHistory() *History {
	return &History{}
}

// Push records a successful edit, clearing the redo stack.
func (h *History) Push(rec EditRecord) {
	h.undoStack = append(h.undoStack, rec)
	h.redoStack = nil
}

// CanUndo reports whether Undo has anything to reverse.
func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

// CanRedo reports whether Redo has anything to reapply.
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// Undo reverses the most recent edit against doc.
func (h *History) Undo(doc *Document) error {
	if !h.CanUndo() {
		return nil
	}
	rec := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	if err := doc.undo(rec); err != nil {
		h.undoStack = append(h.undoStack, rec)
		return err
	}
	h.redoStack = append(h.redoStack, rec)
	return nil
}

// Redo reapplies the most recently undone edit.
func (h *History) Redo(doc *Document) error {
	if !h.CanRedo() {
		return nil
	}
	rec := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	if err := doc.redo(rec); err != nil {
		h.redoStack = append(h.redoStack, rec)
		return err
	}
	h.undoStack = append(h.undoStack, rec)
	return nil
}
