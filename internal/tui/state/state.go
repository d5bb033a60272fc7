package state

import "github.com/glabrego/tipfeed-cli/internal/model"

// Chrome is the number of rows the header, toolbar and footer take around the
// entry list.
const Chrome = 6

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	return max(0, min(cursor, size-1))
}

// PageStep is how far pgup/pgdown move: one screen of entries less the rows
// taken by the status panel or an open prompt.
func PageStep(height, extraRows int) int {
	if height <= 0 {
		return 10
	}
	return max(3, height-Chrome-extraRows)
}

// Window returns the half-open range of entries to draw so the cursor sits in
// the middle of a list height rows tall.
func Window(total, cursor, height int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	if height <= 0 || total <= height {
		return 0, total
	}
	start = max(0, ClampCursor(cursor, total)-height/2)
	start = min(start, total-height)
	return start, start + height
}

func EntryIndexByID(entries []model.Entry, id string) int {
	for i, entry := range entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// FollowCursor keeps the selection on the same entry after the list was
// patched underneath it. When the entry is gone the cursor stays in place,
// clamped to the new length.
func FollowCursor(entries []model.Entry, selectedID string, cursor int) int {
	if selectedID != "" {
		if idx := EntryIndexByID(entries, selectedID); idx >= 0 {
			return idx
		}
	}
	return ClampCursor(cursor, len(entries))
}
