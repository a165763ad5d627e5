package drive

import (
	"context"
	"fmt"

	"comicsort/pkg/models"
)

type Mover interface {
	Move(ctx context.Context, fileID, parentID string) error
}

// MoveError reports the row a batch stopped at.
type MoveError struct {
	Index  int // position in the mapping list
	FileID string
	Moved  int // rows moved before the failure
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s (row %d, %d moved before it): %v", e.FileID, e.Index, e.Moved, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// ExecuteMoves moves each mapped file in order and stops at the first
// failure. onMoved, when set, is called after every successful move.
func ExecuteMoves(ctx context.Context, mover Mover, mappings []models.FinalMapping, onMoved func(models.FinalMapping)) (int, error) {
	for i, m := range mappings {
		if err := mover.Move(ctx, m.FileID, m.DestinationID); err != nil {
			return i, &MoveError{Index: i, FileID: m.FileID, Moved: i, Err: err}
		}
		if onMoved != nil {
			onMoved(m)
		}
	}
	return len(mappings), nil
}
