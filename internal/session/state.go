package session

import "errors"

var (
	ErrInvalidState = errors.New("step not allowed in the current state")
	ErrMissingInput = errors.New("missing input")
)

type State string

const (
	StateInit            State = "init"
	StateCatalogLoaded   State = "catalog_loaded"
	StateCatalogFiltered State = "catalog_filtered"
	StateCatalogApproved State = "catalog_approved"
	StateFilesSearched   State = "files_searched"
	StateFilesEdited     State = "files_edited"
	StateFilesApproved   State = "files_approved"
	StatePreview         State = "preview"
	StateFinalized       State = "finalized"
)

var stateRank = map[State]int{
	StateInit:            0,
	StateCatalogLoaded:   1,
	StateCatalogFiltered: 2,
	StateCatalogApproved: 3,
	StateFilesSearched:   4,
	StateFilesEdited:     5,
	StateFilesApproved:   6,
	StatePreview:         7,
	StateFinalized:       8,
}

// AtLeast reports whether s is at or past min in the workflow.
func (s State) AtLeast(min State) bool {
	return stateRank[s] >= stateRank[min]
}
