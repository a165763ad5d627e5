package drive

import (
	"context"
	"log"

	"comicsort/pkg/models"
)

// Lister lists the direct children of a drive folder.
type Lister interface {
	ListChildren(ctx context.Context, folderID string) ([]Item, error)
}

// treeDepth covers publisher, year and month.
const treeDepth = 3

// BuildTree walks rootID three levels deep and records every folder it sees.
// A listing that fails leaves that branch without children; the error is
// only logged.
func BuildTree(ctx context.Context, lister Lister, rootID string, logger *log.Logger) *models.FolderNode {
	if logger == nil {
		logger = log.Default()
	}
	root := models.NewFolderNode(rootID)
	fill(ctx, lister, root, treeDepth, logger)
	return root
}

func fill(ctx context.Context, lister Lister, node *models.FolderNode, depth int, logger *log.Logger) {
	if depth == 0 {
		return
	}

	items, err := lister.ListChildren(ctx, node.FolderID)
	if err != nil {
		logger.Printf("[drive] list folder %s: %v", node.FolderID, err)
		return
	}

	for _, it := range items {
		if !it.IsFolder() {
			continue
		}
		child := models.NewFolderNode(it.ID)
		node.Subfolders[it.Name] = child
		fill(ctx, lister, child, depth-1, logger)
	}
}
