package models

type DriveFile struct {
	FileName   string `json:"file_name"`
	FolderName string `json:"folder_name"`
	FileID     string `json:"file_id"`
}

// FolderNode is one level of the publisher/year/month destination tree.
type FolderNode struct {
	FolderID   string                 `json:"folder_id"`
	Subfolders map[string]*FolderNode `json:"subfolders,omitempty"`
}

func NewFolderNode(id string) *FolderNode {
	return &FolderNode{FolderID: id, Subfolders: make(map[string]*FolderNode)}
}

// Child returns the named subfolder. It is safe to call on a nil node.
func (n *FolderNode) Child(name string) (*FolderNode, bool) {
	if n == nil || n.Subfolders == nil {
		return nil, false
	}
	c, ok := n.Subfolders[name]
	return c, ok && c != nil
}

// FinalMapping pairs a drive file with the folder it should be moved into.
type FinalMapping struct {
	FileID        string `json:"file_id"`
	DestinationID string `json:"destination_id"`
}

type PreviewRow struct {
	FileName    string `json:"file_name"`
	IssueName   string `json:"issue_name"`
	CoverDate   string `json:"cover_date"`
	Destination string `json:"destination"`
}
