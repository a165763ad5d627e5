package drive

import (
	"sort"

	"comicsort/pkg/models"
)

// FileSet is the working list of drive files for one reconciliation. It is
// kept sorted by file name; that order is what pairs files with catalog
// issues later on.
type FileSet struct {
	files []models.DriveFile
}

func NewFileSet(items []Item) *FileSet {
	files := make([]models.DriveFile, 0, len(items))
	for _, it := range items {
		files = append(files, models.DriveFile{
			FileName:   it.Name,
			FolderName: it.ParentReference.Name,
			FileID:     it.ID,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].FileName < files[j].FileName
	})
	return &FileSet{files: files}
}

func (s *FileSet) Files() []models.DriveFile {
	out := make([]models.DriveFile, len(s.files))
	copy(out, s.files)
	return out
}

func (s *FileSet) Len() int { return len(s.files) }

// Remove drops every row named fileName. Unknown names are ignored.
func (s *FileSet) Remove(fileName string) {
	kept := s.files[:0]
	for _, f := range s.files {
		if f.FileName != fileName {
			kept = append(kept, f)
		}
	}
	s.files = kept
}

// TruncateAfter keeps rows [0, index-1). The index is the 1-based row number
// shown to the operator, so TruncateAfter(3) keeps the first two rows.
func (s *FileSet) TruncateAfter(index int) {
	keep := index - 1
	if keep < 0 {
		keep = 0
	}
	if keep < len(s.files) {
		s.files = s.files[:keep]
	}
}
