package js5

import (
	"os"
	"path/filepath"
	"strconv"
)

// DirProvider serves packed blobs from a directory of pre-fetched files laid
// out as <root>/<archive>/index.dat and <root>/<archive>/<group>.dat. It is
// the simplest Provider and backs the command-line tools and tests.
type DirProvider struct {
	root      string
	archiveID int
}

// NewDirProvider creates a provider over a cache dump directory.
func NewDirProvider(root string, archiveID int) *DirProvider {
	return &DirProvider{root: root, archiveID: archiveID}
}

// FetchIndex reads the archive's packed index blob, nil when missing.
func (p *DirProvider) FetchIndex() []byte {
	data, err := os.ReadFile(filepath.Join(p.root, strconv.Itoa(p.archiveID), "index.dat"))
	if err != nil {
		return nil
	}
	return data
}

// FetchGroup reads a group's packed bytes, nil when missing.
func (p *DirProvider) FetchGroup(groupID int) []byte {
	data, err := os.ReadFile(filepath.Join(p.root, strconv.Itoa(p.archiveID), strconv.Itoa(groupID)+".dat"))
	if err != nil {
		return nil
	}
	return data
}
