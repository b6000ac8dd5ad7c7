package js5

import (
	"errors"
	"sync"

	"github.com/Faultbox/js5view/pkg/packet"
)

// ErrCorruptGroup reports a group payload whose chunk table does not fit its
// decompressed size.
var ErrCorruptGroup = errors.New("js5: corrupt group payload")

// slot holds one group's cached bytes. Each slot has its own lock so work on
// one group never blocks another.
type slot struct {
	mu       sync.Mutex
	packed   []byte
	unpacked [][]byte // nil until first unpack; per-file nil = absent
}

// StoreOptions configure cache eviction.
type StoreOptions struct {
	// DiscardPacked drops a group's packed bytes once it has been unpacked.
	DiscardPacked bool
	// DiscardUnpacked evicts file bytes after they are read: the requested
	// file for multi-file groups, the whole slot for single-file groups.
	DiscardUnpacked bool
}

// Store serves files out of one archive by (group, file) id, fetching and
// unpacking groups lazily. It is safe for concurrent use; file slices handed
// out must be treated as immutable.
type Store struct {
	provider Provider
	index    *Index
	opts     StoreOptions
	slots    []slot
}

// NewStore builds a Store over a decoded index.
func NewStore(provider Provider, index *Index, opts StoreOptions) *Store {
	return &Store{
		provider: provider,
		index:    index,
		opts:     opts,
		slots:    make([]slot, index.GroupCapacity),
	}
}

// Index returns the store's index.
func (s *Store) Index() *Index { return s.index }

// Version returns the index content version.
func (s *Store) Version() uint32 { return s.index.Version }

// CRC returns the crc32 of the packed index.
func (s *Store) CRC() uint32 { return s.index.CRC }

// GroupCount returns the number of groups present in the archive.
func (s *Store) GroupCount() int { return s.index.GroupCount }

// LastGroupID returns the highest group id.
func (s *Store) LastGroupID() int { return s.index.GroupCapacity - 1 }

// FileCount returns the number of files in a group.
func (s *Store) FileCount(groupID int) int { return s.index.FileCount(groupID) }

// FileCapacity returns (max file id)+1 for a group.
func (s *Store) FileCapacity(groupID int) int { return s.index.FileCapacity(groupID) }

// FileIDs returns the file ids of a group in increasing order. Returns nil
// for an invalid group.
func (s *Store) FileIDs(groupID int) []int {
	if !s.IsGroupValid(groupID) {
		return nil
	}
	if ids := s.index.FileIDs(groupID); ids != nil {
		return ids
	}
	ids := make([]int, s.index.FileCount(groupID))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// IsGroupValid reports whether a group id addresses a non-empty group.
func (s *Store) IsGroupValid(groupID int) bool {
	return groupID >= 0 && groupID < s.index.GroupCapacity &&
		s.index.GroupFileCapacities[groupID] > 0
}

// IsFileValid reports whether (groupID, fileID) is inside the group's file
// id space.
func (s *Store) IsFileValid(groupID, fileID int) bool {
	return groupID >= 0 && groupID < s.index.GroupCapacity &&
		fileID >= 0 && fileID < s.index.GroupFileCapacities[groupID]
}

// IsValid resolves a bare id against single-group or single-file archives:
// with one group the id is a file id in group 0; with one file per group it
// is a group id. Any other shape is a caller bug.
func (s *Store) IsValid(id int) bool {
	if s.index.GroupCount == 1 {
		return s.IsFileValid(0, id)
	}
	if !s.IsGroupValid(id) {
		return false
	}
	if s.index.FileCount(id) == 1 {
		return s.IsFileValid(id, 0)
	}
	panic("js5: cannot tell whether id is a group id or a file id")
}

// fetch asks the provider for a group's packed bytes. Caller holds the slot
// lock.
func (s *Store) fetch(sl *slot, groupID int) {
	sl.packed = s.provider.FetchGroup(groupID)
}

// FetchAll requests every group that is not yet packed and reports whether
// all of them are now available.
func (s *Store) FetchAll() bool {
	ok := true
	for _, g := range s.index.GroupIDs {
		sl := &s.slots[g]
		sl.mu.Lock()
		if sl.packed == nil {
			s.fetch(sl, g)
			if sl.packed == nil {
				ok = false
			}
		}
		sl.mu.Unlock()
	}
	return ok
}

// IsGroupReady reports whether a group's packed bytes are available,
// requesting them if not.
func (s *Store) IsGroupReady(groupID int) bool {
	if !s.IsGroupValid(groupID) {
		return false
	}
	sl := &s.slots[groupID]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.packed == nil {
		s.fetch(sl, groupID)
		return sl.packed != nil
	}
	return true
}

// IsFileReady reports whether a file's bytes could be served without another
// provider round trip, requesting the group if needed.
func (s *Store) IsFileReady(groupID, fileID int) bool {
	if !s.IsGroupValid(groupID) {
		return false
	}
	sl := &s.slots[groupID]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.unpacked != nil {
		return sl.unpacked[fileID] != nil
	}
	if sl.packed == nil {
		s.fetch(sl, groupID)
		return sl.packed != nil
	}
	return true
}

// IsReady resolves a bare id the way IsValid does and reports readiness.
func (s *Store) IsReady(id int) bool {
	if s.index.GroupCount == 1 {
		return s.IsFileReady(0, id)
	}
	if !s.IsGroupValid(id) {
		return false
	}
	if s.index.FileCount(id) == 1 {
		return s.IsFileReady(id, 0)
	}
	panic("js5: cannot tell whether id is a group id or a file id")
}

// unpack splits a packed group into its files. Caller holds the slot lock.
// Returns false when the packed bytes are missing; decompression happens at
// most once per packed payload because a fully-unpacked slot short-circuits.
func (s *Store) unpack(sl *slot, groupID int) (bool, error) {
	if !s.IsGroupValid(groupID) || sl.packed == nil {
		return false, nil
	}

	fileCount := s.index.FileCount(groupID)
	fileIDs := s.index.FileIDs(groupID)

	if sl.unpacked == nil {
		sl.unpacked = make([][]byte, s.index.FileCapacity(groupID))
	}

	resolve := func(i int) int {
		if fileIDs != nil {
			return fileIDs[i]
		}
		return i
	}

	complete := true
	for i := 0; i < fileCount; i++ {
		if sl.unpacked[resolve(i)] == nil {
			complete = false
			break
		}
	}
	if complete {
		return true, nil
	}

	decompressed, err := Decompress(sl.packed)
	if err != nil {
		return false, err
	}

	if s.opts.DiscardPacked {
		sl.packed = nil
	}

	if fileCount <= 1 {
		sl.unpacked[resolve(0)] = decompressed
		return true, nil
	}

	files, err := splitGroup(decompressed, fileCount)
	if err != nil {
		return false, err
	}
	for i, file := range files {
		sl.unpacked[resolve(i)] = file
	}
	return true, nil
}

// splitGroup cuts a decompressed multi-file payload into per-file buffers.
// The payload ends in a chunk count byte preceded by chunks×files 4-byte
// signed size deltas; file bytes are laid out chunk-major, file-minor.
func splitGroup(data []byte, fileCount int) (files [][]byte, err error) {
	defer packet.Catch(&err)

	length := len(data)
	if length == 0 {
		return nil, ErrCorruptGroup
	}
	chunks := int(data[length-1])
	metaStart := length - 1 - fileCount*chunks*4
	if metaStart < 0 {
		return nil, ErrCorruptGroup
	}
	meta := packet.NewReader(data[metaStart : length-1])

	fileSizes := make([]int, fileCount)
	for c := 0; c < chunks; c++ {
		chunkSize := 0
		for j := 0; j < fileCount; j++ {
			chunkSize += int(meta.G4s())
			fileSizes[j] += chunkSize
		}
	}

	files = make([][]byte, fileCount)
	for j := range files {
		if fileSizes[j] < 0 {
			return nil, ErrCorruptGroup
		}
		files[j] = make([]byte, 0, fileSizes[j])
	}

	meta.SetPos(0)
	pos := 0
	for c := 0; c < chunks; c++ {
		chunkSize := 0
		for j := 0; j < fileCount; j++ {
			chunkSize += int(meta.G4s())
			if chunkSize < 0 || pos+chunkSize > metaStart {
				return nil, ErrCorruptGroup
			}
			files[j] = append(files[j], data[pos:pos+chunkSize]...)
			pos += chunkSize
		}
	}
	return files, nil
}

// GetFile returns a file's bytes. A nil slice with a nil error means the
// data is not available yet (the provider was asked; poll again). The
// returned slice is shared and must not be modified.
func (s *Store) GetFile(groupID, fileID int) ([]byte, error) {
	if !s.IsFileValid(groupID, fileID) {
		return nil, nil
	}

	sl := &s.slots[groupID]
	sl.mu.Lock()
	defer sl.mu.Unlock()

	ready := sl.unpacked != nil && sl.unpacked[fileID] != nil
	if !ready {
		ok, err := s.unpack(sl, groupID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.fetch(sl, groupID)
			ok, err = s.unpack(sl, groupID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
		}
	}

	file := sl.unpacked[fileID]
	if file != nil && s.opts.DiscardUnpacked {
		if s.index.FileCount(groupID) == 1 {
			sl.unpacked = nil
		} else {
			sl.unpacked[fileID] = nil
		}
	}
	return file, nil
}
