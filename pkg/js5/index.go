package js5

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/Faultbox/js5view/pkg/packet"
)

// Index decoding errors.
var (
	ErrUnsupportedProtocol = errors.New("js5: unsupported index protocol")
	ErrChecksumMismatch    = errors.New("js5: index checksum mismatch")
)

// Protocol is the index wire protocol tag.
type Protocol uint8

// Index protocols.
const (
	ProtocolOriginal  Protocol = 5
	ProtocolVersioned Protocol = 6
	ProtocolSmart     Protocol = 7
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolOriginal:
		return "original"
	case ProtocolVersioned:
		return "versioned"
	case ProtocolSmart:
		return "smart"
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// Index flag bits.
const (
	flagNames                 = 1 << 0
	flagWhirlpoolHashes       = 1 << 1
	flagDataSizes             = 1 << 2
	flagUncompressedChecksums = 1 << 3
	flagMD5Hashes             = 1 << 7
)

// Hash sizes carried by optional index tables.
const (
	WhirlpoolHashSize = 64
	MD5HashSize       = 16
)

// IndexArchiveID is the archive the index blobs themselves live in.
const IndexArchiveID = 255

// Index is an archive's table of contents, immutable after decode. Group ids
// are sparse and strictly increasing; every per-group table is scattered by
// group id into a slice of length GroupCapacity.
type Index struct {
	CRC      uint32
	Protocol Protocol
	Version  uint32

	HasNames                 bool
	HasWhirlpoolHashes       bool
	HasDataSizes             bool
	HasUncompressedChecksums bool
	HasMD5Hashes             bool

	GroupCount    int
	GroupCapacity int
	GroupIDs      []int

	GroupNameHashes            []int32  // nil unless HasNames
	GroupChecksums             []uint32 // crc32 of each packed group
	GroupUncompressedChecksums []uint32 // nil unless HasUncompressedChecksums
	GroupWhirlpoolHashes       [][WhirlpoolHashSize]byte
	GroupDataSizes             []uint32 // nil unless HasDataSizes
	GroupUncompressedDataSizes []uint32
	GroupVersions              []uint32
	GroupFileCounts            []int
	GroupFileCapacities        []int
	GroupFileIDs               [][]int   // nil element = identity mapping
	GroupFileNameHashes        [][]int32 // nil unless HasNames; inner slices indexed by position
	GroupMD5Hashes             [][MD5HashSize]byte
}

// DecodeIndex parses a packed index blob. The crc32 of the packed bytes is
// recorded on the returned Index.
func DecodeIndex(data []byte) (idx *Index, err error) {
	defer packet.Catch(&err)

	crc := crc32.ChecksumIEEE(data)
	decompressed, err := Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("js5: decompressing index: %w", err)
	}

	r := packet.NewReader(decompressed)
	protocol := Protocol(r.G1())
	switch protocol {
	case ProtocolOriginal, ProtocolVersioned, ProtocolSmart:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedProtocol, uint8(protocol))
	}

	var version uint32
	if protocol >= ProtocolVersioned {
		version = r.G4()
	}
	flags := r.G1()

	idx = &Index{
		CRC:                      crc,
		Protocol:                 protocol,
		Version:                  version,
		HasNames:                 flags&flagNames != 0,
		HasWhirlpoolHashes:       flags&flagWhirlpoolHashes != 0,
		HasDataSizes:             flags&flagDataSizes != 0,
		HasUncompressedChecksums: flags&flagUncompressedChecksums != 0,
		HasMD5Hashes:             flags&flagMD5Hashes != 0,
	}

	readCount := func() int { return int(r.G2()) }
	if protocol == ProtocolSmart {
		readCount = r.GSmart2or4
	}

	idx.GroupCount = readCount()
	idx.GroupIDs = make([]int, idx.GroupCount)
	lastGroupID := 0
	for i := range idx.GroupIDs {
		lastGroupID += readCount()
		idx.GroupIDs[i] = lastGroupID
	}
	if idx.GroupCount > 0 {
		idx.GroupCapacity = lastGroupID + 1
	}

	if idx.HasNames {
		idx.GroupNameHashes = make([]int32, idx.GroupCapacity)
		for i := range idx.GroupNameHashes {
			idx.GroupNameHashes[i] = -1
		}
		for _, g := range idx.GroupIDs {
			idx.GroupNameHashes[g] = r.G4s()
		}
	}

	idx.GroupChecksums = make([]uint32, idx.GroupCapacity)
	for _, g := range idx.GroupIDs {
		idx.GroupChecksums[g] = r.G4()
	}

	if idx.HasUncompressedChecksums {
		idx.GroupUncompressedChecksums = make([]uint32, idx.GroupCapacity)
		for _, g := range idx.GroupIDs {
			idx.GroupUncompressedChecksums[g] = r.G4()
		}
	}

	if idx.HasWhirlpoolHashes {
		idx.GroupWhirlpoolHashes = make([][WhirlpoolHashSize]byte, idx.GroupCapacity)
		for _, g := range idx.GroupIDs {
			r.GBytesTo(idx.GroupWhirlpoolHashes[g][:])
		}
	}

	if idx.HasDataSizes {
		idx.GroupDataSizes = make([]uint32, idx.GroupCapacity)
		idx.GroupUncompressedDataSizes = make([]uint32, idx.GroupCapacity)
		for _, g := range idx.GroupIDs {
			idx.GroupDataSizes[g] = r.G4()
			idx.GroupUncompressedDataSizes[g] = r.G4()
		}
	}

	idx.GroupVersions = make([]uint32, idx.GroupCapacity)
	for _, g := range idx.GroupIDs {
		idx.GroupVersions[g] = r.G4()
	}

	idx.GroupFileCounts = make([]int, idx.GroupCapacity)
	for _, g := range idx.GroupIDs {
		idx.GroupFileCounts[g] = readCount()
	}

	idx.GroupFileCapacities = make([]int, idx.GroupCapacity)
	idx.GroupFileIDs = make([][]int, idx.GroupCapacity)
	for _, g := range idx.GroupIDs {
		fileCount := idx.GroupFileCounts[g]
		fileIDs := make([]int, fileCount)
		lastFileID := 0
		for j := range fileIDs {
			lastFileID += readCount()
			fileIDs[j] = lastFileID
		}

		fileCapacity := 0
		if fileCount > 0 {
			fileCapacity = lastFileID + 1
		}
		idx.GroupFileCapacities[g] = fileCapacity

		// A dense group needs no id table; file ids are their positions.
		if fileCount != fileCapacity {
			idx.GroupFileIDs[g] = fileIDs
		}
	}

	if idx.HasNames {
		idx.GroupFileNameHashes = make([][]int32, idx.GroupCapacity)
		for _, g := range idx.GroupIDs {
			hashes := make([]int32, idx.GroupFileCounts[g])
			for j := range hashes {
				hashes[j] = r.G4s()
			}
			idx.GroupFileNameHashes[g] = hashes
		}
	}

	if idx.HasMD5Hashes {
		idx.GroupMD5Hashes = make([][MD5HashSize]byte, idx.GroupCapacity)
		for _, g := range idx.GroupIDs {
			r.GBytesTo(idx.GroupMD5Hashes[g][:])
		}
	}

	return idx, nil
}

// DecodeIndexChecked parses a packed index blob and verifies the crc32 of
// the packed bytes against a trusted checksum.
func DecodeIndexChecked(data []byte, trusted uint32) (*Index, error) {
	idx, err := DecodeIndex(data)
	if err != nil {
		return nil, err
	}
	if idx.CRC != trusted {
		return nil, fmt.Errorf("%w: got %#x, want %#x", ErrChecksumMismatch, idx.CRC, trusted)
	}
	return idx, nil
}

// ClearDataSizes drops the optional size tables once a caller no longer
// needs them.
func (x *Index) ClearDataSizes() {
	x.GroupDataSizes = nil
	x.GroupUncompressedDataSizes = nil
}

// GroupVersion returns the version word of a group.
func (x *Index) GroupVersion(groupID int) uint32 { return x.GroupVersions[groupID] }

// GroupCRC returns the packed checksum of a group.
func (x *Index) GroupCRC(groupID int) uint32 { return x.GroupChecksums[groupID] }

// FileCount returns the number of files in a group.
func (x *Index) FileCount(groupID int) int { return x.GroupFileCounts[groupID] }

// FileCapacity returns (max file id)+1 for a group.
func (x *Index) FileCapacity(groupID int) int { return x.GroupFileCapacities[groupID] }

// FileIDs returns the sparse file id table of a group, or nil when file ids
// are the identity mapping.
func (x *Index) FileIDs(groupID int) []int { return x.GroupFileIDs[groupID] }
