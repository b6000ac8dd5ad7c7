// js5tool is a CLI utility for working with JS5 cache dump directories.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Faultbox/js5view/pkg/js5"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "verify":
		cmdVerify(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`js5tool - JS5 cache archive utility

A cache dump directory holds one subdirectory per archive id, each with an
index.dat and one <group>.dat per packed group.

Usage:
  js5tool <command> [options]

Commands:
  info <cachedir> <archive>                    Show archive index information
  list <cachedir> <archive>                    List groups (id, files, version, crc)
  extract <cachedir> <archive> <group> [file]  Extract group bytes to disk
  verify <cachedir> <archive>                  Check packed groups against index crcs

Examples:
  js5tool info ./cache 7
  js5tool list -n 20 ./cache 7
  js5tool extract -o ./out ./cache 7 1820
  js5tool verify ./cache 9`)
}

// loadIndex opens an archive's index from a cache dump directory, exiting
// with a message when it is missing or malformed.
func loadIndex(root, archiveArg string) (*js5.Index, int) {
	archiveID, err := strconv.Atoi(archiveArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad archive id %q: %v\n", archiveArg, err)
		os.Exit(1)
	}

	provider := js5.NewDirProvider(root, archiveID)
	packed := provider.FetchIndex()
	if packed == nil {
		fmt.Fprintf(os.Stderr, "No index for archive %d under %s\n", archiveID, root)
		os.Exit(1)
	}

	idx, err := js5.DecodeIndex(packed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding index: %v\n", err)
		os.Exit(1)
	}
	return idx, archiveID
}

func cmdInfo(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: js5tool info <cachedir> <archive>")
		os.Exit(1)
	}

	idx, archiveID := loadIndex(args[0], args[1])

	totalFiles := 0
	for _, g := range idx.GroupIDs {
		totalFiles += idx.GroupFileCounts[g]
	}

	fmt.Printf("Archive:   %d\n", archiveID)
	fmt.Printf("Protocol:  %s (%d)\n", idx.Protocol, uint8(idx.Protocol))
	fmt.Printf("Version:   %d\n", idx.Version)
	fmt.Printf("CRC:       %08x\n", idx.CRC)
	fmt.Printf("Groups:    %d (capacity %d)\n", idx.GroupCount, idx.GroupCapacity)
	fmt.Printf("Files:     %d\n", totalFiles)
	fmt.Println()
	fmt.Println("Optional tables:")
	fmt.Printf("  names:             %v\n", idx.HasNames)
	fmt.Printf("  whirlpool hashes:  %v\n", idx.HasWhirlpoolHashes)
	fmt.Printf("  data sizes:        %v\n", idx.HasDataSizes)
	fmt.Printf("  uncompressed crcs: %v\n", idx.HasUncompressedChecksums)
	fmt.Printf("  md5 hashes:        %v\n", idx.HasMD5Hashes)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N groups (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: js5tool list <cachedir> <archive>")
		os.Exit(1)
	}

	idx, _ := loadIndex(fs.Arg(0), fs.Arg(1))

	if idx.HasDataSizes {
		fmt.Printf("%-8s %-6s %-10s %-8s %s\n", "group", "files", "version", "crc", "size")
	} else {
		fmt.Printf("%-8s %-6s %-10s %s\n", "group", "files", "version", "crc")
	}

	count := 0
	for _, g := range idx.GroupIDs {
		if idx.HasDataSizes {
			fmt.Printf("%-8d %-6d %-10d %08x %d\n",
				g, idx.GroupFileCounts[g], idx.GroupVersions[g], idx.GroupChecksums[g], idx.GroupDataSizes[g])
		} else {
			fmt.Printf("%-8d %-6d %-10d %08x\n",
				g, idx.GroupFileCounts[g], idx.GroupVersions[g], idx.GroupChecksums[g])
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d of %d groups)\n", count, idx.GroupCount)
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	outDir := fs.String("o", ".", "Output directory")
	raw := fs.Bool("raw", false, "Write the packed group blob without unpacking")
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: js5tool extract <cachedir> <archive> <group> [file]")
		os.Exit(1)
	}

	idx, archiveID := loadIndex(fs.Arg(0), fs.Arg(1))
	provider := js5.NewDirProvider(fs.Arg(0), archiveID)

	groupID, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad group id %q: %v\n", fs.Arg(2), err)
		os.Exit(1)
	}

	store := js5.NewStore(provider, idx, js5.StoreOptions{})
	if !store.IsGroupValid(groupID) {
		fmt.Fprintf(os.Stderr, "No group %d in archive %d\n", groupID, archiveID)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	if *raw {
		data := provider.FetchGroup(groupID)
		if data == nil {
			fmt.Fprintf(os.Stderr, "Group %d is not in the dump\n", groupID)
			os.Exit(1)
		}
		writeExtracted(filepath.Join(*outDir, fmt.Sprintf("%d.packed.dat", groupID)), data)
		return
	}

	fileIDs := store.FileIDs(groupID)
	if fs.NArg() > 3 {
		fileID, err := strconv.Atoi(fs.Arg(3))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad file id %q: %v\n", fs.Arg(3), err)
			os.Exit(1)
		}
		fileIDs = []int{fileID}
	}

	for _, fileID := range fileIDs {
		data, err := store.GetFile(groupID, fileID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading group %d file %d: %v\n", groupID, fileID, err)
			os.Exit(1)
		}
		if data == nil {
			fmt.Fprintf(os.Stderr, "Group %d file %d is not in the dump\n", groupID, fileID)
			os.Exit(1)
		}
		writeExtracted(filepath.Join(*outDir, fmt.Sprintf("%d.%d.dat", groupID, fileID)), data)
	}
}

func writeExtracted(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extracted: %s (%d bytes)\n", path, len(data))
}

func cmdVerify(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: js5tool verify <cachedir> <archive>")
		os.Exit(1)
	}

	idx, archiveID := loadIndex(args[0], args[1])
	provider := js5.NewDirProvider(args[0], archiveID)

	ok, missing, bad := 0, 0, 0
	for _, g := range idx.GroupIDs {
		data := provider.FetchGroup(g)
		if data == nil {
			missing++
			continue
		}
		if crc := crc32.ChecksumIEEE(data); crc != idx.GroupChecksums[g] {
			fmt.Printf("group %d: crc %08x, index says %08x\n", g, crc, idx.GroupChecksums[g])
			bad++
			continue
		}
		ok++
	}

	fmt.Printf("%d ok, %d missing, %d mismatched (of %d groups)\n", ok, missing, bad, idx.GroupCount)
	if bad > 0 {
		os.Exit(1)
	}
}
