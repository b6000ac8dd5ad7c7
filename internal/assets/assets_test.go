package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/js5view/internal/config"
	"github.com/Faultbox/js5view/pkg/formats"
	"github.com/Faultbox/js5view/pkg/js5"
	"github.com/Faultbox/js5view/pkg/packet"
)

// memArchive is an in-memory provider; absent map entries read as missing.
type memArchive struct {
	index  []byte
	groups map[int][]byte
}

func (a *memArchive) FetchIndex() []byte { return a.index }

func (a *memArchive) FetchGroup(groupID int) []byte { return a.groups[groupID] }

// testArchives maps archive ids to in-memory archives.
type testArchives map[int]*memArchive

func (ta testArchives) provider(archiveID int) js5.Provider {
	if a, ok := ta[archiveID]; ok {
		return a
	}
	return &memArchive{}
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{ModelsArchive: 7, SpritesArchive: 8, TexturesArchive: 9}
}

// encodeIndexBlob packs a minimal index of dense single-file groups.
func encodeIndexBlob(t *testing.T, groupCount int) []byte {
	t.Helper()

	w := packet.NewWriter()
	w.P1(uint8(js5.ProtocolOriginal))
	w.P1(0) // flags
	w.P2(uint16(groupCount))
	for i := 0; i < groupCount; i++ {
		delta := 1
		if i == 0 {
			delta = 0
		}
		w.P2(uint16(delta))
	}
	for i := 0; i < groupCount; i++ {
		w.P4(uint32(i + 1)) // crc
	}
	for i := 0; i < groupCount; i++ {
		w.P4(1) // version
	}
	for i := 0; i < groupCount; i++ {
		w.P2(1) // file count
	}
	for i := 0; i < groupCount; i++ {
		w.P2(0) // file id
	}

	packed, err := js5.Compress(js5.CompressionNone, w.Bytes())
	if err != nil {
		t.Fatalf("compressing index: %v", err)
	}
	return packed
}

// packFile wraps one file's bytes as a packed single-file group.
func packFile(t *testing.T, data []byte) []byte {
	t.Helper()
	packed, err := js5.Compress(js5.CompressionNone, data)
	if err != nil {
		t.Fatalf("compressing group: %v", err)
	}
	return packed
}

// encodeTriangleModel builds the smallest valid mesh blob: vertices (0,0,0),
// (128,0,0), (0,128,0) and one triangle in the headerless layout.
func encodeTriangleModel(t *testing.T) []byte {
	t.Helper()

	w := packet.NewWriter()
	w.P1(0)
	w.P1(1)
	w.P1(3) // vertex delta flags
	w.P1(1) // triangle index type
	w.PSmart1or2s(0)
	w.PSmart1or2s(1)
	w.PSmart1or2s(1) // index deltas
	w.P2(0x3F7F)     // colour
	w.PSmart1or2s(128)
	w.PSmart1or2s(-128) // x deltas
	w.PSmart1or2s(128)  // y delta

	w.P2(3)  // vertex count
	w.P2(1)  // triangle count
	w.P1(0)  // textured triangles
	w.P1(0)  // no per-triangle texture flags
	w.P1(10) // scalar priority
	w.P1(0)  // no transparencies
	w.P1(0)  // no triangle skins
	w.P1(0)  // no vertex skins
	w.P2(4)  // x stream size
	w.P2(2)  // y stream size
	w.P2(0)  // z stream size
	w.P2(3)  // index stream size
	return w.Bytes()
}

// encodeTextureDef builds one texture definition referencing a sprite.
func encodeTextureDef(t *testing.T, avg uint16, opaque bool, spriteID uint16) []byte {
	t.Helper()

	w := packet.NewWriter()
	w.P2(avg)
	if opaque {
		w.P1(1)
	} else {
		w.P1(0)
	}
	w.P1(1) // sprite count
	w.P2(spriteID)
	w.P4(0) // colour mask
	w.P1(0) // anim direction
	w.P1(0) // anim speed
	return w.Bytes()
}

func TestNewManager(t *testing.T) {
	archives := testArchives{
		7: {index: encodeIndexBlob(t, 1)},
		8: {index: encodeIndexBlob(t, 1)},
		9: {index: encodeIndexBlob(t, 1)},
	}

	m, err := NewManager(archives.provider, cacheConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Models().GroupCount() != 1 {
		t.Errorf("models group count = %d, want 1", m.Models().GroupCount())
	}
	if m.Sprites().GroupCount() != 1 || m.Textures().GroupCount() != 1 {
		t.Error("sprite or texture archive not opened")
	}
}

func TestNewManagerMissingIndex(t *testing.T) {
	archives := testArchives{
		7: {index: encodeIndexBlob(t, 1)},
		9: {index: encodeIndexBlob(t, 1)},
		// archive 8 has no index
	}

	_, err := NewManager(archives.provider, cacheConfig(), nil)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("got %v, want ErrIndexUnavailable", err)
	}
}

func TestManagerModel(t *testing.T) {
	archives := testArchives{
		7: {
			index: encodeIndexBlob(t, 2),
			groups: map[int][]byte{
				0: packFile(t, encodeTriangleModel(t)),
				// group 1 never arrives
			},
		},
		8: {index: encodeIndexBlob(t, 1)},
		9: {index: encodeIndexBlob(t, 1)},
	}

	m, err := NewManager(archives.provider, cacheConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	model, err := m.Model(0)
	if err != nil {
		t.Fatalf("Model(0): %v", err)
	}
	if model.VertexCount != 3 || model.TriangleCount != 1 {
		t.Fatalf("decoded %d vertices / %d triangles, want 3/1",
			model.VertexCount, model.TriangleCount)
	}

	// Old-format meshes are upscaled two bits on load.
	if model.VertexX[1] != 512 {
		t.Errorf("VertexX[1] = %d, want 512", model.VertexX[1])
	}
	if model.VertexY[2] != 512 {
		t.Errorf("VertexY[2] = %d, want 512", model.VertexY[2])
	}

	if _, err := m.Model(1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Model(1): got %v, want ErrUnavailable", err)
	}

	// The second read must come from the cache, and the upscale must not run
	// again.
	again, err := m.Model(0)
	if err != nil {
		t.Fatalf("Model(0) again: %v", err)
	}
	if again != model {
		t.Error("second Model(0) decoded a fresh copy")
	}
	if again.VertexX[1] != 512 {
		t.Errorf("cached VertexX[1] = %d, want 512", again.VertexX[1])
	}

	hits, misses := m.CacheStats()
	if hits != 1 || misses != 2 {
		t.Errorf("cache stats = %d/%d, want 1 hit / 2 misses", hits, misses)
	}
}

func TestManagerMaterials(t *testing.T) {
	textures := &memArchive{
		index: encodeIndexBlob(t, 2),
		groups: map[int][]byte{
			0: packFile(t, encodeTextureDef(t, 0x1234, true, 0)),
			// group 1 is still in flight
		},
	}
	archives := testArchives{
		7: {index: encodeIndexBlob(t, 1)},
		8: {index: encodeIndexBlob(t, 1)},
		9: textures,
	}

	m, err := NewManager(archives.provider, cacheConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.Materials(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Materials before fetch: got %v, want ErrUnavailable", err)
	}

	// Once the missing group arrives a retry succeeds and the provider is
	// reused from then on.
	textures.groups[1] = packFile(t, []byte{0})

	provider, err := m.Materials()
	if err != nil {
		t.Fatalf("Materials: %v", err)
	}
	ids := provider.TextureIDs()
	if len(ids) != 1 || ids[0] != 0 {
		t.Errorf("TextureIDs = %v, want [0]", ids)
	}
	info, ok := provider.Info(0)
	if !ok {
		t.Fatal("Info(0) missing")
	}
	if info.AlphaMode.String() != "opaque" {
		t.Errorf("AlphaMode = %v, want opaque", info.AlphaMode)
	}

	same, err := m.Materials()
	if err != nil {
		t.Fatalf("Materials again: %v", err)
	}
	if same != provider {
		t.Error("Materials rebuilt the provider")
	}
}

func TestManagerFetchAll(t *testing.T) {
	models := &memArchive{
		index:  encodeIndexBlob(t, 2),
		groups: map[int][]byte{0: packFile(t, []byte{1})},
	}
	archives := testArchives{
		7: models,
		8: {index: encodeIndexBlob(t, 1), groups: map[int][]byte{0: packFile(t, []byte{2})}},
		9: {index: encodeIndexBlob(t, 1), groups: map[int][]byte{0: packFile(t, []byte{3})}},
	}

	m, err := NewManager(archives.provider, cacheConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if m.FetchAll() {
		t.Error("FetchAll = true with a missing model group")
	}
	models.groups[1] = packFile(t, []byte{4})
	if !m.FetchAll() {
		t.Error("FetchAll = false after all groups arrived")
	}
}

func TestManagerFromDir(t *testing.T) {
	root := t.TempDir()
	write := func(archive int, name string, data []byte) {
		dir := filepath.Join(root, strconv.Itoa(archive))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write(7, "index.dat", encodeIndexBlob(t, 1))
	write(7, "0.dat", packFile(t, encodeTriangleModel(t)))
	write(8, "index.dat", encodeIndexBlob(t, 1))
	write(9, "index.dat", encodeIndexBlob(t, 1))

	m, err := NewManager(DirProviders(root), cacheConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	model, err := m.Model(0)
	if err != nil {
		t.Fatalf("Model(0): %v", err)
	}
	if model.UsedVertexCount != 3 {
		t.Errorf("UsedVertexCount = %d, want 3", model.UsedVertexCount)
	}
}

func TestModelCache(t *testing.T) {
	c := NewModelCache()

	if _, ok := c.Get(5); ok {
		t.Error("Get on empty cache returned a model")
	}

	decoded, err := formats.DecodeModelUnlit(encodeTriangleModel(t))
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	c.Set(5, decoded)

	got, ok := c.Get(5)
	if !ok || got != decoded {
		t.Error("Get did not return the stored model")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1/1", hits, misses)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	hits, misses = c.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("stats after Clear = %d/%d, want 0/0", hits, misses)
	}
}
