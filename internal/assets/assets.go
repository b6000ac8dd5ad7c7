// Package assets opens the previewer's JS5 archives and hands out decoded
// assets.
package assets

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/js5view/internal/config"
	"github.com/Faultbox/js5view/pkg/formats"
	"github.com/Faultbox/js5view/pkg/js5"
)

// ErrIndexUnavailable reports a provider that could not supply an archive
// index.
var ErrIndexUnavailable = errors.New("assets: archive index unavailable")

// ErrUnavailable reports an asset whose bytes the provider has not supplied.
// With a synchronous provider the asset is missing; with an asynchronous one
// the request is in flight and the call can be retried.
var ErrUnavailable = errors.New("assets: asset unavailable")

// ProviderFunc returns the packed-blob provider for one archive.
type ProviderFunc func(archiveID int) js5.Provider

// DirProviders adapts a cache dump directory into a ProviderFunc.
func DirProviders(root string) ProviderFunc {
	return func(archiveID int) js5.Provider {
		return js5.NewDirProvider(root, archiveID)
	}
}

// Manager opens the model, sprite and texture archives of one cache. Decoded
// models are cached by group id and normalized to preview scale; callers must
// treat them as immutable and use ModelLit.Copy before mutating derived
// meshes.
type Manager struct {
	models   *js5.Store
	sprites  *js5.Store
	textures *js5.Store

	modelCache *ModelCache

	matMu   sync.Mutex
	matProv *formats.TextureProvider

	log *zap.Logger
}

// NewManager decodes the index of each configured archive and opens stores
// over them. providers is called once per archive id.
func NewManager(providers ProviderFunc, cfg config.CacheConfig, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := js5.StoreOptions{
		DiscardPacked:   cfg.DiscardPacked,
		DiscardUnpacked: cfg.DiscardUnpacked,
	}

	open := func(archiveID int) (*js5.Store, error) {
		provider := providers(archiveID)
		raw := provider.FetchIndex()
		if raw == nil {
			return nil, fmt.Errorf("%w: archive %d", ErrIndexUnavailable, archiveID)
		}
		idx, err := js5.DecodeIndex(raw)
		if err != nil {
			return nil, fmt.Errorf("archive %d: %w", archiveID, err)
		}
		log.Debug("opened archive",
			zap.Int("archive", archiveID),
			zap.Int("groups", idx.GroupCount),
			zap.Uint32("version", idx.Version))
		return js5.NewStore(provider, idx, opts), nil
	}

	models, err := open(cfg.ModelsArchive)
	if err != nil {
		return nil, err
	}
	sprites, err := open(cfg.SpritesArchive)
	if err != nil {
		return nil, err
	}
	textures, err := open(cfg.TexturesArchive)
	if err != nil {
		return nil, err
	}

	return &Manager{
		models:     models,
		sprites:    sprites,
		textures:   textures,
		modelCache: NewModelCache(),
		log:        log,
	}, nil
}

// Models returns the model archive store.
func (m *Manager) Models() *js5.Store { return m.models }

// Sprites returns the sprite archive store.
func (m *Manager) Sprites() *js5.Store { return m.sprites }

// Textures returns the texture archive store.
func (m *Manager) Textures() *js5.Store { return m.textures }

// Model returns the decoded mesh stored in the given group, fetching and
// decoding it on first use. Old-format meshes are upscaled to preview
// resolution exactly once, before they enter the cache.
func (m *Manager) Model(groupID int) (*formats.ModelUnlit, error) {
	if model, ok := m.modelCache.Get(groupID); ok {
		return model, nil
	}

	data, err := m.models.GetFile(groupID, 0)
	if err != nil {
		return nil, fmt.Errorf("model %d: %w", groupID, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: model %d", ErrUnavailable, groupID)
	}

	model, err := formats.DecodeModelUnlit(data)
	if err != nil {
		return nil, fmt.Errorf("model %d: %w", groupID, err)
	}
	if model.Version < 13 {
		model.ScaleLog2(2)
	}

	m.modelCache.Set(groupID, model)
	m.log.Debug("decoded model",
		zap.Int("group", groupID),
		zap.Int("vertices", model.VertexCount),
		zap.Int("triangles", model.TriangleCount))
	return model, nil
}

// Materials builds the texture provider over the sprite and texture archives
// on first use. It returns ErrUnavailable until the texture archive has been
// fetched in full; retrying kicks off the missing fetches.
func (m *Manager) Materials() (*formats.TextureProvider, error) {
	m.matMu.Lock()
	defer m.matMu.Unlock()

	if m.matProv != nil {
		return m.matProv, nil
	}
	if !m.textures.FetchAll() {
		return nil, fmt.Errorf("%w: texture archive", ErrUnavailable)
	}

	provider, err := formats.NewTextureProvider(m.sprites, m.textures)
	if err != nil {
		return nil, err
	}
	m.matProv = provider
	m.log.Debug("texture provider ready", zap.Int("textures", len(provider.TextureIDs())))
	return provider, nil
}

// FetchAll requests every group of every archive and reports whether all of
// them are available. Asynchronous providers need this polled until true.
func (m *Manager) FetchAll() bool {
	models := m.models.FetchAll()
	sprites := m.sprites.FetchAll()
	textures := m.textures.FetchAll()
	return models && sprites && textures
}

// CacheStats returns the decoded-model cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int64) {
	return m.modelCache.Stats()
}
