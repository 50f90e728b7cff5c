package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	digest "github.com/opencontainers/go-digest"

	"github.com/cubohq/cubo/internal/paths"
)

// cacheEntry is what a hit on the step cache resolves to: the layer
// descriptor fields needed to append it to a manifest without redoing
// the work that produced it.
type cacheEntry struct {
	LayerDigest digest.Digest `json:"layerDigest"`
	DiffID      digest.Digest `json:"diffId"`
	Size        int64         `json:"size"`
}

// cache persists build-step results across invocations, independent of
// any single image tag: a (parent, step) cache key maps to a layer
// blob that can be copied straight into a new image's store directory
// on a hit.
type cache struct {
	blobsDir  string
	indexPath string
}

func newCache(root string) *cache {
	dir := filepath.Join(root, "build-cache")
	return &cache{
		blobsDir:  filepath.Join(dir, "blobs", "sha256"),
		indexPath: filepath.Join(dir, "index.json"),
	}
}

func (c *cache) loadIndex() (map[string]cacheEntry, error) {
	var idx map[string]cacheEntry
	if err := paths.ReadJSON(c.indexPath, &idx); err != nil {
		if os.IsNotExist(err) {
			return map[string]cacheEntry{}, nil
		}
		return nil, err
	}
	return idx, nil
}

// get looks up key, returning ok=false on a miss or any read error (a
// corrupt cache degrades to always-miss rather than failing the build).
func (c *cache) get(key string) (cacheEntry, bool) {
	idx, err := c.loadIndex()
	if err != nil {
		return cacheEntry{}, false
	}
	e, ok := idx[key]
	return e, ok
}

func (c *cache) put(key string, e cacheEntry) error {
	idx, err := c.loadIndex()
	if err != nil {
		idx = map[string]cacheEntry{}
	}
	idx[key] = e
	return paths.WriteJSONAtomic(c.indexPath, idx)
}

func (c *cache) blobPath(dgst digest.Digest) string {
	return filepath.Join(c.blobsDir, dgst.Encoded())
}

// store writes data under dgst in the cache's own blob area, separate
// from any image's ref-scoped blob directory, so a cache hit can be
// replayed into whichever image tag is currently being built.
func (c *cache) store(dgst digest.Digest, data []byte) error {
	if err := os.MkdirAll(c.blobsDir, paths.DefaultDirMode); err != nil {
		return err
	}
	return paths.WriteFileAtomic(c.blobPath(dgst), data)
}

func (c *cache) open(dgst digest.Digest) (*os.File, error) {
	return os.Open(c.blobPath(dgst))
}

// stepCacheKey hashes the parent layer digest together with the step's
// kind, its normalized arguments, and (for Copy steps) the content hash
// of its matched sources.
func stepCacheKey(parent digest.Digest, kind, args, contentHash string) string {
	h := sha256.New()
	h.Write([]byte(parent.String()))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(args))
	h.Write([]byte{0})
	h.Write([]byte(contentHash))
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
