package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/gocontract/internal/annotate"
)

// DefaultCacheSize is the number of in-sync files remembered between runs.
const DefaultCacheSize = 4096

// syncCache remembers files whose guards were already in sync, keyed by path,
// content and the options they were checked under. A watch session re-runs
// the generator on every save; files that did not change since the last run
// are skipped without parsing.
type syncCache struct {
	cache *lru.Cache[string, struct{}]
	salt  string
}

func newSyncCache(size int, opts annotate.Options, typecheck bool) *syncCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, struct{}](size)
	return &syncCache{
		cache: cache,
		salt:  fmt.Sprintf("%s\x00%s\x00%s\x00%t\x00%t", opts.ImportPath, opts.PackageName, opts.Mode, opts.Prune, typecheck),
	}
}

// key hashes path, content and options. Content alone is not enough: the
// same bytes may be in sync under one runtime import path and not another.
func (c *syncCache) key(path string, src []byte) string {
	h := sha256.New()
	h.Write([]byte(c.salt))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *syncCache) known(path string, src []byte) bool {
	_, ok := c.cache.Get(c.key(path, src))
	return ok
}

func (c *syncCache) remember(path string, src []byte) {
	c.cache.Add(c.key(path, src), struct{}{})
}

func (c *syncCache) len() int {
	return c.cache.Len()
}
