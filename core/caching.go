package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/conceptrace/schema"
)

// StemCache memoizes stem trees with a fixed capacity and least-recently-used
// eviction. It is owned by whoever constructs the engine.
type StemCache struct {
	trees *lru.Cache[string, schema.StemTree]
}

// NewStemCache creates a cache holding up to size trees. A size of zero
// returns nil, which every engine method treats as "no cache".
func NewStemCache(size int) (*StemCache, error) {
	if size <= 0 {
		return nil, nil
	}
	trees, err := lru.New[string, schema.StemTree](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create stem cache: %w", err)
	}
	return &StemCache{trees: trees}, nil
}

// Len returns the number of cached trees.
func (c *StemCache) Len() int {
	if c == nil {
		return 0
	}
	return c.trees.Len()
}

// getOrBuild returns the cached tree for key, building and storing it on a miss.
func (c *StemCache) getOrBuild(key string, build func() schema.StemTree) schema.StemTree {
	if c == nil {
		return build()
	}
	if tree, ok := c.trees.Get(key); ok {
		return tree
	}
	tree := build()
	c.trees.Add(key, tree)
	return tree
}

// generateCacheKey hashes the owner kind, every text field of the entity and
// the builder settings, so a changed entity never hits a stale tree.
func generateCacheKey(owner schema.OwnerKind, entity any, signature string) string {
	data, err := json.Marshal(entity)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", entity)
	}
	key := fmt.Sprintf("%s:%s:%s", owner, signature, data)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
