package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/franz/media-linker/internal/store"
	"github.com/franz/media-linker/internal/util"
)

// CachedClassifier wraps another Classifier with a read-through SQLite
// cache. Primary classifications and sidecar roles are cached by
// parent-directory + filename; canonical-title mappings are not cached
// because the batch contents differ between runs.
type CachedClassifier struct {
	inner Classifier
	store *store.Store
}

// NewCachedClassifier creates a caching wrapper around inner
func NewCachedClassifier(inner Classifier, st *store.Store) *CachedClassifier {
	return &CachedClassifier{inner: inner, store: st}
}

func cacheKey(parentDir, filename string) string {
	return parentDir + "|" + filename
}

// ClassifyPrimary returns a cached classification when available,
// otherwise asks the wrapped classifier and caches the result.
func (c *CachedClassifier) ClassifyPrimary(ctx context.Context, filename, parentDir string) (*MediaInfo, error) {
	key := cacheKey(parentDir, filename)

	payload, ok, err := c.store.GetClassification(key)
	if err != nil {
		// Cache trouble is never fatal to classification
		util.WarnLog("Classification cache read failed for %s: %v", filename, err)
	} else if ok {
		var info MediaInfo
		if err := json.Unmarshal([]byte(payload), &info); err == nil {
			util.DebugLog("Classification cache hit: %s", filename)
			return &info, nil
		}
		util.WarnLog("Discarding corrupt cache entry for %s", filename)
	}

	info, err := c.inner.ClassifyPrimary(ctx, filename, parentDir)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(info); err == nil {
		if err := c.store.PutClassification(key, string(encoded)); err != nil {
			util.WarnLog("Classification cache write failed for %s: %v", filename, err)
		}
	}
	return info, nil
}

// ClassifySidecarRole returns a cached role when available, otherwise
// asks the wrapped classifier and caches the result (including the
// empty "no role" answer).
func (c *CachedClassifier) ClassifySidecarRole(ctx context.Context, baseName, sidecarName string) (string, error) {
	key := cacheKey(baseName, sidecarName)

	role, ok, err := c.store.GetSidecarRole(key)
	if err != nil {
		util.WarnLog("Role cache read failed for %s: %v", sidecarName, err)
	} else if ok {
		util.DebugLog("Role cache hit: %s", sidecarName)
		return role, nil
	}

	role, err = c.inner.ClassifySidecarRole(ctx, baseName, sidecarName)
	if err != nil {
		return "", err
	}

	if err := c.store.PutSidecarRole(key, role); err != nil {
		util.WarnLog("Role cache write failed for %s: %v", sidecarName, err)
	}
	return role, nil
}

// CanonicalizeTitles passes straight through to the wrapped classifier
func (c *CachedClassifier) CanonicalizeTitles(ctx context.Context, titles []string) (map[string]string, error) {
	mapping, err := c.inner.CanonicalizeTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("canonicalize titles: %w", err)
	}
	return mapping, nil
}
