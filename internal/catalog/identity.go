package catalog

import (
	"fmt"

	"github.com/kapu/quickaccess-catalog-go/internal/util"
)

// CacheIdentity keys an entry's translations in the persistent cache.
type CacheIdentity string

// DeriveCacheIdentity builds the cache key of an item. The item number is left out on
// purpose: it shifts when content packages are added or removed, while the group,
// category and canonical name do not.
//
// Distinct names that only differ by characters the sanitizer strips share an identity.
func DeriveCacheIdentity(groupNo, categoryNo int, canonicalName string) CacheIdentity {
	return CacheIdentity(fmt.Sprintf("%08d-%08d-%s", groupNo, categoryNo, util.SanitizeFileName(canonicalName)))
}

func (id CacheIdentity) String() string {
	return string(id)
}
