package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Namespace is a logical partition of cache keys. Namespaces enable scoped
// invalidation and carry distinct TTLs.
type Namespace string

const (
	// NamespaceSearch holds serialized search result lists.
	NamespaceSearch Namespace = "search"
	// NamespacePackage holds per-package metadata.
	NamespacePackage Namespace = "pkg"
	// NamespaceIndex holds upstream index snapshots (e.g. the NUR index).
	NamespaceIndex Namespace = "nur-index"
)

// Key builds an opaque cache key from a namespace tag and a deterministic
// hash of the query parameters. Uniqueness is required only within a
// namespace; the hash is truncated for readable keys.
func Key(ns Namespace, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return string(ns) + ":" + hex.EncodeToString(h[:])[:16]
}

// Prefix returns the invalidation prefix covering every key in a namespace.
func Prefix(ns Namespace) string {
	return string(ns) + ":"
}
