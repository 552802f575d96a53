// Package pkgmodel holds the value types shared by the registry store and its
// callers: package names, versions, identifiers, version requirements,
// manifests and opaque package contents. Names are validated to be path-safe
// because the store derives directory segments from them; everything else in
// this package is pure data with no filesystem knowledge.
package pkgmodel
