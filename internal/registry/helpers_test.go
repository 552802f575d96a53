package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

func newTestStore(t *testing.T, root string, opts Options) *FSStore {
	t.Helper()
	store, err := NewFSStore(root, opts)
	require.NoError(t, err)
	return store
}

func manifestFor(t *testing.T, pkg, version string) pkgmodel.Manifest {
	t.Helper()
	name, err := pkgmodel.ParsePackageName(pkg)
	require.NoError(t, err)
	v, err := pkgmodel.ParseVersion(version)
	require.NoError(t, err)
	m := pkgmodel.NewManifest(name, v)
	m.Package.Realm = "shared"
	return m
}

func publish(t *testing.T, store *FSStore, pkg, version, body string) pkgmodel.Manifest {
	t.Helper()
	m := manifestFor(t, pkg, version)
	require.NoError(t, store.Publish(context.Background(), m, pkgmodel.ContentsFromBytes([]byte(body))))
	return m
}

func requestFor(t *testing.T, raw string) pkgmodel.PackageReq {
	t.Helper()
	req, err := pkgmodel.ParsePackageReq(raw)
	require.NoError(t, err)
	return req
}

func writeIndexConfig(t *testing.T, root string, cfg pkgmodel.PackageIndexConfig) {
	t.Helper()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "index"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index", "config.json"), data, 0o644))
}

func versionsOf(manifests []pkgmodel.Manifest) []string {
	out := make([]string, len(manifests))
	for i, m := range manifests {
		out[i] = m.Package.Version.String()
	}
	return out
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}
