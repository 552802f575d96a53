package registry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/pkgstore/internal/metrics"
	"github.com/any-hub/pkgstore/internal/pkgmodel"
)

func TestPublishAppendsIndexLines(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t, root, Options{})

	var want bytes.Buffer
	for _, version := range []string{"0.1.0", "0.2.0", "0.1.0"} {
		m := publish(t, store, "biff/minimal", version, "contents "+version)
		line, err := m.MarshalLine()
		require.NoError(t, err)
		want.Write(line)
		want.WriteByte('\n')

		raw, err := os.ReadFile(filepath.Join(root, "index", "biff", "minimal"))
		require.NoError(t, err)
		require.Equal(t, want.String(), string(raw))
	}
}

func TestPublishThenDownloadRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t, root, Options{})
	payload := []byte{'P', 'K', 0x03, 0x04, 0x00, 0xff}

	m := manifestFor(t, "biff/minimal", "0.1.0")
	require.NoError(t, store.Publish(context.Background(), m, pkgmodel.ContentsFromBytes(payload)))

	contents, err := store.Download(context.Background(), m.ID())
	require.NoError(t, err)
	assert.Equal(t, payload, contents.Bytes())

	_, err = os.Stat(filepath.Join(root, "contents", "biff", "minimal", "0.1.0.zip"))
	require.NoError(t, err)
}

func TestRepublishOverwritesContent(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})
	publish(t, store, "biff/minimal", "0.1.0", "first")
	m := publish(t, store, "biff/minimal", "0.1.0", "second")

	contents, err := store.Download(context.Background(), m.ID())
	require.NoError(t, err)
	assert.Equal(t, "second", string(contents.Bytes()))
}

func TestQueryFiltersByRangeInPublishOrder(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})
	publish(t, store, "biff/minimal", "1.2.0", "b")
	publish(t, store, "biff/minimal", "2.0.0", "c")
	publish(t, store, "biff/minimal", "1.0.0", "a")

	got, err := store.Query(context.Background(), requestFor(t, "biff/minimal@>=1.0.0, <2.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0", "1.0.0"}, versionsOf(got))
}

func TestQueryNotFoundIsDistinctFromEmpty(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})

	_, err := store.Query(context.Background(), requestFor(t, "biff/missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageNotFound))
	assert.True(t, IsNotFound(err))

	publish(t, store, "biff/minimal", "1.0.0", "a")
	got, err := store.Query(context.Background(), requestFor(t, "biff/minimal@>=5.0.0"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestQueryFailsClosedOnMalformedRecord(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t, root, Options{})
	publish(t, store, "biff/minimal", "1.0.0", "a")

	indexPath := filepath.Join(root, "index", "biff", "minimal")
	f, err := os.OpenFile(indexPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"package\": not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	publish(t, store, "biff/minimal", "1.1.0", "b")

	got, err := store.Query(context.Background(), requestFor(t, "biff/minimal"))
	require.Error(t, err)
	assert.Nil(t, got)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "biff/minimal", perr.Package.String())
	assert.Equal(t, 2, perr.Record)
	assert.False(t, IsNotFound(err))
}

func TestQueryDuplicatePolicies(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t, root, Options{})
	first := manifestFor(t, "biff/minimal", "1.0.0")
	first.Package.Description = "first"
	second := manifestFor(t, "biff/minimal", "1.0.0")
	second.Package.Description = "second"

	require.NoError(t, store.Publish(context.Background(), first, pkgmodel.ContentsFromBytes([]byte("a"))))
	publish(t, store, "biff/minimal", "1.1.0", "b")
	require.NoError(t, store.Publish(context.Background(), second, pkgmodel.ContentsFromBytes([]byte("c"))))

	all, err := store.Query(context.Background(), requestFor(t, "biff/minimal"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.0.0"}, versionsOf(all))

	lastWins := newTestStore(t, root, Options{Duplicates: DuplicatesLastWins})
	deduped, err := lastWins.Query(context.Background(), requestFor(t, "biff/minimal"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, versionsOf(deduped))
	assert.Equal(t, "second", deduped[1].Package.Description)
}

func TestDownloadMissingContent(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})
	id, err := pkgmodel.ParsePackageId("biff/minimal@1.0.0")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContentNotFound))
}

func TestPublishRejectsIncompleteManifest(t *testing.T) {
	root := t.TempDir()
	store := newTestStore(t, root, Options{})

	err := store.Publish(context.Background(), pkgmodel.Manifest{}, pkgmodel.ContentsFromBytes(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgmodel.ErrInvalidManifest))

	_, statErr := os.Stat(filepath.Join(root, "index"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestPublishReportsPathOnIOFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index"), []byte("not a directory"), 0o644))
	store := newTestStore(t, root, Options{})

	err := store.Publish(context.Background(), manifestFor(t, "biff/minimal", "1.0.0"), pkgmodel.ContentsFromBytes([]byte("a")))
	require.Error(t, err)

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "create index directory", opErr.Op)
	assert.Equal(t, filepath.Join(store.Root(), "index", "biff"), opErr.Path)
}

func TestFallbackSourcesPreserveOrder(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "primary")
	for _, dir := range []string{root, filepath.Join(base, "other1"), filepath.Join(base, "other2")} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	writeIndexConfig(t, root, pkgmodel.PackageIndexConfig{FallbackRegistries: []string{"../other1", "../other2"}})

	store := newTestStore(t, root, Options{})
	refs, err := store.FallbackSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SourceRef{
		PathRef(canonical(t, filepath.Join(base, "other1"))),
		PathRef(canonical(t, filepath.Join(base, "other2"))),
	}, refs)
}

func TestFallbackSourcesMissingConfig(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})
	_, err := store.FallbackSources(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestFallbackSourcesPolicies(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "primary")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "other2"), 0o755))
	writeIndexConfig(t, root, pkgmodel.PackageIndexConfig{FallbackRegistries: []string{"../missing", "../other2"}})

	strict := newTestStore(t, root, Options{})
	_, err := strict.FallbackSources(context.Background())
	var ferr *FallbackError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "../missing", ferr.Entry)

	lenient := newTestStore(t, root, Options{Fallbacks: FallbackSkipMissing, Metrics: metrics.NewRecorder()})
	refs, err := lenient.FallbackSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SourceRef{PathRef(canonical(t, filepath.Join(base, "other2")))}, refs)
}

func TestFallbackSourcesAcceptsAbsoluteEntries(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "primary")
	other := filepath.Join(base, "elsewhere", "other")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(other, 0o755))
	writeIndexConfig(t, root, pkgmodel.PackageIndexConfig{FallbackRegistries: []string{other, "../elsewhere/other"}})

	store := newTestStore(t, root, Options{})
	refs, err := store.FallbackSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SourceRef{
		PathRef(canonical(t, other)),
		PathRef(canonical(t, other)),
	}, refs)
}

func TestFallbackSourcesSkipMissingLogsOnce(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "primary")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "other2"), 0o755))
	writeIndexConfig(t, root, pkgmodel.PackageIndexConfig{FallbackRegistries: []string{"../missing1", "../other2", "../missing2"}})

	logger, hook := test.NewNullLogger()
	store := newTestStore(t, root, Options{Logger: logger, Fallbacks: FallbackSkipMissing})

	refs, err := store.FallbackSources(context.Background())
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 2, entry.Data["skipped"])
	assert.Contains(t, entry.Message, "../missing1")
	assert.Contains(t, entry.Message, "../missing2")
}

func TestParsePolicies(t *testing.T) {
	d, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicatesKeepAll, d)
	d, err = ParseDuplicatePolicy("Last-Wins")
	require.NoError(t, err)
	assert.Equal(t, DuplicatesLastWins, d)
	_, err = ParseDuplicatePolicy("dedupe")
	assert.Error(t, err)

	f, err := ParseFallbackPolicy("skip-missing")
	require.NoError(t, err)
	assert.Equal(t, FallbackSkipMissing, f)
	_, err = ParseFallbackPolicy("ignore")
	assert.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	store := newTestStore(t, t.TempDir(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Query(ctx, requestFor(t, "biff/minimal"))
	assert.ErrorIs(t, err, context.Canceled)
}
