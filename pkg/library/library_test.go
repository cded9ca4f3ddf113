package library

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/waizdev/playgate/internal/testutil"
	"github.com/waizdev/playgate/pkg/store"
)

func newTestLibrary(t *testing.T) (*Library, *store.Store, *testutil.FakeProber) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	prober := testutil.NewFakeProber()
	return New(s, prober, nil), s, prober
}

func writeMediaFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("media-bytes-"+name), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// TestImport verifies a single import writes the full record atomically.
func TestImport(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()
	path := writeMediaFile(t, dir, "trip.mp4")

	v, err := l.Import(path, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v.Name != "trip.mp4" {
		t.Errorf("name = %q, want trip.mp4", v.Name)
	}
	if v.Duration != 90.5 {
		t.Errorf("duration = %v, want probed 90.5", v.Duration)
	}
	if v.MimeType != "video/mp4" {
		t.Errorf("mime type = %q, want video/mp4", v.MimeType)
	}

	stored, handlePath, err := s.GetVideo(v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if !bytes.Equal(stored.Data, []byte("media-bytes-trip.mp4")) {
		t.Error("stored payload does not match the file")
	}
	if !bytes.Equal(stored.Thumbnail, []byte("fake-jpeg-bytes")) {
		t.Error("stored thumbnail does not match the probe")
	}
	if handlePath == "" {
		t.Error("Import(keepHandle=true) stored no handle")
	}
}

// TestImportIdempotent verifies re-importing the same unmodified file
// produces exactly one record.
func TestImportIdempotent(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()
	path := writeMediaFile(t, dir, "trip.mp4")

	first, err := l.Import(path, false)
	if err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	second, err := l.Import(path, false)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ids differ: %q vs %q, want deterministic id", first.ID, second.ID)
	}

	videos, err := s.GetAllVideos(true)
	if err != nil {
		t.Fatalf("GetAllVideos() error = %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("got %d records after double import, want 1", len(videos))
	}
}

// TestImportBatchSkipsUndecodable verifies a bad file does not abort the
// batch.
func TestImportBatchSkipsUndecodable(t *testing.T) {
	l, s, prober := newTestLibrary(t)
	dir := t.TempDir()
	good := writeMediaFile(t, dir, "good.mp4")
	bad := writeMediaFile(t, dir, "document.pdf")
	alsoGood := writeMediaFile(t, dir, "also-good.webm")
	prober.FailPaths[bad] = true

	imported, failed, err := l.ImportBatch([]string{good, bad, alsoGood}, false)
	if err != nil {
		t.Fatalf("ImportBatch() error = %v", err)
	}
	if len(imported) != 2 {
		t.Errorf("imported %d files, want 2", len(imported))
	}
	if !errors.Is(failed[bad], ErrMediaDecode) {
		t.Errorf("failed[%q] = %v, want ErrMediaDecode", bad, failed[bad])
	}

	videos, err := s.GetAllVideos(true)
	if err != nil {
		t.Fatalf("GetAllVideos() error = %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("store has %d records, want 2", len(videos))
	}
}

// TestDeleteCascades verifies deleting a video strips it from every
// playlist and subsequent membership reads omit it without error.
func TestDeleteCascades(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()

	pathA := writeMediaFile(t, dir, "a.mp4")
	pathB := writeMediaFile(t, dir, "b.mp4")
	a, err := l.Import(pathA, false)
	if err != nil {
		t.Fatalf("Import(a) error = %v", err)
	}
	b, err := l.Import(pathB, false)
	if err != nil {
		t.Fatalf("Import(b) error = %v", err)
	}

	p, err := l.CreatePlaylist("Trip", "")
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if err := l.AddToPlaylist(p.ID, id); err != nil {
			t.Fatalf("AddToPlaylist() error = %v", err)
		}
	}

	if err := l.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := s.GetPlaylist(p.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	if len(got.VideoIDs) != 1 || got.VideoIDs[0] != b.ID {
		t.Errorf("membership after delete = %v, want [%s]", got.VideoIDs, b.ID)
	}

	videos, err := l.PlaylistVideos(p.ID)
	if err != nil {
		t.Fatalf("PlaylistVideos() error = %v", err)
	}
	for _, v := range videos {
		if v.ID == a.ID {
			t.Error("deleted video still resolves through playlist read")
		}
	}
}

// TestPlaylistMembership covers the create/add/reorder scenario: create
// "Trip", add two ids, reorder, and read back the exact sequence.
func TestPlaylistMembership(t *testing.T) {
	l, s, _ := newTestLibrary(t)

	p, err := l.CreatePlaylist("Trip", "summer videos")
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}

	if err := l.AddToPlaylist(p.ID, "v1"); err != nil {
		t.Fatalf("AddToPlaylist(v1) error = %v", err)
	}
	if err := l.AddToPlaylist(p.ID, "v2"); err != nil {
		t.Fatalf("AddToPlaylist(v2) error = %v", err)
	}
	// Adding an existing id must not duplicate.
	if err := l.AddToPlaylist(p.ID, "v1"); err != nil {
		t.Fatalf("AddToPlaylist(v1 again) error = %v", err)
	}

	if err := l.Reorder(p.ID, []string{"v2", "v1"}); err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}

	got, err := s.GetPlaylist(p.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	if len(got.VideoIDs) != 2 || got.VideoIDs[0] != "v2" || got.VideoIDs[1] != "v1" {
		t.Errorf("membership = %v, want [v2 v1]", got.VideoIDs)
	}

	// Removing an absent id is a no-op.
	if err := l.RemoveFromPlaylist(p.ID, "not-there"); err != nil {
		t.Fatalf("RemoveFromPlaylist(absent) error = %v", err)
	}
	if err := l.RemoveFromPlaylist(p.ID, "v2"); err != nil {
		t.Fatalf("RemoveFromPlaylist(v2) error = %v", err)
	}
	got, err = s.GetPlaylist(p.ID)
	if err != nil {
		t.Fatalf("GetPlaylist() error = %v", err)
	}
	if len(got.VideoIDs) != 1 || got.VideoIDs[0] != "v1" {
		t.Errorf("membership after remove = %v, want [v1]", got.VideoIDs)
	}
}

// TestRecordProgress verifies clamping and the completion threshold.
func TestRecordProgress(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()
	v, err := l.Import(writeMediaFile(t, dir, "a.mp4"), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if err := l.RecordProgress(v.ID, 30, 45); err != nil {
		t.Fatalf("RecordProgress() error = %v", err)
	}
	got, _, err := s.GetVideo(v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Completed {
		t.Error("45% watched marked completed")
	}

	if err := l.RecordProgress(v.ID, 89, 120); err != nil {
		t.Fatalf("RecordProgress() error = %v", err)
	}
	got, _, err = s.GetVideo(v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %v, want clamped to 100", got.Progress)
	}
	if !got.Completed {
		t.Error("fully watched video not marked completed")
	}
}

// TestToggleVault verifies the flag flip moves the record between views.
func TestToggleVault(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()
	v, err := l.Import(writeMediaFile(t, dir, "private.mp4"), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if err := l.ToggleVault(v.ID, true); err != nil {
		t.Fatalf("ToggleVault() error = %v", err)
	}

	libraryView, err := s.GetAllVideos(false)
	if err != nil {
		t.Fatalf("GetAllVideos(false) error = %v", err)
	}
	if len(libraryView) != 0 {
		t.Error("vaulted video still visible in library view")
	}

	vaultView, err := s.GetAllVideos(true)
	if err != nil {
		t.Fatalf("GetAllVideos(true) error = %v", err)
	}
	if len(vaultView) != 1 {
		t.Error("vaulted video missing from full view")
	}
}

func TestToggleFavorite(t *testing.T) {
	l, s, _ := newTestLibrary(t)
	dir := t.TempDir()
	v, err := l.Import(writeMediaFile(t, dir, "again.mp4"), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v.Favorited {
		t.Error("freshly imported video starts favorited")
	}

	if err := l.ToggleFavorite(v.ID, true); err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	got, _, err := s.GetVideo(v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if !got.Favorited {
		t.Error("ToggleFavorite(true) did not stick")
	}

	if err := l.ToggleFavorite(v.ID, false); err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	got, _, err = s.GetVideo(v.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Favorited {
		t.Error("ToggleFavorite(false) did not stick")
	}
}

// TestRefreshThumbnail verifies recapture through the stored handle.
func TestRefreshThumbnail(t *testing.T) {
	l, s, prober := newTestLibrary(t)
	dir := t.TempDir()
	path := writeMediaFile(t, dir, "a.mp4")

	withHandle, err := l.Import(path, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	prober.Thumbnail = []byte("recaptured")
	if err := l.RefreshThumbnail(withHandle.ID); err != nil {
		t.Fatalf("RefreshThumbnail() error = %v", err)
	}
	got, _, err := s.GetVideo(withHandle.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if !bytes.Equal(got.Thumbnail, []byte("recaptured")) {
		t.Error("thumbnail not refreshed")
	}

	// A handle-less video cannot be refreshed.
	other := writeMediaFile(t, dir, "b.mp4")
	noHandle, err := l.Import(other, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if err := l.RefreshThumbnail(noHandle.ID); err == nil {
		t.Error("RefreshThumbnail() without handle succeeded, want error")
	}
}

// TestVideoID verifies determinism of the derived id.
func TestVideoID(t *testing.T) {
	mod := time.UnixMilli(1700000000000)
	if got := VideoID("trip.mp4", mod); got != "trip.mp4-1700000000000" {
		t.Errorf("VideoID() = %q, want trip.mp4-1700000000000", got)
	}
}
