package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

func sampleResult() transcoder.Result {
	return transcoder.Result{
		Large:       transcoder.Variant{TargetWidth: 800, Data: []byte("large-bytes")},
		Medium:      transcoder.Variant{TargetWidth: 500, Data: []byte("medium-bytes")},
		Small:       transcoder.Variant{TargetWidth: 200, Data: []byte("small-bytes")},
		Extension:   ".jpg",
		ContentType: "image/jpeg",
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "avatars")
	res := sampleResult()

	av, err := s.Store(context.Background(), "acc1", res)
	require.NoError(t, err)
	assert.Equal(t, "avatars/acc1_X800.jpg", av.Large)
	assert.Equal(t, "avatars/acc1_X500.jpg", av.Medium)
	assert.Equal(t, "avatars/acc1_X200.jpg", av.Small)

	for ref, want := range map[string][]byte{
		av.Large:  res.Large.Data,
		av.Medium: res.Medium.Data,
		av.Small:  res.Small.Data,
	} {
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporaries left behind")
}

func TestLocalStore_Overwrites(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "avatars")
	_, err := s.Store(context.Background(), "acc1", sampleResult())
	require.NoError(t, err)

	next := sampleResult()
	next.Small.Data = []byte("new-small")
	av, err := s.Store(context.Background(), "acc1", next)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(root, av.Small))
	require.NoError(t, err)
	assert.Equal(t, []byte("new-small"), got)
}

func TestLocalStore_PartialFailureLeavesNothing(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "avatars")
	calls := 0
	s.write = func(w io.Writer, data []byte) error {
		calls++
		if calls == 3 {
			return errors.New("disk full")
		}
		return writeAll(w, data)
	}

	_, err := s.Store(context.Background(), "acc1", sampleResult())
	require.ErrorIs(t, err, repository.ErrStorageFailure)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_FailedReplaceKeepsPreviousSet(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "avatars")
	prev := sampleResult()
	av, err := s.Store(context.Background(), "acc1", prev)
	require.NoError(t, err)

	s.rename = func(oldpath, newpath string) error {
		if strings.HasSuffix(oldpath, ".tmp") && strings.HasSuffix(newpath, "_X200.jpg") {
			return errors.New("rename: input/output error")
		}
		return os.Rename(oldpath, newpath)
	}
	next := sampleResult()
	next.Large.Data = []byte("new-large")
	next.Medium.Data = []byte("new-medium")
	next.Small.Data = []byte("new-small")
	_, err = s.Store(context.Background(), "acc1", next)
	require.ErrorIs(t, err, repository.ErrStorageFailure)

	for ref, want := range map[string][]byte{
		av.Large:  prev.Large.Data,
		av.Medium: prev.Medium.Data,
		av.Small:  prev.Small.Data,
	} {
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
		require.NoError(t, err, ref)
		assert.Equal(t, want, got)
	}
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporaries or backups left behind")
}

func TestLocalStore_UnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	_, err := NewLocalStore(root, "avatars").Store(context.Background(), "acc1", sampleResult())
	assert.ErrorIs(t, err, repository.ErrStorageFailure)
}

func TestLocalStore_ConcurrentSameAccount(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "avatars")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store(context.Background(), "acc1", sampleResult())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
	deleted []string
}

func (f *fakeObjects) Upload(_ context.Context, objectPath, _ string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if objectPath == f.failOn {
		return errors.New("503")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[objectPath] = b
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectPath)
	f.deleted = append(f.deleted, objectPath)
	return nil
}

func TestGCSStore_Store(t *testing.T) {
	objs := &fakeObjects{objects: map[string][]byte{}}
	s := NewGCSStore(objs, "bucket-a", "avatars", "", helpers.NewDiscardLogger())

	av, err := s.Store(context.Background(), "acc1", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket-a/avatars/acc1_X500.jpg", av.Medium)
	assert.Equal(t, "https://storage.googleapis.com/bucket-a/avatars/acc1_X200.jpg", av.Small)
	assert.Equal(t, []byte("medium-bytes"), objs.objects["avatars/acc1_X500.jpg"])
	assert.Len(t, objs.objects, 3)
}

func TestGCSStore_PublicBase(t *testing.T) {
	objs := &fakeObjects{objects: map[string][]byte{}}
	s := NewGCSStore(objs, "bucket-a", "avatars", "https://cdn.example.com/", helpers.NewDiscardLogger())

	av, err := s.Store(context.Background(), "acc1", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/acc1_X800.jpg", av.Large)
}

func TestGCSStore_RollsBackOnFailure(t *testing.T) {
	objs := &fakeObjects{objects: map[string][]byte{}, failOn: "avatars/acc1_X200.jpg"}
	s := NewGCSStore(objs, "bucket-a", "avatars", "", helpers.NewDiscardLogger())

	_, err := s.Store(context.Background(), "acc1", sampleResult())
	require.ErrorIs(t, err, repository.ErrStorageFailure)
	assert.Empty(t, objs.objects)
	assert.ElementsMatch(t, []string{"avatars/acc1_X800.jpg", "avatars/acc1_X500.jpg"}, objs.deleted)
}
