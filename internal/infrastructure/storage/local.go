package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

// LocalStore writes avatars below Root/Prefix. References are "Prefix/<file>",
// relative to the directory served as static assets.
//
// All three variants are first written to temporary files; they are renamed
// into place only when every write succeeded. A set already in place is moved
// aside first and restored if placing the new set fails. Renames are serialized
// so two uploads never leave a mixed set.
type LocalStore struct {
	Root   string
	Prefix string

	mu     sync.Mutex
	write  func(w io.Writer, data []byte) error
	rename func(oldpath, newpath string) error
}

func NewLocalStore(root, prefix string) *LocalStore {
	return &LocalStore{Root: root, Prefix: prefix, write: writeAll, rename: os.Rename}
}

func writeAll(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// Dir is the directory variants are written to.
func (s *LocalStore) Dir() string {
	return filepath.Join(s.Root, filepath.FromSlash(s.Prefix))
}

func (s *LocalStore) Store(_ context.Context, accountID string, res transcoder.Result) (entity.Avatar, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return entity.Avatar{}, fmt.Errorf("%w: %v", repository.ErrStorageFailure, err)
	}

	variants := res.Variants()
	temps := make([]string, 0, len(variants))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, v := range variants {
		tmp, err := s.writeTemp(dir, v.Data)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return entity.Avatar{}, fmt.Errorf("%w: %v", repository.ErrStorageFailure, err)
		}
	}

	dsts := make([]string, len(variants))
	for i, v := range variants {
		dsts[i] = filepath.Join(dir, variantName(accountID, v, res.Extension))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.place(dir, temps, dsts); err != nil {
		cleanup()
		return entity.Avatar{}, fmt.Errorf("%w: %v", repository.ErrStorageFailure, err)
	}
	return avatarRefs(s.Prefix, accountID, res), nil
}

// place renames temps[i] to dsts[i]. Existing destinations are backed up first;
// on failure the new files are removed and the backups moved back.
func (s *LocalStore) place(dir string, temps, dsts []string) error {
	backups := make(map[string]string, len(dsts))
	placed := make([]string, 0, len(dsts))
	restore := func() {
		for _, p := range placed {
			_ = os.Remove(p)
		}
		for dst, bak := range backups {
			_ = s.rename(bak, dst)
		}
	}

	for _, dst := range dsts {
		if _, err := os.Stat(dst); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			restore()
			return err
		}
		bak := filepath.Join(dir, ".avatar-"+uuid.NewString()+".bak")
		if err := s.rename(dst, bak); err != nil {
			restore()
			return err
		}
		backups[dst] = bak
	}
	for i, dst := range dsts {
		if err := s.rename(temps[i], dst); err != nil {
			restore()
			return err
		}
		placed = append(placed, dst)
	}
	for _, bak := range backups {
		_ = os.Remove(bak)
	}
	return nil
}

func (s *LocalStore) writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".avatar-*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := s.write(f, data); err != nil {
		_ = f.Close()
		return name, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return name, err
	}
	if err := f.Close(); err != nil {
		return name, err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return name, err
	}
	return name, nil
}
