// Package blobstore keeps uploaded files under a per-project namespace.
// Object keys look like <projectID>/<ulid>-<name>; the ULID prefix keeps
// names unique and makes lexical order match upload order.
package blobstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"trackboard/project"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

type Store struct {
	fs      afero.Fs
	baseURL string
	now     func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// New wraps fs. publicBaseURL is the externally reachable server root;
// objects are served below <publicBaseURL>/files/.
func New(fsys afero.Fs, publicBaseURL string) *Store {
	return &Store{
		fs:      fsys,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewOS stores objects below dir on the local disk, creating it if needed.
func NewOS(dir, publicBaseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create files directory: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), publicBaseURL), nil
}

// Upload writes r as a new object in the project's namespace.
func (s *Store) Upload(_ context.Context, projectID, name string, r io.Reader) (project.File, error) {
	if err := validateSegment(projectID); err != nil {
		return project.File{}, err
	}
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if err := validateSegment(base); err != nil {
		return project.File{}, err
	}

	objectName := s.newID() + "-" + base
	key := projectID + "/" + objectName
	if err := afero.WriteReader(s.fs, key, r); err != nil {
		return project.File{}, fmt.Errorf("write object %s: %w", key, err)
	}

	info, err := s.fs.Stat(key)
	if err != nil {
		return project.File{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	return s.describe(projectID, info), nil
}

// List returns the project's objects, newest first. A project without
// uploads yields an empty list.
func (s *Store) List(_ context.Context, projectID string) ([]project.File, error) {
	if err := validateSegment(projectID); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, projectID)
	if errors.Is(err, fs.ErrNotExist) {
		return []project.File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list objects for %s: %w", projectID, err)
	}

	files := make([]project.File, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		files = append(files, s.describe(projectID, info))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// Open returns a reader for one object; the caller closes it.
func (s *Store) Open(_ context.Context, projectID, name string) (afero.File, fs.FileInfo, error) {
	key, err := objectKey(projectID, name)
	if err != nil {
		return nil, nil, err
	}
	file, err := s.fs.Open(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open object %s: %w", key, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return file, info, nil
}

func (s *Store) Delete(_ context.Context, projectID, name string) error {
	key, err := objectKey(projectID, name)
	if err != nil {
		return err
	}
	if _, err := s.fs.Stat(key); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("stat object %s: %w", key, err)
	}
	if err := s.fs.Remove(key); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// DeleteProject removes the whole namespace of a deleted project.
func (s *Store) DeleteProject(_ context.Context, projectID string) error {
	if err := validateSegment(projectID); err != nil {
		return err
	}
	if err := s.fs.RemoveAll(projectID); err != nil {
		return fmt.Errorf("remove objects for %s: %w", projectID, err)
	}
	return nil
}

// URL is the public address of an object.
func (s *Store) URL(projectID, name string) string {
	return s.baseURL + "/files/" + url.PathEscape(projectID) + "/" + url.PathEscape(name)
}

func (s *Store) describe(projectID string, info fs.FileInfo) project.File {
	return project.File{
		Name:      info.Name(),
		Key:       projectID + "/" + info.Name(),
		Size:      info.Size(),
		UpdatedAt: info.ModTime().UTC(),
		URL:       s.URL(projectID, info.Name()),
	}
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func objectKey(projectID, name string) (string, error) {
	if err := validateSegment(projectID); err != nil {
		return "", err
	}
	if err := validateSegment(name); err != nil {
		return "", err
	}
	return projectID + "/" + name, nil
}

func validateSegment(value string) error {
	switch {
	case strings.TrimSpace(value) == "", value == ".", value == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, value)
	case strings.ContainsAny(value, "/\\"), strings.ContainsRune(value, 0):
		return fmt.Errorf("%w: %q", ErrInvalidName, value)
	}
	return nil
}
