// Package source fetches loadout documents from the local filesystem, S3 or
// Google Cloud Storage. Sources are read-only.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/loadscope/loadscope/pkg/config"
	"github.com/loadscope/loadscope/pkg/loadout"
)

// maxObjectSize bounds how much of any document is read.
const maxObjectSize = 1 << 20

var (
	// ErrLocationNotAllowed is returned for locations a source refuses to
	// read: local paths when local reads are disabled, and paths that leave
	// a confined directory.
	ErrLocationNotAllowed = fmt.Errorf("%w: location not allowed", loadout.ErrInvalidInput)
	// ErrTooLarge is returned for documents over maxObjectSize bytes.
	ErrTooLarge = fmt.Errorf("%w: loadout document too large", loadout.ErrInvalidInput)
)

// Source fetches the raw bytes of a loadout document.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Location is a parsed source URI.
type Location struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string // empty for files
	Key    string // object key, or file path
}

// ParseLocation splits s3://bucket/key and gs://bucket/key URIs. Anything
// else, including file:// URIs, is a local path.
func ParseLocation(location string) (Location, error) {
	for _, scheme := range []string{"s3", "gs"} {
		prefix := scheme + "://"
		if !strings.HasPrefix(location, prefix) {
			continue
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(location, prefix), "/")
		if !ok || bucket == "" || key == "" {
			return Location{}, fmt.Errorf("%w: invalid %s location %q, want %sbucket/key", loadout.ErrInvalidInput, scheme, location, prefix)
		}
		return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
	}
	path := strings.TrimPrefix(location, "file://")
	if path == "" {
		return Location{}, fmt.Errorf("%w: empty location", loadout.ErrInvalidInput)
	}
	return Location{Scheme: "file", Key: path}, nil
}

// Local reads files, resolving relative paths against BaseDir. A Confined
// source only reads regular files beneath BaseDir.
type Local struct {
	BaseDir  string
	Confined bool
}

// NewLocal creates a Local source rooted at the given directory. Absolute
// paths are read as given.
func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

// NewConfinedLocal creates a Local source that refuses absolute paths and
// any path escaping dir, symlinks included.
func NewConfinedLocal(dir string) *Local {
	return &Local{BaseDir: dir, Confined: true}
}

// Fetch reads a local file.
func (s *Local) Fetch(ctx context.Context, location string) ([]byte, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "file" {
		return nil, fmt.Errorf("local source cannot fetch %s", location)
	}
	if s.Confined {
		return s.fetchConfined(loc.Key)
	}

	path := loc.Key
	if !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func (s *Local) fetchConfined(path string) ([]byte, error) {
	if !filepath.IsLocal(path) {
		return nil, ErrLocationNotAllowed
	}
	root, err := os.OpenRoot(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("opening local source dir: %w", err)
	}
	defer root.Close()

	f, err := root.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fs.ErrNotExist
		}
		return nil, ErrLocationNotAllowed
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrLocationNotAllowed
	}
	return readLimited(f)
}

// readLimited reads r fully, failing with ErrTooLarge past maxObjectSize.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxObjectSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Router dispatches by URI scheme. Cloud clients are created on first use
// unless S3 or GCS is set. A nil Local disables local paths.
type Router struct {
	Local *Local
	S3    Source
	GCS   Source

	s3Config config.S3Config
	mu       sync.Mutex
	gcs      *GCS
}

// NewRouter creates a Router reading local paths relative to the working
// directory and S3 objects with the given settings.
func NewRouter(s3 config.S3Config) *Router {
	return &Router{Local: NewLocal(""), s3Config: s3}
}

// NewServiceRouter creates the Router used by the HTTP service. Local paths
// are confined to cfg.LocalDir and refused when it is empty.
func NewServiceRouter(cfg config.SourceConfig) *Router {
	r := &Router{s3Config: cfg.S3}
	if cfg.LocalDir != "" {
		r.Local = NewConfinedLocal(cfg.LocalDir)
	}
	return r
}

// Fetch reads the document at location.
func (r *Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	var src Source
	switch loc.Scheme {
	case "s3":
		src, err = r.s3Source(ctx)
	case "gs":
		src, err = r.gcsSource(ctx)
	default:
		if r.Local == nil {
			return nil, ErrLocationNotAllowed
		}
		src = r.Local
	}
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx, location)
}

func (r *Router) s3Source(ctx context.Context) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.S3 == nil {
		s, err := NewS3(ctx, r.s3Config)
		if err != nil {
			return nil, err
		}
		r.S3 = s
	}
	return r.S3, nil
}

func (r *Router) gcsSource(ctx context.Context) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GCS == nil {
		s, err := NewGCS(ctx)
		if err != nil {
			return nil, err
		}
		r.gcs = s
		r.GCS = s
	}
	return r.GCS, nil
}

// Close releases any cloud client the router created.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs.Close()
	}
	return nil
}

// Load fetches and decodes a loadout, picking the format from the
// location's extension.
func Load(ctx context.Context, src Source, location string) (loadout.Loadout, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return loadout.Loadout{}, err
	}
	data, err := src.Fetch(ctx, location)
	if err != nil {
		return loadout.Loadout{}, fmt.Errorf("fetch %s: %w", location, err)
	}
	l, err := loadout.Decode(data, loadout.FormatFromPath(loc.Key))
	if err != nil {
		return loadout.Loadout{}, fmt.Errorf("decode %s: %w", location, err)
	}
	return l, nil
}
