package registry

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
)

// ManifestPattern matches the manifest files a directory seed picks up
const ManifestPattern = "**/*.{yaml,yml,toml}"

//go:embed manifests
var builtin embed.FS

// Result counts the manifests a seed registered and rejected
type Result struct {
	Loaded int `json:"loaded"`
	Failed int `json:"failed"`
}

// Option configures a Seeder
type Option func(*Seeder)

// WithLogger sets the seeder logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// WithMetrics counts rejected manifests
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Seeder) { s.metrics = m }
}

// Seeder loads app manifests into the launcher registry
type Seeder struct {
	registry *launcher.Registry
	catalog  apps.Catalog
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewSeeder creates a seeder resolving manifest kinds against catalog
func NewSeeder(registry *launcher.Registry, catalog apps.Catalog, opts ...Option) *Seeder {
	s := &Seeder{
		registry: registry,
		catalog:  catalog,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedDefaults registers the built-in apps. A broken built-in manifest is an
// error since it ships with the binary.
func (s *Seeder) SeedDefaults() (Result, error) {
	entries, err := fs.ReadDir(builtin, "manifests")
	if err != nil {
		return Result{}, fmt.Errorf("read built-in manifests: %w", err)
	}

	var res Result
	var errs error
	for _, e := range entries {
		name := path.Join("manifests", e.Name())
		data, err := builtin.ReadFile(name)
		if err == nil {
			err = s.load(name, data)
		}
		if err != nil {
			res.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		res.Loaded++
	}

	s.logger.Info("Seeded default apps", zap.Int("loaded", res.Loaded), zap.Int("failed", res.Failed))
	return res, errs
}

// Seed registers every manifest under dir. A missing directory seeds
// nothing; bad manifests are logged and counted.
func (s *Seeder) Seed(dir string) (Result, error) {
	if dir == "" {
		return Result{}, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Manifest directory not found", zap.String("dir", dir))
		return Result{}, nil
	}

	paths, err := findManifests(dir)
	if err != nil {
		return Result{}, fmt.Errorf("scan %s: %w", dir, err)
	}

	var res Result
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			err = s.load(p, data)
		}
		if err != nil {
			res.Failed++
			s.metrics.IncManifestsFailed()
			s.logger.Warn("Skipping manifest", zap.String("path", p), zap.Error(err))
			continue
		}
		res.Loaded++
		s.logger.Debug("Loaded manifest", zap.String("path", p))
	}

	s.logger.Info("Seeded apps from manifests", zap.String("dir", dir), zap.Int("loaded", res.Loaded), zap.Int("failed", res.Failed))
	return res, nil
}

func (s *Seeder) load(name string, data []byte) error {
	m, err := ParseManifest(name, data)
	if err != nil {
		return err
	}
	desc, err := m.Descriptor(s.catalog)
	if err != nil {
		return err
	}
	return s.registry.Register(desc)
}

// findManifests returns the manifest paths under dir in lexical order
func findManifests(dir string) ([]string, error) {
	var (
		mu    sync.Mutex
		found []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(ManifestPattern, filepath.ToSlash(rel))
		if err != nil || !ok {
			return err
		}

		mu.Lock()
		found = append(found, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}
