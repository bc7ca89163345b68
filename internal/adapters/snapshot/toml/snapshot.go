// Package toml persists the last successfully fetched catalog to a
// versioned TOML file. The snapshot is a cache of the remote store, never
// authoritative; it exists so a stale-but-present catalog survives network
// loss and restarts.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

const (
	configName       = "config"
	configType       = "toml"
	snapshotPathKey  = "catalog.snapshot_path"
	snapshotFileMode = 0o600
	snapshotDirMode  = 0o700
	snapshotDir      = ".investfolio"
	snapshotFile     = "catalog.toml"
	tempFilePattern  = ".catalog-*.toml.tmp"
)

type Store struct {
	snapshotPath string
	clock        ports.Clock
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SnapshotStore = (*Store)(nil)

// NewStore resolves the snapshot path through viper, so a config file can
// relocate it, and shares one lock per resolved path across instances.
func NewStore(cfg *viper.Viper, clock ports.Clock) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, snapshotDir, snapshotFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, snapshotDir))
	cfg.SetDefault(snapshotPathKey, defaultPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	snapshotPath := cfg.GetString(snapshotPathKey)
	if snapshotPath == "" {
		return nil, errors.New("catalog snapshot path is empty")
	}
	snapshotPath, err = filepath.Abs(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot path: %w", err)
	}
	snapshotPath = filepath.Clean(snapshotPath)

	return &Store{snapshotPath: snapshotPath, clock: clock, mu: lockForPath(snapshotPath)}, nil
}

func (s *Store) Save(ctx context.Context, options []domain.InvestmentOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := fileSchema{
		Version:    currentSchemaVersion,
		CapturedAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	for _, option := range options {
		file.Options = append(file.Options, toSchema(option))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeSchema(file)
}

func (s *Store) Load(ctx context.Context) ([]domain.InvestmentOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	options := make([]domain.InvestmentOption, 0, len(file.Options))
	for _, entry := range file.Options {
		options = append(options, fromSchema(entry))
	}

	return options, nil
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read catalog snapshot: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), snapshotDirMode); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.snapshotPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp snapshot file: %w", err)
	}

	if err := tempFile.Chmod(snapshotFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp snapshot file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp snapshot file: %w", err)
	}

	if err := os.Rename(tempName, s.snapshotPath); err != nil {
		return fmt.Errorf("replace catalog snapshot: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.snapshotPath, snapshotFileMode); err != nil {
		return fmt.Errorf("chmod catalog snapshot: %w", err)
	}

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
