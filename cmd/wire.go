package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	gotrueadapter "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/identity/gotrue"
	catalogadapter "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/render/catalog"
	chainstore "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/secrets/chain"
	tomlsnapshot "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/snapshot/toml"
	storeadapter "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/store/rest"
	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

const (
	configDirName = ".investfolio"

	remoteURLKey      = "supabase.url"
	anonKeyKey        = "supabase.anon_key"
	catalogTableKey   = "catalog.table"
	requestTimeoutKey = "request_timeout"
	debugKey          = "debug"

	defaultCatalogTable   = "investment_options"
	defaultRequestTimeout = 10 * time.Second
)

type app struct {
	log      *zap.Logger
	identity *gotrueadapter.Client
	session  *application.SessionManager
	store    *application.PortfolioStore
	renderer func([]application.CardView, catalogadapter.RenderOptions) (string, error)
}

// wireApp assembles the adapters behind the command tree. With no remote
// configured the catalog still works from its local snapshot; session,
// identity, and store stay nil and commands that need them say so.
func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.GetBool(debugKey))
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	snapshots, err := tomlsnapshot.NewStore(viper.New(), ports.SystemClock{})
	if err != nil {
		return nil, fmt.Errorf("wire catalog snapshot store: %w", err)
	}

	a := &app{
		log:      log,
		renderer: catalogadapter.Render,
	}

	remoteURL := strings.TrimSpace(cfg.GetString(remoteURLKey))
	if remoteURL == "" {
		a.store = application.NewPortfolioStore(nil, snapshots, cfg.GetString(catalogTableKey), log)
		return a, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secrets, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, configDirName, "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	timeout := cfg.GetDuration(requestTimeoutKey)

	identity, err := gotrueadapter.NewClient(gotrueadapter.Config{
		BaseURL:        remoteURL,
		APIKey:         cfg.GetString(anonKeyKey),
		HTTPClient:     http.DefaultClient,
		RequestTimeout: timeout,
		Secrets:        secrets,
	})
	if err != nil {
		return nil, fmt.Errorf("wire identity provider: %w", err)
	}

	remote := &storeadapter.Client{
		BaseURL:        remoteURL,
		APIKey:         cfg.GetString(anonKeyKey),
		HTTPClient:     http.DefaultClient,
		RequestTimeout: timeout,
		BearerToken:    identity.AccessToken,
	}

	a.identity = identity
	a.session = application.NewSessionManager(identity, log)
	a.store = application.NewPortfolioStore(remote, snapshots, cfg.GetString(catalogTableKey), log)

	return a, nil
}

// loadConfig reads ~/.investfolio/config.toml and the IVF_* environment,
// environment winning. IVF_SUPABASE_URL maps to supabase.url and so on.
func loadConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")

	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.AddConfigPath(filepath.Join(homeDir, configDirName))
	}

	cfg.SetEnvPrefix("IVF")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(catalogTableKey, defaultCatalogTable)
	cfg.SetDefault(requestTimeoutKey, defaultRequestTimeout)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.OutputPaths = []string{"stderr"}
	return logCfg.Build()
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	_ = a.log.Sync()
}

// requireSession guards commands that need the remote identity provider.
func (a *app) requireSession() (*application.SessionManager, error) {
	if a.session == nil {
		return nil, fmt.Errorf("no remote configured: set IVF_SUPABASE_URL or supabase.url in the config file")
	}
	return a.session, nil
}
