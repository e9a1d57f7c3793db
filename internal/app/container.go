package app

import (
	"context"
	"fmt"
	"io"
	"os"

	configapp "github.com/doeshing/scriptgate/internal/application/config"
	"github.com/doeshing/scriptgate/internal/application/doctor"
	"github.com/doeshing/scriptgate/internal/application/script"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/audit"
	"github.com/doeshing/scriptgate/internal/infrastructure/cache"
	"github.com/doeshing/scriptgate/internal/infrastructure/config"
	"github.com/doeshing/scriptgate/internal/infrastructure/executor"
	"github.com/doeshing/scriptgate/internal/infrastructure/fetch"
	"github.com/doeshing/scriptgate/internal/infrastructure/mirror"
	"github.com/doeshing/scriptgate/internal/infrastructure/verify"
	"github.com/doeshing/scriptgate/internal/pkg/logger"
	"github.com/doeshing/scriptgate/internal/ports"
)

// Options tunes BuildContainer.
type Options struct {
	Verbose    bool
	ConfigPath string
	// Status receives fetch progress lines. Nil selects stderr.
	Status io.Writer
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         *logger.SlogLogger
	Audit          *audit.Recorder
	AuditStore     ports.AuditRepository
	CacheStore     *cache.ScriptCache
	Resolver       mirror.Resolver
	Fetcher        *fetch.RetryingFetcher
	Runner         *executor.LocalRunner
	TrustStore     ports.TrustStore
	ScriptService  *script.Service
	DoctorService  *doctor.Service
}

// BuildContainer constructs the dependency graph. Prompter and Presenter are
// left for the caller to attach to ScriptService.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := configapp.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", cfgLoader.Path(), err)
	}

	log := logger.NewStd(opts.Verbose)
	auditStore := audit.OpenRepository(cfg.Audit)
	recorder := audit.NewRecorder(auditStore, log.Slog(), log)

	status := opts.Status
	if status == nil {
		status = os.Stderr
	}

	resolver := mirror.NewResolver()
	fetcher := fetch.New(fetch.Options{
		Config:   cfg.Fetch,
		Resolver: resolver,
		Audit:    recorder,
		Logger:   log,
		Status:   status,
	})
	scriptCache := cache.NewScriptCache(cfg.Cache.Dir, cfg.GetCacheTTL())
	runner := executor.NewLocalRunner()
	trustStore := loadTrustStore(cfg.Trust, log)

	scriptService := &script.Service{
		Fetcher:    fetcher,
		Cache:      scriptCache,
		Verifier:   verify.NewVerifier(),
		TrustStore: trustStore,
		Runner:     runner,
		Audit:      recorder,
		Logger:     log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Cache:          scriptCache,
		Audit:          auditStore,
		Shell:          runner,
		LoadTrust: func(path string) (int, error) {
			store, err := verify.LoadFileTrustStore(path)
			if err != nil {
				return 0, err
			}
			return store.Len(), nil
		},
	}

	return &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Audit:          recorder,
		AuditStore:     auditStore,
		CacheStore:     scriptCache,
		Resolver:       resolver,
		Fetcher:        fetcher,
		Runner:         runner,
		TrustStore:     trustStore,
		ScriptService:  scriptService,
		DoctorService:  doctorService,
	}, nil
}

// loadTrustStore falls back to an empty table when the file is unset or unusable.
func loadTrustStore(settings domain.TrustSettings, log ports.Logger) ports.TrustStore {
	if settings.ChecksumsFile == "" {
		return verify.NewMapTrustStore(nil)
	}
	store, err := verify.LoadFileTrustStore(settings.ChecksumsFile)
	if err != nil {
		log.Warn("known checksums unavailable, continuing without them", map[string]interface{}{
			"path":  settings.ChecksumsFile,
			"error": err.Error(),
		})
		return verify.NewMapTrustStore(nil)
	}
	log.Debug("loaded known checksums", map[string]interface{}{"path": store.Path(), "entries": store.Len()})
	return store
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	if closer, ok := c.AuditStore.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
