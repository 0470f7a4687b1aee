package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CleanupConfig holds configuration for the background cleanup jobs.
type CleanupConfig struct {
	LPCacheCleanupInterval time.Duration // How often to sweep the LP artifact cache
	LPCacheDir             string        // Directory holding .ampl/.solution files
	LPCacheRetention       time.Duration // Age threshold for LP artifact deletion
	RunCleanupAge          time.Duration // Age threshold for completed/failed run deletion
	Enabled                bool
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		LPCacheCleanupInterval: 1 * time.Hour,
		LPCacheDir:             "./lp-cache",
		LPCacheRetention:       7 * 24 * time.Hour,
		RunCleanupAge:          30 * 24 * time.Hour,
		Enabled:                true,
	}
}

// CleanupManager manages background cleanup jobs: evicting stale LP artifact
// files from disk and deleting old run rows from Postgres.
type CleanupManager struct {
	config CleanupConfig
	logger *zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	lpCacheDone chan struct{}
	runsDone    chan struct{}
}

// NewCleanupManager creates a new cleanup manager.
func NewCleanupManager(config CleanupConfig, logger *zerolog.Logger) *CleanupManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &CleanupManager{
		config:      config,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		lpCacheDone: make(chan struct{}),
		runsDone:    make(chan struct{}),
	}
}

// Start begins all background cleanup jobs.
func (cm *CleanupManager) Start() {
	if !cm.config.Enabled {
		cm.logger.Info().Msg("cleanup jobs are disabled, not starting")
		return
	}

	cm.logger.Info().
		Dur("lp_cache_interval", cm.config.LPCacheCleanupInterval).
		Dur("run_cleanup_age", cm.config.RunCleanupAge).
		Msg("starting cleanup manager")

	go cm.runLPCacheCleanup()
	go cm.runRunsCleanup()
}

// Stop gracefully stops all cleanup jobs.
func (cm *CleanupManager) Stop() {
	cm.logger.Info().Msg("stopping cleanup manager...")
	cm.cancel()

	select {
	case <-cm.lpCacheDone:
		cm.logger.Debug().Msg("LP cache cleanup job stopped")
	case <-time.After(5 * time.Second):
		cm.logger.Warn().Msg("LP cache cleanup job did not stop gracefully")
	}

	select {
	case <-cm.runsDone:
		cm.logger.Debug().Msg("run cleanup job stopped")
	case <-time.After(5 * time.Second):
		cm.logger.Warn().Msg("run cleanup job did not stop gracefully")
	}

	cm.logger.Info().Msg("cleanup manager stopped")
}

// runLPCacheCleanup periodically removes stale model/solution files.
func (cm *CleanupManager) runLPCacheCleanup() {
	defer close(cm.lpCacheDone)

	ticker := time.NewTicker(cm.config.LPCacheCleanupInterval)
	defer ticker.Stop()

	cm.cleanupLPCache()

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
			cm.cleanupLPCache()
		}
	}
}

// cleanupLPCache deletes .ampl/.solution files older than the retention
// window, adapted from the teacher's expired-exception sweep.
func (cm *CleanupManager) cleanupLPCache() {
	start := time.Now()
	cm.logger.Debug().Msg("running LP cache cleanup job")

	deleted, err := CleanupLPCache(cm.config.LPCacheDir, cm.config.LPCacheRetention)
	if err != nil {
		cm.logger.Error().Err(err).Msg("failed to clean up LP cache")
		return
	}

	duration := time.Since(start)
	if deleted > 0 {
		cm.logger.Info().Int("deleted", deleted).Dur("duration", duration).Msg("cleaned up stale LP artifacts")
	} else {
		cm.logger.Debug().Dur("duration", duration).Msg("no stale LP artifacts to clean up")
	}
}

// runRunsCleanup periodically deletes old run rows.
func (cm *CleanupManager) runRunsCleanup() {
	defer close(cm.runsDone)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	time.Sleep(5 * time.Minute)
	cm.cleanupRuns()

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
			cm.cleanupRuns()
		}
	}
}

// cleanupRuns deletes completed/failed runs older than RunCleanupAge.
func (cm *CleanupManager) cleanupRuns() {
	start := time.Now()
	cm.logger.Debug().Msg("running run cleanup job")

	deleted, err := CleanupRuns(cm.ctx, cm.config.RunCleanupAge)
	if err != nil {
		cm.logger.Error().Err(err).Msg("failed to clean up old runs")
		return
	}

	duration := time.Since(start)
	if deleted > 0 {
		cm.logger.Info().Int("deleted", deleted).Dur("duration", duration).Msg("cleaned up old runs")
	} else {
		cm.logger.Debug().Dur("duration", duration).Msg("no old runs to clean up")
	}
}

// CleanupLPCache removes .ampl and .solution files under dir whose
// modification time is older than maxAge. Adapted from the teacher's
// cleanup_exceptions.go sweep, generalized from a SQL DELETE to a
// filesystem walk since the LP cache lives on disk, not in Postgres.
func CleanupLPCache(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".ampl") && !strings.HasSuffix(name, ".solution") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, name)); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

// CleanupRuns deletes completed/failed database.Run rows older than maxAge.
func CleanupRuns(ctx context.Context, maxAge time.Duration) (int, error) {
	return cleanupOldRunsImpl(ctx, time.Now().Add(-maxAge))
}
