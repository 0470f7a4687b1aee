package lp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the LP-specific options from spec.md §6.
type Config struct {
	RerunSolver      bool   `mapstructure:"rerun_solver" env:"RERUN_SOLVER" default:"false"`
	GLPKLimitSeconds int    `mapstructure:"glpk_limit_seconds" env:"GLPK_LIMIT_SECONDS" default:"30"`
	CacheDir         string `mapstructure:"cachedir" env:"LP_CACHE_DIR" default:"./lp-cache"`
	SolverBinary     string `mapstructure:"solver_binary" env:"GLPK_SOLVER_BINARY" default:"glpsol"`
}

// Defaults returns the default LP Config.
func Defaults() *Config {
	return &Config{GLPKLimitSeconds: 30, CacheDir: "./lp-cache", SolverBinary: "glpsol"}
}

// ErrSolverFailed is returned when the external solver process exits
// non-zero or produces no solution file.
type ErrSolverFailed struct {
	Reason string
}

func (e ErrSolverFailed) Error() string { return "lp: solver invocation failed: " + e.Reason }

// Solver drives glpsol: it caches the AMPL model and solution by digest,
// invokes the solver as an external process guarded by a circuit breaker,
// and parses the resulting solution.
type Solver struct {
	config  *Config
	breaker *sourcing.CircuitBreaker
	metrics *sourcing.Metrics
	logger  zerolog.Logger
}

// NewSolver creates a Solver bound to cfg.
func NewSolver(cfg *Config, metrics *sourcing.Metrics) *Solver {
	if metrics == nil {
		metrics = sourcing.NewMetrics()
	}
	logger := log.With().Str("component", "lp_solver").Logger()
	return &Solver{
		config:  cfg,
		breaker: sourcing.NewCircuitBreaker("glpsol", sourcing.DefaultCircuitBreakerConfig(), logger),
		metrics: metrics,
		logger:  logger,
	}
}

// Solve writes the model (if not cached), invokes glpsol, and parses the
// solution into a sourcing.Allocation. stem names the model file family,
// typically derived from the input model filename.
func (s *Solver) Solve(ctx context.Context, stem string, demand parts.Needed, filtered offers.ByItem, pool *sourcing.Pool, shopFixCost float64) (sourcing.Allocation, error) {
	digest := ComputeDigest(demand, filtered)
	modelPath, solutionPath := ArtifactPaths(s.config.CacheDir, stem, digest)

	itemsByKey := make(map[string]catalog.Item, len(demand))
	for _, item := range demand.Items() {
		itemsByKey[item.Key()] = item
	}

	if !s.config.RerunSolver {
		if data, err := os.ReadFile(solutionPath); err == nil {
			s.metrics.RecordLPCache(true)
			raw, parseErr := ParseSolution(bytes.NewReader(data))
			if parseErr == nil {
				return ToSourcingAllocation(raw, itemsByKey), nil
			}
			s.logger.Warn().Err(parseErr).Msg("cached solution unparseable, rerunning solver")
		}
	}
	s.metrics.RecordLPCache(false)

	if !s.breaker.Allow() {
		return nil, ErrSolverFailed{Reason: "circuit breaker open: solver recently failed repeatedly"}
	}

	if err := os.MkdirAll(s.config.CacheDir, 0o755); err != nil {
		return nil, ErrSolverFailed{Reason: err.Error()}
	}

	modelFile, err := os.Create(modelPath)
	if err != nil {
		return nil, ErrSolverFailed{Reason: err.Error()}
	}
	defer modelFile.Close()

	if err := WriteModel(modelFile, demand, filtered, pool, shopFixCost); err != nil {
		return nil, ErrSolverFailed{Reason: err.Error()}
	}
	if err := modelFile.Sync(); err != nil {
		return nil, ErrSolverFailed{Reason: err.Error()}
	}

	solveCtx := ctx
	var cancel context.CancelFunc
	if s.config.GLPKLimitSeconds > 0 {
		solveCtx, cancel = context.WithTimeout(ctx, time.Duration(s.config.GLPKLimitSeconds)*time.Second)
		defer cancel()
	}

	args := []string{"--model", modelFile.Name(), "--output", solutionPath}
	if s.config.GLPKLimitSeconds > 0 {
		args = append(args, "--tmlim", fmt.Sprintf("%d", s.config.GLPKLimitSeconds))
	}

	cmd := exec.CommandContext(solveCtx, s.config.SolverBinary, args...)
	runErr := cmd.Run()

	if _, statErr := os.Stat(solutionPath); statErr != nil {
		s.breaker.RecordFailure(runErr)
		s.metrics.RecordSolverOutcome("failed")
		return nil, ErrSolverFailed{Reason: "no solution file produced"}
	}
	// A solution file present after execution is authoritative even if the
	// process exit code was non-zero, per spec.md §4.4.
	if runErr != nil {
		s.logger.Warn().Err(runErr).Msg("solver exited non-zero but produced a solution file")
	}

	data, err := os.ReadFile(solutionPath)
	if err != nil {
		s.breaker.RecordFailure(err)
		return nil, ErrSolverFailed{Reason: err.Error()}
	}

	raw, err := ParseSolution(bytes.NewReader(data))
	if err != nil {
		s.breaker.RecordFailure(err)
		s.metrics.RecordSolverOutcome("parse_failed")
		return nil, err
	}

	s.breaker.RecordSuccess()
	s.metrics.RecordSolverOutcome("solved")
	return ToSourcingAllocation(raw, itemsByKey), nil
}

// StemFromModelFileName derives the cache-file stem from the input model
// filename, mirroring os.path.splitext(os.path.basename(...)) in the
// original implementation.
func StemFromModelFileName(modelFileName string) string {
	base := filepath.Base(modelFileName)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
