package infra

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/policy"
)

// ProcessShield implements domain.ShieldApplicator by terminating processes
// that match the blocked targets. App identifiers are matched directly
// against process names (case-insensitive substring, same as focus daemons
// do); categories are resolved to patterns via the policy registry.
//
// A process shield has nothing persistent to tear down, so clearing is a
// no-op beyond logging. Re-enforcement while blocked is the caller's job
// (the daemon re-applies on a ticker).
type ProcessShield struct {
	registry *policy.Registry
	logger   *zap.Logger
}

// NewProcessShield creates a shield applicator backed by process termination.
func NewProcessShield(registry *policy.Registry, logger *zap.Logger) *ProcessShield {
	return &ProcessShield{registry: registry, logger: logger}
}

// Apply kills every process matching the target sets when blocking is true,
// and clears the shield when false.
func (s *ProcessShield) Apply(apps []domain.AppID, categories []domain.CategoryID, blocking bool) error {
	if !blocking {
		s.logger.Info("shield cleared")
		return nil
	}

	patterns := make([]string, 0, len(apps))
	for _, a := range apps {
		patterns = append(patterns, string(a))
	}
	for _, c := range categories {
		patterns = append(patterns, s.registry.Patterns(c)...)
	}

	if len(patterns) == 0 {
		// A profile that blocks nothing is legal.
		s.logger.Info("shield applied with no targets")
		return nil
	}

	procs, err := process.Processes()
	if err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrShieldApply)
	}

	var killed, failed int
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process may have exited
		}
		if !matchesAny(name, patterns) {
			continue
		}
		if err := p.Kill(); err != nil {
			failed++
			s.logger.Warn("failed to kill process",
				zap.Int32("pid", p.Pid),
				zap.String("name", name),
				zap.Error(err))
		} else {
			killed++
			s.logger.Info("killed blocked process",
				zap.Int32("pid", p.Pid),
				zap.String("name", name))
		}
	}

	s.logger.Info("shield applied",
		zap.Int("patterns", len(patterns)),
		zap.Int("killed", killed),
		zap.Int("failed", failed))

	if failed > 0 {
		return fmt.Errorf("%d processes could not be killed: %w", failed, domain.ErrShieldApply)
	}
	return nil
}

func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pat := range patterns {
		if strings.EqualFold(name, pat) || strings.Contains(lower, strings.ToLower(pat)) {
			return true
		}
	}
	return false
}

// Ensure ProcessShield implements domain.ShieldApplicator.
var _ domain.ShieldApplicator = (*ProcessShield)(nil)
