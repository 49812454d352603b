package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
)

const (
	scanFileName = "scan"
	tagFileName  = "tag"

	defaultPollInterval = 100 * time.Millisecond
)

// SpoolTagReader bridges an external tag scanner process through a spool
// directory. The scanner drops each scanned payload into <dir>/scan (write
// to a temp file then rename, so reads never see partial content); Scan
// consumes the file and returns its content verbatim. Write provisions a
// tag by placing the payload at <dir>/tag for the scanner side to burn.
type SpoolTagReader struct {
	scanPath string
	tagPath  string
	interval time.Duration
	logger   *zap.Logger
}

// NewSpoolTagReader creates a tag reader over the given spool directory.
func NewSpoolTagReader(spoolDir string, logger *zap.Logger) (*SpoolTagReader, error) {
	if err := os.MkdirAll(spoolDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &SpoolTagReader{
		scanPath: filepath.Join(spoolDir, scanFileName),
		tagPath:  filepath.Join(spoolDir, tagFileName),
		interval: defaultPollInterval,
		logger:   logger,
	}, nil
}

// Scan blocks until a payload is spooled or ctx is cancelled. The payload
// is returned exactly as scanned: no trimming, no case folding.
func (r *SpoolTagReader) Scan(ctx context.Context) (string, error) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			data, err := os.ReadFile(r.scanPath)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return "", fmt.Errorf("%s: %w", err, domain.ErrScanFailed)
			}
			if err := os.Remove(r.scanPath); err != nil {
				return "", fmt.Errorf("%s: %w", err, domain.ErrScanFailed)
			}
			r.logger.Debug("tag scanned", zap.Int("bytes", len(data)))
			return string(data), nil
		}
	}
}

// Write provisions a tag with the payload.
func (r *SpoolTagReader) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := r.tagPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(payload), 0600); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrWriteFailed)
	}
	if err := os.Rename(tmp, r.tagPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", err, domain.ErrWriteFailed)
	}
	r.logger.Info("tag written", zap.String("path", r.tagPath))
	return nil
}

// Ensure SpoolTagReader implements domain.TagAuthenticator.
var _ domain.TagAuthenticator = (*SpoolTagReader)(nil)
