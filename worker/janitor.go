// ytparser/worker/janitor.go
package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically removes rendered artifacts older than the configured
// lifetime from the download directory.
type Janitor struct {
	dir      string
	lifetime time.Duration
	log      *zap.Logger
}

func NewJanitor(dir string, lifetime time.Duration, log *zap.Logger) *Janitor {
	return &Janitor{dir: dir, lifetime: lifetime, log: log}
}

func (j *Janitor) Start(ctx context.Context) {
	if j.lifetime <= 0 {
		return
	}
	go j.loop(ctx)
}

func (j *Janitor) loop(ctx context.Context) {
	ticker := time.NewTicker(j.lifetime / 4) // Check 4 times per lifetime
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes expired artifacts once. Exposed for tests.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-j.lifetime)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			full := filepath.Join(j.dir, entry.Name())
			j.log.Info("cleaning up old artifact", zap.String("path", full))
			_ = os.Remove(full)
		}
	}
}
