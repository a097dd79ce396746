// ytparser/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"ytparser/config"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.AuthEnable {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		if parts[1] != cfg.AuthKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Next()
	}
}

// LoadShedMiddleware rejects new job submissions when the machine is out of
// headroom, so a saturated box fails fast instead of queueing work it cannot
// run. Reads (polling, downloads) always pass.
func LoadShedMiddleware(cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if err := checkResources(cfg, log); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// checkResources verifies that the system has enough free resources to take
// on a new job.
func checkResources(cfg *config.Config, log *zap.Logger) error {
	// CPU. Interval 0 measures since the previous call, so submissions are
	// not delayed by a sampling window.
	p, err := cpu.Percent(0, false)
	if err != nil {
		log.Warn("could not get CPU usage", zap.Error(err))
	} else if len(p) > 0 && p[0] > (100.0-cfg.ThrottleCPU) {
		return fmt.Errorf("not enough idle CPU. Current usage: %.2f%%, Idle threshold: %.2f%%", p[0], cfg.ThrottleCPU)
	}

	// Memory
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("could not get memory usage", zap.Error(err))
	} else if vm.Available < uint64(cfg.ThrottleFreeMem) {
		return fmt.Errorf("not enough free memory. Available: %d, Required: %d", vm.Available, cfg.ThrottleFreeMem)
	}

	// Disk, where artifacts land
	if cfg.DownloadDir != "" {
		du, err := disk.Usage(cfg.DownloadDir)
		if err == nil && du.Free < uint64(cfg.ThrottleFreeDisk) {
			return fmt.Errorf("not enough free disk. Free: %d, Required: %d", du.Free, cfg.ThrottleFreeDisk)
		}
	}

	return nil
}
