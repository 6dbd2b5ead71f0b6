package bot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// runStatusServer exposes a small operational HTTP surface: liveness and a
// status summary for the operator.
func (a *App) runStatusServer() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/status", func(c *gin.Context) {
		cfg := a.serviceProvider.BotConfig().Get()
		c.JSON(http.StatusOK, gin.H{
			"mode":        cfg.Mode,
			"groupMode":   cfg.GroupMode,
			"primaryChat": cfg.PrimaryChatID,
			"sessions":    a.serviceProvider.Sessions().Count(),
			"uptime":      time.Since(a.startedAt).String(),
		})
	})

	logrus.Infof("Status server listening on %s", a.config.EnvStatusAddr)
	if err := router.Run(a.config.EnvStatusAddr); err != nil {
		logrus.WithError(err).Error("Status server stopped")
	}
}
