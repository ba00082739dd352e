// Package httpapi exposes the latest server list over http.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notashark/internal/directory"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

type Snapshots interface {
	Latest() (directory.Snapshot, bool)
}

func NewRouter(snapshots Snapshots) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().Msg(fmt.Sprintf("%s %s %d in %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start)))
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/servers", func(c *gin.Context) {
		snapshot, ok := snapshots.Latest()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"reason": "server list not available yet"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})
	return router
}

// Serve the api on the provided address until the context is done
func Serve(ctx context.Context, address string, snapshots Snapshots) error {

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{Addr: address, Handler: NewRouter(snapshots)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Could not shut down the http api cleanly")
		}
	}()

	log.Info().Msg(fmt.Sprintf("Serving the http api on %s", address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http api stopped: %w", err)
	}
	return nil
}
