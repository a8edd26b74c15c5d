package api

import (
	"context"
	"net/http"
	"time"

	"github.com/edaniels/golog"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

//SetRouter returns the preview API serving snapshots of src
func SetRouter(src Source) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiRoutes.GET("/frame", func(ctx *gin.Context) {
		snap, ok := src.Snapshot()
		if !ok || len(snap.JPEG) == 0 {
			ctx.Status(http.StatusServiceUnavailable) //nothing captured yet
			return
		}
		ctx.Data(http.StatusOK, "image/jpeg", snap.JPEG)
	})

	apiRoutes.GET("/detections", func(ctx *gin.Context) {
		snap, ok := src.Snapshot()
		if !ok {
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	return r
}

//Serve runs handler on addr until ctx is done, then shuts the server down
func Serve(ctx context.Context, addr string, handler http.Handler, logger golog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errC := make(chan error, 1)
	go func() {
		logger.Infow("preview API listening", "addr", addr)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return errors.Wrapf(err, "preview API on '%s'", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "could not shut preview API down")
	}
	<-errC //http.ErrServerClosed
	return nil
}
