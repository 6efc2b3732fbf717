package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakestrouse00/mongodriver/internal/snapshot"
	"github.com/jakestrouse00/mongodriver/internal/storage"
)

// RegisterSnapshotRoutes exposes collection export and restore.
func RegisterSnapshotRoutes(r gin.IRouter, ex *snapshot.Exporter) {
	g := r.Group("/api/snapshots")

	g.POST("", func(c *gin.Context) {
		info, err := ex.Export(c.Request.Context())
		if err != nil {
			failSnapshot(c, err)
			return
		}
		c.JSON(http.StatusCreated, info)
	})

	g.GET("/:key", func(c *gin.Context) {
		rc, err := ex.Open(c.Request.Context(), c.Param("key"))
		if err != nil {
			failSnapshot(c, err)
			return
		}
		defer rc.Close()
		c.DataFromReader(http.StatusOK, -1, snapshot.ContentType, rc, nil)
	})

	g.POST("/:key/restore", func(c *gin.Context) {
		res, err := ex.Restore(c.Request.Context(), c.Param("key"))
		if err != nil {
			failSnapshot(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func failSnapshot(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
	default:
		fail(c, err)
	}
}
