package handler

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"webasset/services"
	"webasset/utils"
)

// ImageLister is the provisioner surface the workspace image picker needs.
type ImageLister interface {
	ListImages(ctx context.Context) ([]services.KasmImage, error)
}

// ListWorkspaceImages returns the workspace images available on the
// provisioner, filtered to enabled ones.
func ListWorkspaceImages(c *gin.Context, provisioner ImageLister) {
	images, err := provisioner.ListImages(c.Request.Context())
	if err != nil {
		log.Printf("Error listing workspace images: %v", err)
		utils.BadGateway(c, "Failed to fetch workspace images")
		return
	}

	enabled := make([]services.KasmImage, 0, len(images))
	for _, image := range images {
		if image.Enabled {
			enabled = append(enabled, image)
		}
	}

	utils.Success(c, gin.H{"images": enabled})
}
