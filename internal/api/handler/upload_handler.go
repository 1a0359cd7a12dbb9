package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetforge/render-be/internal/api/dto"
	"github.com/assetforge/render-be/internal/artifact"
)

const uploadURLExpiry = 15 * time.Minute

// allowedModelExt lists the model formats accepted for direct upload.
var allowedModelExt = map[string]bool{
	".glb":  true,
	".gltf": true,
	".obj":  true,
	".fbx":  true,
}

// CreateUpload handles POST /api/v1/uploads. It allocates an input key
// and returns a presigned PUT URL so clients push model files straight
// to the artifact store.
func (h *UploadHandler) CreateUpload(c *gin.Context) {
	var req dto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !allowedModelExt[ext] {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unsupported file type: expected glb, gltf, obj or fbx"})
		return
	}

	presigner, ok := h.artifacts.(artifact.Presigner)
	if !ok {
		c.JSON(http.StatusNotImplemented, dto.ErrorResponse{Error: "direct uploads are not supported by this storage backend"})
		return
	}

	key := fmt.Sprintf("inputs/%s%s", uuid.NewString(), ext)

	url, err := presigner.PresignUpload(c.Request.Context(), key, artifact.ContentTypeFor(key), uploadURLExpiry)
	if err != nil {
		h.logger.Error("Failed to presign upload", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create upload URL"})
		return
	}

	c.JSON(http.StatusCreated, dto.CreateUploadResponse{
		UploadURL: url,
		FileKey:   key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	})
}
