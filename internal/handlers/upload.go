package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const maxUploadMemory = 32 << 20

// @Summary      Store uploaded files
// @Description  Every file part of the multipart form is written to the upload directory under its base name.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "file to store"
// @Success      200  {object}  map[string]interface{}  "status, files"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/upload [post]
// @Security     BearerAuth
func (h *Handler) upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read form: " + err.Error()})
		return
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in form"})
		return
	}

	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		if h.log != nil {
			h.log.Errorw("upload_dir_failed", "dir", h.opts.UploadDir, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create upload directory"})
		return
	}

	stored := make([]string, 0, len(form.File))
	for _, headers := range form.File {
		for _, fh := range headers {
			name := filepath.Base(fh.Filename)
			if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing file name"})
				return
			}
			dst := filepath.Join(h.opts.UploadDir, name)
			if err := c.SaveUploadedFile(fh, dst); err != nil {
				if h.log != nil {
					h.log.Errorw("upload_write_failed", "file", name, "err", err)
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store file " + name})
				return
			}
			if h.log != nil {
				h.log.Infow("upload_stored", "file", name, "bytes", fh.Size)
			}
			stored = append(stored, name)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "stored", "files": stored})
}
