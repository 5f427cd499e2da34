package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"passage-server/internal/models"

	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

func (h *PassageHandler) exportPassages(c *gin.Context) {
	h.export(c, "passages", h.csv.ExportPassages)
}

func (h *PassageHandler) exportLinks(c *gin.Context) {
	h.export(c, "links", h.csv.ExportLinks)
}

// export renders into a buffer first so a failure can still produce a JSON
// error instead of a truncated file.
func (h *PassageHandler) export(c *gin.Context, kind string, fn func(ctx context.Context, storyID string, w io.Writer) error) {
	storyID := c.Param("story_id")
	var buf bytes.Buffer
	if err := fn(c.Request.Context(), storyID, &buf); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, storyID, kind))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *PassageHandler) importPassages(c *gin.Context) {
	h.importCSV(c, h.csv.ImportPassages)
}

func (h *PassageHandler) importLinks(c *gin.Context) {
	h.importCSV(c, h.csv.ImportLinks)
}

func (h *PassageHandler) importCSV(c *gin.Context, fn func(ctx context.Context, storyID string, r io.Reader) (*models.ImportResult, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		badRequest(c, fmt.Sprintf("file exceeds %d bytes", maxImportSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	result, err := fn(c.Request.Context(), c.Param("story_id"), file)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
