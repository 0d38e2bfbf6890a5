package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/services/cases"
)

// form overhead allowed on top of the document itself
const multipartSlack = 1 << 20

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// analyze handles POST /api/analyze with the file in the "document" field.
func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartSlack)
	fh, err := c.FormFile("document")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(c, common.NewAppError("FILE_TOO_LARGE",
				fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxUpload), common.ErrValidation))
			return
		}
		h.fail(c, common.NewAppError("MISSING_FILE", "No file uploaded", common.ErrInvalidInput))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	rec, err := h.svc.AnalyzeUpload(c.Request.Context(), cases.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": rec})
}

func (h *Handler) getCase(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) listCases(c *gin.Context) {
	recs, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cases": recs, "count": len(recs)})
}

// exportCases handles GET /api/cases/export.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) exportCases(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		h.fail(c, common.NewAppError("INVALID_DATE", "from must be YYYY-MM-DD", common.ErrInvalidInput))
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		h.fail(c, common.NewAppError("INVALID_DATE", "to must be YYYY-MM-DD", common.ErrInvalidInput))
		return
	}
	b, err := h.svc.Export(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="cases.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// fail writes {success:false, error, code} with a status derived from the error category.
func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	code := common.ErrorCode(err, http.StatusText(status))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		common.LoggerFrom(c.Request.Context(), h.logger).Error("http.handler.failed", "path", c.FullPath(), "err", err)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		msg = appErr.Message
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg, "code": code})
}

// StatusFor maps error categories onto HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case common.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
