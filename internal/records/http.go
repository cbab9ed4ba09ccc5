package records

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aslanbek/fieldlog/internal/auth"
	"github.com/aslanbek/fieldlog/internal/media"
	"github.com/aslanbek/fieldlog/internal/metrics"
	"github.com/aslanbek/fieldlog/internal/pipeline"
	"github.com/aslanbek/fieldlog/internal/progress"
)

// RegisterRoutes mounts record operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/records", handler.createRecord)
	group.GET("/records", handler.listRecords)
	group.GET("/records/:recordID", handler.getRecord)
	group.DELETE("/records/:recordID", handler.deleteRecord)
	group.POST("/records/:recordID/attachments", handler.attachMedia)
	group.DELETE("/records/:recordID/attachments", handler.removeAttachment)
}

type httpHandler struct {
	service *Service
}

type createRecordRequest struct {
	Title        string     `json:"title"`
	Notes        string     `json:"notes"`
	ActivityType string     `json:"activity_type"`
	OccurredAt   *time.Time `json:"occurred_at"`
}

func (h *httpHandler) createRecord(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	rec, err := h.service.CreateRecord(c.Request.Context(), userID, CreateInput{
		Title:        req.Title,
		Notes:        req.Notes,
		ActivityType: req.ActivityType,
		OccurredAt:   occurredAt,
	})
	if err != nil {
		if errors.Is(err, ErrTitleRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create record"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *httpHandler) listRecords(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.service.ListRecords(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": list})
}

func (h *httpHandler) getRecord(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recordID, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.service.GetRecord(c.Request.Context(), userID, recordID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *httpHandler) deleteRecord(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recordID, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	if err := h.service.DeleteRecord(c.Request.Context(), userID, recordID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
		return
	}

	c.Status(http.StatusNoContent)
}

type attachResponse struct {
	Attachments []media.Attachment `json:"attachments"`
	Failed      []pipeline.Failure `json:"failed"`
	Cancelled   []string           `json:"cancelled"`
	Progress    []progress.Entry   `json:"progress"`
}

func (h *httpHandler) attachMedia(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recordID, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "files field is required"})
		return
	}

	batch, err := readBatch(headers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded files"})
		return
	}

	out, err := h.service.AttachMedia(c.Request.Context(), userID, recordID, batch)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		case errors.Is(err, pipeline.ErrNoIdentity):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "identity not established"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach media"})
		}
		return
	}

	if metrics.AttachmentUploads != nil {
		metrics.AttachmentUploads.Add(float64(len(out.Result.Succeeded)))
		metrics.AttachmentFailures.Add(float64(len(out.Result.Failed)))
		for _, att := range out.Result.Succeeded {
			metrics.AttachmentBytesStored.Add(float64(att.CompressedSize))
		}
	}

	status := http.StatusCreated
	if len(out.Result.Failed) > 0 || len(out.Result.Cancelled) > 0 {
		status = http.StatusOK
	}
	c.JSON(status, attachResponse{
		Attachments: out.Result.Succeeded,
		Failed:      out.Result.Failed,
		Cancelled:   out.Result.Cancelled,
		Progress:    out.Progress,
	})
}

func (h *httpHandler) removeAttachment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recordID, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	storagePath := c.Query("id")
	if storagePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attachment id is required"})
		return
	}

	if err := h.service.RemoveAttachment(c.Request.Context(), userID, recordID, storagePath); err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		case errors.Is(err, ErrAttachmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove attachment"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func readBatch(headers []*multipart.FileHeader) ([]media.RawFile, error) {
	batch := make([]media.RawFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		payload, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}

		batch = append(batch, media.RawFile{
			Payload:     payload,
			ContentType: header.Header.Get("Content-Type"),
			DisplayName: header.Filename,
			Size:        int64(len(payload)),
		})
	}
	return batch, nil
}
