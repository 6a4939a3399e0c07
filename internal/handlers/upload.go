package handlers

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// allowedUploadTypes is the attachment whitelist. Anything else is rejected
// before a byte hits the disk.
var allowedUploadTypes = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/svg+xml":      ".svg",
	"application/pdf":    ".pdf",
	"text/plain":         ".txt",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// UploadHandler stores chat attachments under random names.
type UploadHandler struct {
	container *container.Container
}

func NewUploadHandler(c *container.Container) *UploadHandler {
	return &UploadHandler{
		container: c,
	}
}

// UploadResult reports the outcome for one file in the batch.
type UploadResult struct {
	Name  string               `json:"name"`
	File  *models.FileMetadata `json:"file,omitempty"`
	Error string               `json:"error,omitempty"`
}

// HandleUpload accepts a multipart batch. Each file is validated and stored
// independently; one bad file never fails the batch.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Expected a multipart form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "No files provided",
		})
	}

	if err := os.MkdirAll(h.container.Config.UploadDir, 0o755); err != nil {
		utils.LogError(c.UserContext(), "failed to create upload directory", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to prepare upload storage",
		})
	}

	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		results = append(results, h.storeFile(c, file))
	}
	return c.JSON(results)
}

func (h *UploadHandler) storeFile(c *fiber.Ctx, file *multipart.FileHeader) UploadResult {
	result := UploadResult{Name: file.Filename}

	contentType := file.Header.Get("Content-Type")
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		result.Error = fmt.Sprintf("unsupported file type: %s", contentType)
		return result
	}

	if file.Size > h.container.Config.MaxUploadSize {
		result.Error = fmt.Sprintf("file exceeds the %d byte limit", h.container.Config.MaxUploadSize)
		return result
	}

	name := uuid.New().String() + ext
	dest := filepath.Join(h.container.Config.UploadDir, name)
	if err := c.SaveFile(file, dest); err != nil {
		utils.LogError(c.UserContext(), "failed to store upload", err, slog.String("filename", file.Filename))
		result.Error = "failed to store file"
		return result
	}

	result.File = &models.FileMetadata{
		Name: file.Filename,
		Type: contentType,
		URL:  "/uploads/" + name,
	}
	return result
}
