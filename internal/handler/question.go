package handler

import (
	"os"
	"path/filepath"
	"strings"
	"trivia-rag/internal/adapter/loader"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/dto"
	"trivia-rag/internal/logger"
	"trivia-rag/internal/middleware"
	"trivia-rag/internal/service"
	"trivia-rag/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentLoader extracts text from an uploaded file on disk.
type DocumentLoader interface {
	Load(path, name string) (loader.Document, error)
}

// QuestionHandler handles question generation HTTP requests
type QuestionHandler struct {
	service   service.QuestionService
	loader    DocumentLoader
	uploadDir string
}

// NewQuestionHandler creates a new QuestionHandler instance.
// uploadDir holds upload temp files; empty means os.TempDir().
func NewQuestionHandler(service service.QuestionService, loader DocumentLoader, uploadDir string) *QuestionHandler {
	return &QuestionHandler{
		service:   service,
		loader:    loader,
		uploadDir: uploadDir,
	}
}

// Generate godoc
// @Summary Generate questions from a document
// @Description Indexes the document (unless the existing index is requested) and returns five questions
// @Tags questions
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "Document"
// @Success 200 {object} dto.QuestionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /generate [post]
func (h *QuestionHandler) Generate(c *fiber.Ctx) error {
	req, ok := middleware.ValidatedRequest[dto.GenerateRequest](c)
	if !ok {
		return domain.NewInternalError("generate request was not validated", nil)
	}

	set, err := h.service.FromDocument(c.UserContext(), service.DocumentRequest{
		Content:          req.DocumentContent,
		DocumentType:     req.DocumentType,
		Source:           "api",
		UseExistingIndex: req.UseExistingIndex,
		Difficulty:       domain.Difficulty(req.Difficulty),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuestionsResponse(set))
}

// GenerateDirectly godoc
// @Summary Generate questions from a topic
// @Description Generates five questions about the topic without retrieval
// @Tags questions
// @Accept json
// @Produce json
// @Param request body dto.TopicRequest true "Topic"
// @Success 200 {object} dto.QuestionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /generate-directly [post]
func (h *QuestionHandler) GenerateDirectly(c *fiber.Ctx) error {
	req, ok := middleware.ValidatedRequest[dto.TopicRequest](c)
	if !ok {
		return domain.NewInternalError("topic request was not validated", nil)
	}

	set, err := h.service.FromTopic(c.UserContext(), service.TopicRequest{
		Topic:      req.Topic,
		Difficulty: domain.Difficulty(req.Difficulty),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuestionsResponse(set))
}

// GenerateQuestion godoc
// @Summary Generate a single question from a topic
// @Description Older clients send {"question": topic, "difficulty": level} and read back one question
// @Tags questions
// @Accept json
// @Produce json
// @Param request body dto.TopicRequest true "Topic"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /generate-question [post]
func (h *QuestionHandler) GenerateQuestion(c *fiber.Ctx) error {
	req, ok := middleware.ValidatedRequest[dto.TopicRequest](c)
	if !ok {
		return domain.NewInternalError("topic request was not validated", nil)
	}

	set, err := h.service.FromTopic(c.UserContext(), service.TopicRequest{
		Topic:      req.Topic,
		Difficulty: domain.Difficulty(req.Difficulty),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuestionResponse(set[0]))
}

// Upload godoc
// @Summary Generate questions from an uploaded file
// @Description Accepts a PDF, plain text or markdown file in the multipart field "file"
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 200 {object} dto.QuestionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /upload [post]
func (h *QuestionHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.NewInvalidArgumentError("multipart field \"file\" is required")
	}

	tmp, err := os.CreateTemp(h.uploadDir, "upload-"+util.NewULID()+"-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return domain.NewInternalError("failed to create upload file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Get().Warn("Failed to remove upload file", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	if err := c.SaveFile(fh, tmpPath); err != nil {
		return domain.NewInternalError("failed to save upload", err)
	}

	doc, err := h.loader.Load(tmpPath, fh.Filename)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return domain.NewInvalidArgumentError("uploaded file contains no text")
	}

	logger.Get().Info("Upload received",
		zap.String("request_id", middleware.RequestID(c)),
		zap.String("filename", fh.Filename),
		zap.String("mime", doc.MimeType),
		zap.Int64("size", fh.Size))

	set, err := h.service.FromDocument(c.UserContext(), service.DocumentRequest{
		Content:      doc.Text,
		DocumentType: doc.Loader,
		Source:       fh.Filename,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuestionsResponse(set))
}

// SweepCache godoc
// @Summary Evict expired document cache entries
// @Tags maintenance
// @Produce json
// @Success 200 {object} dto.SweepResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /cache/sweep [post]
func (h *QuestionHandler) SweepCache(c *fiber.Ctx) error {
	removed, err := h.service.SweepDocumentCache(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.SweepResponse{Removed: removed})
}

// Health godoc
// @Summary Liveness probe
// @Tags maintenance
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "healthy"})
}
