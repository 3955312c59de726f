package handlers

import (
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"image"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/breed-api/internal/breed"
	"github.com/Brownie44l1/breed-api/internal/config"
	"github.com/Brownie44l1/breed-api/internal/imaging"
	"github.com/Brownie44l1/breed-api/internal/model"
	"github.com/Brownie44l1/breed-api/internal/prediction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	uploadTemplate = "upload.html"
	staticPrefix   = "/static/uploads"

	defaultMaxUploadBytes = 16 * 1024 * 1024

	msgNoFilePart      = "No file part"
	msgNoImageSelected = "No image selected for uploading"
	msgBadExtension    = "Allowed image types are -> png, jpg, jpeg, gif"
	msgUnreadableImage = "Could not read the uploaded image"
	msgTooLarge        = "Uploaded file is too large"
)

//go:embed templates/upload.html
var templates embed.FS

// Classifier runs the image → prediction → description pipeline.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (*model.PredictionResponse, error)
	ClassifyBase64(ctx context.Context, imageBase64 string) (*model.PredictionResponse, error)
}

type Handler struct {
	classifier     Classifier
	uploadDir      string
	maxUploadBytes int64
	thumbnailSize  uint
}

func NewHandler(classifier Classifier, cfg config.Config) *Handler {
	thumb := cfg.ThumbnailSize
	if thumb == 0 {
		thumb = imaging.DefaultThumbnailSize
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handler{
		classifier:     classifier,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: maxUpload,
		thumbnailSize:  thumb,
	}
}

// Register mounts the routes and the upload page template on r.
func (h *Handler) Register(r *gin.Engine) {
	tmpl := template.Must(template.New(uploadTemplate).
		Funcs(template.FuncMap{"percent": breed.Percent}).
		ParseFS(templates, "templates/"+uploadTemplate))
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", h.Health)
	r.GET("/", h.UploadForm)
	r.POST("/", h.Upload)
	r.POST("/predict", h.Predict)
	r.POST("/predict/image", h.PredictFromImage)
	r.Static(staticPrefix, h.uploadDir)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) UploadForm(c *gin.Context) {
	c.HTML(http.StatusOK, uploadTemplate, gin.H{})
}

type labelValue struct {
	Label string
	Value float64
}

// Upload handles the HTML form: it stores a thumbnail of the photo and
// renders the predicted breeds next to it.
func (h *Handler) Upload(c *gin.Context) {
	file, header, status, msg := h.formFile(c, "file")
	if file == nil {
		h.renderMessage(c, status, msg)
		return
	}
	defer file.Close()

	img, format, err := imaging.Decode(file)
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("Failed to decode upload")
		h.renderMessage(c, http.StatusBadRequest, msgUnreadableImage)
		return
	}
	log.Debug().Str("format", format).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("Decoded upload")

	thumb := imaging.Thumbnail(img, h.thumbnailSize)
	filename, err := h.saveThumbnail(thumb)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save thumbnail")
		h.renderMessage(c, http.StatusInternalServerError, "Failed to store the uploaded image")
		return
	}

	result, err := h.classifier.Classify(c.Request.Context(), thumb)
	if err != nil {
		status, msg := errorStatus(err)
		log.Error().Err(err).Int("status", status).Msg("Classification failed")
		h.renderMessage(c, status, msg)
		return
	}

	predictions := make([]labelValue, len(result.Labels))
	for i := range result.Labels {
		predictions[i] = labelValue{Label: result.Labels[i], Value: result.Values[i]}
	}
	c.HTML(http.StatusOK, uploadTemplate, gin.H{
		"Messages":    []string{result.Text},
		"Filename":    filename,
		"Predictions": predictions,
	})
}

// PredictFromImage accepts a multipart "image" field and answers with JSON.
func (h *Handler) PredictFromImage(c *gin.Context) {
	file, header, status, msg := h.formFile(c, "image")
	if file == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	defer file.Close()

	log.Info().Str("filename", header.Filename).Int64("size", header.Size).Msg("Received file")

	img, _, err := imaging.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Supported: JPEG, PNG, GIF"})
		return
	}

	result, err := h.classifier.Classify(c.Request.Context(), imaging.Thumbnail(img, h.thumbnailSize))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Predict accepts {"image": "<base64 image>"}.
func (h *Handler) Predict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	if _, err := base64.StdEncoding.DecodeString(req.Image); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be standard base64"})
		return
	}

	result, err := h.classifier.ClassifyBase64(c.Request.Context(), req.Image)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// formFile extracts an allowed image upload from field. On failure the file
// is nil and status/msg describe the problem.
func (h *Handler) formFile(c *gin.Context, field string) (multipart.File, *multipart.FileHeader, int, string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, nil, http.StatusRequestEntityTooLarge, msgTooLarge
		case errors.Is(err, http.ErrMissingFile) && h.fieldSentWithoutFile(c, field):
			return nil, nil, http.StatusBadRequest, msgNoImageSelected
		default:
			return nil, nil, http.StatusBadRequest, msgNoFilePart
		}
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, http.StatusBadRequest, msgNoImageSelected
	}
	if !imaging.AllowedExtension(header.Filename) {
		file.Close()
		return nil, nil, http.StatusBadRequest, msgBadExtension
	}
	return file, header, http.StatusOK, ""
}

// fieldSentWithoutFile reports a file input submitted with no file chosen;
// multipart parsing files such parts under the form values.
func (h *Handler) fieldSentWithoutFile(c *gin.Context, field string) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[field]
	return ok
}

func (h *Handler) saveThumbnail(img image.Image) (string, error) {
	data, err := imaging.EncodeJPEG(img, imaging.JPEGQuality)
	if err != nil {
		return "", err
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "")[:16] + ".jpg"
	if err := os.WriteFile(filepath.Join(h.uploadDir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func (h *Handler) renderMessage(c *gin.Context, status int, msg string) {
	c.HTML(status, uploadTemplate, gin.H{"Messages": []string{msg}})
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	log.Error().Err(err).Int("status", status).Msg("Prediction failed")
	c.JSON(status, gin.H{"error": msg})
}

// errorStatus maps a pipeline error to an HTTP status and a message safe to
// show to users.
func errorStatus(err error) (int, string) {
	var predErr *prediction.PredictionError
	var urlErr *url.Error
	switch {
	case errors.Is(err, prediction.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "Image is too large for the prediction service"
	case errors.Is(err, prediction.ErrEmptyPayload):
		return http.StatusBadRequest, "Image is empty"
	case errors.As(err, &predErr):
		return http.StatusBadGateway, "Prediction service rejected the request"
	case errors.Is(err, breed.ErrSchemaMismatch):
		return http.StatusBadGateway, "Prediction service returned an unexpected response"
	case errors.Is(err, breed.ErrInsufficientResults):
		return http.StatusBadGateway, "Prediction service returned too few breeds"
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return http.StatusGatewayTimeout, "Prediction service timed out"
	case errors.As(err, &urlErr):
		return http.StatusBadGateway, "Prediction service unavailable"
	default:
		return http.StatusInternalServerError, "Prediction failed"
	}
}
