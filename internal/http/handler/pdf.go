package handler

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdfstore/internal/keys"
	"pdfstore/internal/model"
	"pdfstore/internal/service"
)

const pingTimeout = 5 * time.Second

// uploadResponse is returned by both upload endpoints.
type uploadResponse struct {
	Success  bool            `json:"success"`
	URL      string          `json:"url"`
	ID       string          `json:"id"`
	Metadata *model.Metadata `json:"metadata"`
}

// base64UploadRequest is the JSON body of POST /upload-pdf-base64.
type base64UploadRequest struct {
	PDFData      string `json:"pdfData"`
	BuyerName    string `json:"buyerName"`
	OriginalName string `json:"originalName"`
}

// documentView is a metadata record with its public URL.
type documentView struct {
	model.Metadata
	URL string `json:"url"`
}

type listResponse struct {
	PDFs  []documentView `json:"pdfs"`
	Total int            `json:"total"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Root godoc
// @Summary Service banner
// @Tags system
// @Produce json
// @Success 200 {object} map[string]any
// @Router / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "PDF storage service is running",
			"timestamp": time.Now().UTC(),
		})
	}
}

// TestS3 godoc
// @Summary Check bucket connectivity
// @Tags system
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 500 {object} errorPayload
// @Router /test-s3 [get]
func TestS3(bucket string, svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			return writeErrorDetails(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "bucket connection failed", err.Error())
		}
		return c.JSON(fiber.Map{
			"status": "connected",
			"bucket": bucket,
		})
	}
}

// HealthCheck godoc
// @Summary Readiness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags system
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadPDF godoc
// @Summary Upload a PDF (multipart)
// @Tags pdf
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "PDF file"
// @Param originalName formData string false "Original file name"
// @Param buyerName formData string false "Buyer name"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /upload-pdf [post]
func UploadPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("pdf")
		if err != nil {
			return writeServiceError(c, service.ErrPDFRequired)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		originalName := c.FormValue("originalName")
		if strings.TrimSpace(originalName) == "" {
			originalName = fh.Filename
		}

		meta, err := svc.Upload(c.UserContext(), service.UploadInput{
			Body:         f,
			Size:         fh.Size,
			OriginalName: originalName,
			BuyerName:    c.FormValue("buyerName"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newUploadResponse(c, meta))
	}
}

// UploadPDFBase64 godoc
// @Summary Upload a PDF (base64 JSON)
// @Tags pdf
// @Accept json
// @Produce json
// @Param body body base64UploadRequest true "Base64 payload, optionally prefixed with data:application/pdf;base64,"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /upload-pdf-base64 [post]
func UploadPDFBase64(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req base64UploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}

		data, err := service.DecodePDFData(req.PDFData)
		if err != nil {
			return writeServiceError(c, err)
		}

		meta, err := svc.Upload(c.UserContext(), service.UploadInput{
			Body:         bytes.NewReader(data),
			Size:         int64(len(data)),
			OriginalName: req.OriginalName,
			BuyerName:    req.BuyerName,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newUploadResponse(c, meta))
	}
}

// GetPDF godoc
// @Summary Download a PDF
// @Tags pdf
// @Produce application/pdf
// @Param id path string true "Document ID (UUID)"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /pdf/{id} [get]
func GetPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !keys.Valid(id) {
			return writeServiceError(c, service.ErrNotFound)
		}

		dl, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, model.PDFContentType)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+sanitizeFilename(dl.Filename)+`"`)
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
		// fasthttp closes the stream once the body is written.
		if dl.Size > 0 {
			return c.SendStream(dl.Body, int(dl.Size))
		}
		return c.SendStream(dl.Body)
	}
}

// GetPDFInfo godoc
// @Summary Get PDF metadata
// @Tags pdf
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} model.Metadata
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /pdf/{id}/info [get]
func GetPDFInfo(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !keys.Valid(id) {
			return writeServiceError(c, service.ErrNotFound)
		}

		meta, err := svc.Info(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(meta)
	}
}

// ListPDFs godoc
// @Summary List stored PDFs, newest first
// @Tags admin
// @Produce json
// @Success 200 {object} listResponse
// @Failure 500 {object} errorPayload
// @Router /admin/pdfs [get]
func ListPDFs(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}

		base := baseURL(c)
		views := make([]documentView, 0, len(res.Items))
		for _, m := range res.Items {
			views = append(views, documentView{Metadata: m, URL: pdfURL(base, m.ID)})
		}
		return c.JSON(listResponse{PDFs: views, Total: res.Total})
	}
}

// DeletePDF godoc
// @Summary Delete a PDF and its metadata
// @Tags admin
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} deleteResponse
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /admin/pdf/{id} [delete]
func DeletePDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !keys.Valid(id) {
			return writeServiceError(c, service.ErrNotFound)
		}

		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(deleteResponse{
			Success: true,
			Message: "PDF deleted successfully",
			ID:      id,
		})
	}
}

func newUploadResponse(c *fiber.Ctx, meta *model.Metadata) uploadResponse {
	return uploadResponse{
		Success:  true,
		URL:      pdfURL(baseURL(c), meta.ID),
		ID:       meta.ID,
		Metadata: meta,
	}
}

// baseURL is scheme://host of the inbound request, preferring X-Forwarded-Proto.
func baseURL(c *fiber.Ctx) string {
	scheme := c.Protocol()
	if proto := c.Get(fiber.HeaderXForwardedProto); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Hostname()
}

func pdfURL(base, id string) string {
	return base + "/pdf/" + id
}

// sanitizeFilename drops characters that would break a quoted header parameter.
func sanitizeFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if clean == "" {
		return model.DefaultOriginalName
	}
	return clean
}
