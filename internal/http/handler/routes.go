package handler

import (
	"github.com/gofiber/fiber/v2"

	"pdfstore/internal/service"
	"pdfstore/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// /test-s3 is only mounted when the store is bucket-backed.
func RegisterRoutes(app *fiber.App, svc service.DocumentService, store storage.Storage) {
	app.Get("/", Root())
	if bn, ok := store.(storage.BucketNamer); ok {
		app.Get("/test-s3", TestS3(bn.Bucket(), svc))
	}

	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())

	app.Post("/upload-pdf", UploadPDF(svc))
	app.Post("/upload-pdf-base64", UploadPDFBase64(svc))
	app.Get("/pdf/:id", GetPDF(svc))
	app.Get("/pdf/:id/info", GetPDFInfo(svc))

	admin := app.Group("/admin")
	admin.Get("/pdfs", ListPDFs(svc))
	admin.Delete("/pdf/:id", DeletePDF(svc))
}
