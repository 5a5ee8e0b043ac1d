package controller

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	svc "schoolerp_backend/internals/features/admissions/documents/service"
	helper "schoolerp_backend/internals/helpers"
	storage "schoolerp_backend/internals/helpers/oss"
)

type DocumentController struct {
	Svc *svc.Service
}

func NewDocumentController(s *svc.Service) *DocumentController {
	return &DocumentController{Svc: s}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.FieldError("id", "must be a valid uuid")
	}
	return id, nil
}

// POST /api/public/admissions/applications/:id/documents (multipart)
// Each file field name is the document kind, e.g. photo, birth_certificate.
func (h *DocumentController) Upload(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return helper.JsonFromError(c, helper.FieldError("files", "expected multipart/form-data"))
	}
	ref := ""
	if v := form.Value["reference_id"]; len(v) > 0 {
		ref = strings.TrimSpace(v[0])
	}
	if ref == "" {
		return helper.JsonFromError(c, helper.FieldError("reference_id", "this field is required"))
	}

	var files []svc.File
	for field, fhs := range form.File {
		for _, fh := range fhs {
			if fh == nil || fh.Filename == "" {
				continue
			}
			if fh.Size > storage.MaxUploadSize {
				return helper.JsonFromError(c, helper.FieldError(field, storage.ErrFileTooLarge.Error()))
			}
			src, err := fh.Open()
			if err != nil {
				return helper.JsonFromError(c, err)
			}
			data, err := io.ReadAll(io.LimitReader(src, storage.MaxUploadSize+1))
			src.Close()
			if err != nil {
				return helper.JsonFromError(c, err)
			}
			files = append(files, svc.File{Kind: field, Filename: fh.Filename, Data: data})
		}
	}

	out, err := h.Svc.Upload(c.UserContext(), id, ref, files)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Documents uploaded", out)
}

// GET /api/public/admissions/applications/:id/documents?reference_id=
func (h *DocumentController) List(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	ref := strings.TrimSpace(c.Query("reference_id"))
	if ref == "" {
		return helper.JsonFromError(c, helper.FieldError("reference_id", "this field is required"))
	}
	docs, err := h.Svc.List(c.UserContext(), id, ref)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", docs)
}
