package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appModel "schoolerp_backend/internals/features/admissions/applications/model"
	dto "schoolerp_backend/internals/features/admissions/documents/dto"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	storage "schoolerp_backend/internals/helpers/oss"
)

var kindRe = regexp.MustCompile(`^[a-z0-9_]{1,40}$`)

type File struct {
	Kind     string
	Filename string
	Data     []byte
}

type Service struct {
	DB    *gorm.DB
	Store storage.Store
	Image storage.WebPOptions
}

func New(db *gorm.DB, store storage.Store, img storage.WebPOptions) *Service {
	return &Service{DB: db, Store: store, Image: img}
}

// NormalizeKind lowercases the multipart field name and drops array suffixes.
func NormalizeKind(field string) string {
	k := strings.ToLower(strings.TrimSpace(field))
	k = strings.TrimSuffix(k, "[]")
	return strings.ReplaceAll(k, "-", "_")
}

func decode(raw datatypes.JSON) ([]dto.Document, error) {
	var docs []dto.Document
	if len(raw) == 0 {
		return docs, nil
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Merge replaces entries of the same kind and appends new kinds.
func Merge(docs []dto.Document, uploaded ...dto.Document) []dto.Document {
	for _, u := range uploaded {
		replaced := false
		for i := range docs {
			if docs[i].Kind == u.Kind {
				docs[i] = u
				replaced = true
				break
			}
		}
		if !replaced {
			docs = append(docs, u)
		}
	}
	return docs
}

func (s *Service) ownedApplication(ctx context.Context, db *gorm.DB, id uuid.UUID, referenceID string, lock bool) (*appModel.ApplicationModel, error) {
	var app appModel.ApplicationModel
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("application_id = ?", id).Take(&app).Error; err != nil {
		return nil, helper.NotFoundOr(err, "APPLICATION_NOT_FOUND", "application not found")
	}
	if !strings.EqualFold(app.ApplicationReferenceID, strings.TrimSpace(referenceID)) {
		return nil, helper.NotFound("APPLICATION_NOT_FOUND", "application not found")
	}
	return &app, nil
}

// Upload stores every file first, then records the URLs in one transaction.
func (s *Service) Upload(ctx context.Context, applicationID uuid.UUID, referenceID string, files []File) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, helper.FieldError("files", "attach at least one document")
	}
	if _, err := s.ownedApplication(ctx, s.DB, applicationID, referenceID, false); err != nil {
		return nil, err
	}

	now := dbtime.Now()
	uploaded := make([]dto.Document, 0, len(files))
	for _, f := range files {
		kind := NormalizeKind(f.Kind)
		if !kindRe.MatchString(kind) {
			return nil, helper.FieldError(f.Kind, "document field name must be letters, digits or underscores")
		}
		prep, err := storage.Prepare(f.Data, f.Filename, s.Image)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrEmptyFile),
				errors.Is(err, storage.ErrUnsupportedType):
				return nil, helper.FieldError(f.Kind, err.Error())
			}
			return nil, helper.FieldError(f.Kind, "file could not be read as an image")
		}
		key := storage.ObjectKey("admissions/"+applicationID.String(), kind, prep.Ext)
		url, err := s.Store.Put(ctx, key, prep.Data, prep.ContentType)
		if err != nil {
			return nil, helper.External("STORAGE_ERROR", "document storage is unavailable", err)
		}
		uploaded = append(uploaded, dto.Document{
			Kind:        kind,
			URL:         url,
			ContentType: prep.ContentType,
			Size:        len(prep.Data),
			UploadedAt:  now,
		})
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	app, err := s.ownedApplication(ctx, tx, applicationID, referenceID, true)
	if err != nil {
		return nil, err
	}
	docs, err := decode(app.ApplicationDocuments)
	if err != nil {
		return nil, err
	}
	docs = Merge(docs, uploaded...)
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(&appModel.ApplicationModel{}).
		Where("application_id = ?", applicationID).
		Update("application_documents", datatypes.JSON(raw)).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	zap.L().Info("[DOCUMENTS] uploaded",
		zap.String("application_id", applicationID.String()),
		zap.Int("files", len(uploaded)))

	return &dto.UploadResponse{Uploaded: uploaded, Documents: docs}, nil
}

func (s *Service) List(ctx context.Context, applicationID uuid.UUID, referenceID string) ([]dto.Document, error) {
	app, err := s.ownedApplication(ctx, s.DB, applicationID, referenceID, false)
	if err != nil {
		return nil, err
	}
	return decode(app.ApplicationDocuments)
}
