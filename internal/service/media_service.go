package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pulseboard/pulseboard/internal/errs"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
)

const maxUploadBytes = 25 << 20

type MediaService interface {
	Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error)
	List(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
}

type mediaService struct {
	blobs BlobStore
	ma    repository.MediaAssetRepository
}

func NewMediaService(blobs BlobStore, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{
		blobs: blobs,
		ma:    ma,
	}
}

// Upload sniffs each file's real type from its bytes, uploads it under
// a nanoid key and records the asset. The returned URLs go into posts'
// media_urls.
func (s *mediaService) Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {},
	}

	if len(files) == 0 {
		return nil, errs.Validation("files", "no files to upload")
	}

	assets := make([]*models.MediaAsset, 0, len(files))
	for _, file := range files {
		if file.Size > maxUploadBytes {
			return nil, errs.Validation("files", fmt.Sprintf("file %q is too large", file.Filename))
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return nil, errs.Validation("files", fmt.Sprintf("file %q has an unrecognized type", file.Filename))
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return nil, errs.Validation("files", fmt.Sprintf("file type %s is not allowed", fileType.Extension))
		}

		asset, err := s.saveFile(ctx, userID, file.Filename, fileType.MIME.Value, fileBytes)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *mediaService) saveFile(ctx context.Context, userID int64, fileName, fileType string, file []byte) (*models.MediaAsset, error) {
	key, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("error generating file key: %w", err)
	}

	if err := s.blobs.Upload(ctx, key, file, fileType); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: fileName,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  s.blobs.PublicURL(key),
	}

	id, err := s.ma.Create(ctx, nil, &ma)
	if err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}
	ma.ID = id

	return &ma, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	return s.ma.ListByUserID(ctx, userID)
}
