package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
)

// maxUploadBytes caps capture uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// SessionLookup resolves a session visible to the given principal.
// Satisfied by session.Service.
type SessionLookup interface {
	GetByID(ctx context.Context, p rbac.Principal, id string) (*session.Session, error)
}

type Service interface {
	Upload(ctx context.Context, p rbac.Principal, sessionID string, header *multipart.FileHeader) (*Capture, error)
	Get(ctx context.Context, p rbac.Principal, id string) (*Capture, error)
	ListBySession(ctx context.Context, p rbac.Principal, sessionID string) ([]*Capture, error)
	Delete(ctx context.Context, p rbac.Principal, id string) error
	Download(ctx context.Context, p rbac.Principal, id string) (io.ReadCloser, *Capture, error)
	DownloadThumbnail(ctx context.Context, p rbac.Principal, id string) (io.ReadCloser, *Capture, error)
}

type service struct {
	repo     Repository
	sessions SessionLookup
	storage  storage.Storage
	imgProc  *storage.ImageProcessor
}

func NewService(repo Repository, sessions SessionLookup, store storage.Storage) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
		storage:  store,
		imgProc:  storage.NewImageProcessor(),
	}
}

func (s *service) Upload(ctx context.Context, p rbac.Principal, sessionID string, header *multipart.FileHeader) (*Capture, error) {
	// Resolving the session also enforces read visibility.
	sess, err := s.sessions.GetByID(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if !rbac.Can(p, rbac.OpUpdate, sess.UserID) {
		return nil, ErrPermissionDenied
	}
	if sess.Status != session.StatusActive {
		return nil, ErrSessionNotActive
	}

	if header.Size > maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// Buffer the content so it can be probed, thumbnailed and saved.
	// Uploads are size-capped above, so this stays bounded.
	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	var width, height *int
	if w, h, err := s.imgProc.Dimensions(bytes.NewReader(fileBytes)); err == nil {
		width, height = &w, &h
	}

	captureID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))

	// Sharding path: captures/ab/UUID.ext
	shard := captureID[:2]
	storagePath := fmt.Sprintf("captures/%s/%s%s", shard, captureID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("failed to save capture to storage: %w", err)
	}

	var thumbnailPath *string
	if thumbReader, err := s.imgProc.GenerateThumbnail(bytes.NewReader(fileBytes), 200, 200); err == nil {
		tPath := fmt.Sprintf("captures/%s/%s_thumb.jpg", shard, captureID)
		if err := s.storage.Save(ctx, tPath, thumbReader); err == nil {
			thumbnailPath = &tPath
		}
	}

	c := &Capture{
		ID:            captureID,
		SessionID:     sess.ID,
		UploaderID:    p.UserID,
		Filename:      header.Filename,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          header.Size,
		Width:         width,
		Height:        height,
		CapturedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		// Cleanup storage if db fails
		_ = s.storage.Delete(ctx, storagePath)
		if thumbnailPath != nil {
			_ = s.storage.Delete(ctx, *thumbnailPath)
		}
		return nil, err
	}

	return c, nil
}

func (s *service) Get(ctx context.Context, p rbac.Principal, id string) (*Capture, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.Can(p, rbac.OpRead, c.UploaderID) {
		return nil, ErrPermissionDenied
	}
	return c, nil
}

func (s *service) ListBySession(ctx context.Context, p rbac.Principal, sessionID string) ([]*Capture, error) {
	if _, err := s.sessions.GetByID(ctx, p, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.Can(p, rbac.OpDelete, c.UploaderID) {
		return ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best-effort storage cleanup after the record is gone.
	_ = s.storage.Delete(ctx, c.StoragePath)
	if c.ThumbnailPath != nil {
		_ = s.storage.Delete(ctx, *c.ThumbnailPath)
	}
	return nil
}

func (s *service) Download(ctx context.Context, p rbac.Principal, id string) (io.ReadCloser, *Capture, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, c.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve capture from storage: %w", err)
	}
	return stream, c, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, p rbac.Principal, id string) (io.ReadCloser, *Capture, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	if c.ThumbnailPath == nil {
		return nil, nil, ErrNoThumbnail
	}

	stream, err := s.storage.Get(ctx, *c.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve thumbnail from storage: %w", err)
	}
	return stream, c, nil
}
