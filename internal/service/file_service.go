package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"

	"meritboard/internal/apperrors"
	"meritboard/internal/authz"
	"meritboard/internal/jobs"
	"meritboard/internal/metrics"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/storage"
)

// FileService stores uploaded proof files and runs the checksum pass over
// them, via the redis queue when available and inline otherwise.
type FileService struct {
	fileRepo *repository.FileRepository
	store    storage.BlobStore
	queue    *jobs.Queue
}

// NewFileService creates a new file service
func NewFileService(fileRepo *repository.FileRepository, store storage.BlobStore, queue *jobs.Queue) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		store:    store,
		queue:    queue,
	}
}

// Upload saves a blob and its metadata and schedules the checksum pass
func (s *FileService) Upload(ownerID uint, filename string, r io.Reader, visibility string) (*models.File, error) {
	if filename == "" {
		return nil, apperrors.Validation("filename is required")
	}
	switch visibility {
	case "":
		visibility = models.VisibilityPrivate
	case models.VisibilityPrivate, models.VisibilitySchool, models.VisibilityPublic:
	default:
		return nil, apperrors.Validation("unknown visibility %q", visibility)
	}

	id := models.NewFileID()
	key := fmt.Sprintf("proofs/%s/%s", id, filepath.Base(filename))

	size, err := s.store.Save(key, r)
	if err != nil {
		return nil, apperrors.Internal("failed to store file", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	file := &models.File{
		ID:         id,
		Path:       key,
		OwnerID:    &ownerID,
		Size:       &size,
		Visibility: visibility,
		Status:     models.FileUploaded,
	}
	if mimeType != "" {
		file.MimeType = &mimeType
	}
	if err := s.fileRepo.Create(file); err != nil {
		_ = s.store.Delete(key)
		return nil, apperrors.Internal("failed to record file", err)
	}

	if err := s.queue.Enqueue(context.Background(), id); err != nil {
		if err != jobs.ErrQueueDisabled {
			slog.Warn("Failed to enqueue checksum job, processing inline", "file_id", id, "error", err)
		}
		if err := s.Process(id); err != nil {
			slog.Error("Inline file processing failed", "file_id", id, "error", err)
		}
	}

	return s.Get(id)
}

// Process runs the checksum pass over an uploaded file. The worker calls
// this for queued jobs; uploads without a queue call it inline.
func (s *FileService) Process(fileID string) error {
	file, err := s.fileRepo.GetByID(fileID)
	if err == repository.ErrFileNotFound {
		metrics.ProofParseJobsTotal.WithLabelValues("missing").Inc()
		return apperrors.NotFound("file %s not found", fileID)
	}
	if err != nil {
		return apperrors.Internal("failed to load file", err)
	}

	checksum, size, err := s.store.Checksum(file.Path)
	if err != nil {
		metrics.ProofParseJobsTotal.WithLabelValues("failed").Inc()
		if markErr := s.fileRepo.MarkFailed(fileID, err.Error()); markErr != nil {
			return apperrors.Internal("failed to record checksum failure", markErr)
		}
		return nil
	}

	if err := s.fileRepo.MarkScanned(fileID, checksum, size); err != nil {
		return apperrors.Internal("failed to record checksum", err)
	}
	metrics.ProofParseJobsTotal.WithLabelValues("ok").Inc()
	return nil
}

// Get retrieves file metadata
func (s *FileService) Get(id string) (*models.File, error) {
	file, err := s.fileRepo.GetByID(id)
	if err == repository.ErrFileNotFound {
		return nil, apperrors.NotFound("file %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load file", err)
	}
	return file, nil
}

// List retrieves file metadata matching the filters. Students only see
// their own files.
func (s *FileService) List(p authz.Principal, filters repository.FileFilters) ([]models.File, int, error) {
	if !p.IsStaff() {
		filters.OwnerID = p.UserID
	}
	return s.fileRepo.List(filters)
}

// Open opens a file's blob for download, enforcing visibility
func (s *FileService) Open(p authz.Principal, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if !s.canRead(p, file) {
		return nil, nil, apperrors.Permission("you may not download this file")
	}

	rc, err := s.store.Open(file.Path)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to open file", err)
	}
	return file, rc, nil
}

// Delete removes a file's metadata and blob. Owners and staff may delete.
func (s *FileService) Delete(p authz.Principal, id string) error {
	file, err := s.Get(id)
	if err != nil {
		return err
	}
	if !p.IsStaff() && (file.OwnerID == nil || *file.OwnerID != p.UserID) {
		return apperrors.Permission("you may only delete your own files")
	}

	if err := s.fileRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete file", err)
	}
	if err := s.store.Delete(file.Path); err != nil {
		slog.Error("Failed to delete blob", "path", file.Path, "error", err)
	}
	return nil
}

func (s *FileService) canRead(p authz.Principal, file *models.File) bool {
	if p.IsStaff() {
		return true
	}
	switch file.Visibility {
	case models.VisibilityPublic, models.VisibilitySchool:
		return true
	default:
		return file.OwnerID != nil && *file.OwnerID == p.UserID
	}
}
