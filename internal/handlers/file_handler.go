package handlers

import (
	"io"
	"net/http"
	"strconv"

	"meritboard/internal/middleware"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// maxUploadSize caps proof uploads at 20 MiB.
const maxUploadSize = 20 << 20

// FileHandler handles proof material uploads and downloads
type FileHandler struct {
	fileService *service.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload stores a multipart file upload
// @Summary Upload file
// @Description Upload a proof file; checksum scanning runs asynchronously
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Param visibility formData string false "private, school or public"
// @Success 201 {object} models.File
// @Failure 400 {object} map[string]string "Invalid upload"
// @Router /files [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	meta, err := h.fileService.Upload(p.UserID, header.Filename, file, r.FormValue("visibility"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, meta)
}

// Get retrieves file metadata
// @Summary Get file metadata
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} models.File
// @Failure 404 {object} map[string]string "Not found"
// @Router /files/{id} [get]
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.Get(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, file)
}

// List retrieves file metadata entries
// @Summary List files
// @Description List files; students see only their own uploads
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param owner_id query int false "Filter by owner (staff only)"
// @Param status query string false "Filter by status"
// @Param visibility query string false "Filter by visibility"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /files [get]
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	limit, offset := pagination(r)
	filters := repository.FileFilters{
		Status:     r.URL.Query().Get("status"),
		Visibility: r.URL.Query().Get("visibility"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := r.URL.Query().Get("owner_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filters.OwnerID = uint(id)
		}
	}

	files, total, err := h.fileService.List(p, filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: files, Total: total})
}

// Download streams a file's blob
// @Summary Download file
// @Description Download a file's content, subject to its visibility
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Not found"
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	file, rc, err := h.fileService.Open(p, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	defer rc.Close()

	if file.MimeType != nil {
		w.Header().Set("Content-Type", *file.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if file.Size != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*file.Size, 10))
	}
	io.Copy(w, rc)
}

// Delete removes a file and its blob
// @Summary Delete file
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} map[string]string
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	if err := h.fileService.Delete(p, r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}
