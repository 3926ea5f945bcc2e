// backend/src/handlers/import_handler.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/heuristic"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// upload is a validated request body ready for the import service.
type upload struct {
	body     io.ReadSeeker
	name     string
	source   string
	declared string
}

// HandleCreateImport accepts a trade report either as the "file" part of a
// multipart form or as the raw request body. The parser is chosen by the
// "source" form field or query parameter and defaults to auto-detection.
func (h *ImportHandler) HandleCreateImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := config.Cfg.MaxUploadSizeBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		up     *upload
		status int
		err    error
	)
	if mediaType == "multipart/form-data" {
		up, status, err = readMultipartUpload(r, limit)
	} else {
		up, status, err = readRawUpload(r, limit)
	}
	if err != nil {
		log.Warn("Rejected import upload", "error", err)
		utils.SendJSONError(w, err.Error(), status)
		return
	}

	if err := validation.ValidateClientContentType(up.declared); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", up.declared, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(up.body)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", up.name, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing import request", "filename", up.name, "source", up.source,
		"clientType", up.declared, "detectedType", detectedContentType)

	result, err := h.importService.ProcessImport(r.Context(), up.body, userID, up.source)
	if err != nil {
		status, message := importErrorResponse(err)
		if status == http.StatusInternalServerError {
			log.Error("Internal error processing import", "filename", up.name, "error", err)
		} else {
			log.Warn("Import rejected", "filename", up.name, "status", status, "error", err)
		}
		utils.SendJSONError(w, message, status)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

func readMultipartUpload(r *http.Request, limit int64) (*upload, int, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to parse form or request too large (max %s)", humanize.Bytes(uint64(limit)))
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("failed to retrieve file from request, ensure the 'file' field is used")
	}
	if fileHeader.Size > limit {
		file.Close()
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file too large, max %s", humanize.Bytes(uint64(limit)))
	}
	// The multipart parts are already buffered, so the data outlives the part.
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return &upload{
		body:     bytes.NewReader(data),
		name:     fileHeader.Filename,
		source:   r.FormValue("source"),
		declared: fileHeader.Header.Get("Content-Type"),
	}, 0, nil
}

func readRawUpload(r *http.Request, limit int64) (*upload, int, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large, max %s", humanize.Bytes(uint64(limit)))
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, errors.New("request body is empty")
	}

	return &upload{
		body:     bytes.NewReader(data),
		name:     r.URL.Query().Get("filename"),
		source:   r.URL.Query().Get("source"),
		declared: r.Header.Get("Content-Type"),
	}, 0, nil
}

// importErrorResponse maps service and engine errors to a status code and a
// client-facing message.
func importErrorResponse(err error) (int, string) {
	var mappingErr *heuristic.MappingError
	switch {
	case errors.Is(err, services.ErrUnsupportedSource):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &mappingErr):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Could not recognise the report layout: %v", mappingErr)
	case errors.Is(err, heuristic.ErrEmptyResult):
		return http.StatusUnprocessableEntity, "The report contains no valid trades."
	case errors.Is(err, heuristic.ErrFormat):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Unsupported or unreadable report: %v", err)
	case errors.Is(err, services.ErrParsingFailed):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Error parsing trade history: %v", err)
	default:
		return http.StatusInternalServerError, "An internal error occurred while processing the file. Please try again later."
	}
}

func (h *ImportHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.SendJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.importService.ListImports(userID, limit)
	if err != nil {
		log.Error("Error listing imports", "error", err)
		utils.SendJSONError(w, "Error retrieving import history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.ImportLogEntry{}
	}
	utils.SendJSON(w, entries, http.StatusOK)
}

// HandleGetImport returns a cached import session. Clients revalidate with
// If-None-Match.
func (h *ImportHandler) HandleGetImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	sessionID := r.PathValue("id")

	result, err := h.importService.GetImport(sessionID, userID)
	if err != nil {
		if errors.Is(err, services.ErrImportNotFound) {
			utils.SendJSONError(w, "Import not found or expired", http.StatusNotFound)
			return
		}
		log.Error("Error retrieving import", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "Error retrieving import", http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		log.Error("Failed to generate ETag for import", "sessionID", sessionID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Info("ETag match for import", "sessionID", sessionID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.SendJSON(w, result, http.StatusOK)
}

func (h *ImportHandler) HandleExportImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	sessionID := r.PathValue("id")
	format := r.URL.Query().Get("format")

	file, err := h.importService.ExportImport(sessionID, userID, format)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImportNotFound):
			utils.SendJSONError(w, "Import not found or expired", http.StatusNotFound)
		case errors.Is(err, services.ErrUnsupportedExportFormat):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error("Error exporting import", "sessionID", sessionID, "error", err)
			utils.SendJSONError(w, "Error exporting import", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Error("Error writing export response", "sessionID", sessionID, "error", err)
	}
}
