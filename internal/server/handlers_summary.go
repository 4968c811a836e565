package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/stockdash/internal/services/summary"
)

// allowedUploadTypes are the declared content types accepted for CSV uploads.
var allowedUploadTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/octet-stream": true,
}

// detectedTextTypes are the sniffed types consistent with a CSV file.
var detectedTextTypes = map[string]bool{
	"text/plain":               true,
	"text/csv":                 true,
	"application/octet-stream": true,
}

// handleSummary handles POST /api/summary. The CSV may arrive as the "file"
// field of a multipart form or as the raw request body.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	maxBytes := s.app.Config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	body, name, err := uploadedFile(r, maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large, max %d bytes", maxBytes))
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large, max %d bytes", maxBytes))
			return
		}
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(data), ";")[0])
	if !detectedTextTypes[detected] {
		s.logger.Warn().Str("file", name).Str("detected_type", detected).Msg("Upload content is not CSV")
		WriteError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("detected file content type '%s' is not consistent with a CSV file", detected))
		return
	}

	result, err := s.app.Summary.Summarize(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, summary.ErrEmptyUpload) {
			WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Error parsing CSV file: %v", err))
		return
	}

	s.logger.Info().Str("file", name).Int("rows", result.Rows).Msg("CSV summary served")
	WriteJSON(w, http.StatusOK, result)
}

// uploadedFile returns the CSV stream and a display name for it, checking the
// client-declared content type and file extension.
func uploadedFile(r *http.Request, maxBytes int64) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, "", err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("failed to retrieve file from request, ensure 'file' field is used")
		}
		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
			file.Close()
			return nil, "", fmt.Errorf("file %q is not a .csv file", header.Filename)
		}
		declared, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
		if declared != "" && !allowedUploadTypes[strings.ToLower(declared)] {
			file.Close()
			return nil, "", fmt.Errorf("client-declared file type '%s' is not allowed for CSV upload", declared)
		}
		return file, header.Filename, nil
	}

	if mediaType != "" && !allowedUploadTypes[mediaType] {
		return nil, "", fmt.Errorf("content type '%s' is not allowed for CSV upload", mediaType)
	}
	return r.Body, "body", nil
}
