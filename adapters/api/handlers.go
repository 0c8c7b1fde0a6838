package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"datacheck/adapters/file"
	"datacheck/adapters/postgres"
	"datacheck/app"
	"datacheck/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": s.db != nil,
	})
}

// handleValidate runs the full detector suite over an uploaded dataset.
// A second "test" upload switches the run into drift comparison mode.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, errors.IngestFailed("upload", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	format, err := parseResponseFormat(r.FormValue("format"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	trainHeader, err := requiredFile(r, "train")
	if err != nil {
		s.respondError(w, err)
		return
	}

	cfg := s.runConfig(parseLabels(r.FormValue("labels")))
	svc := app.NewValidationService(cfg, s.logger)

	trainSource, cleanupTrain, err := s.openUpload(trainHeader, cfg.LabelColumns)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer cleanupTrain()

	var result *app.RunResult
	if testHeader, ok := optionalFile(r, "test"); ok {
		testSource, cleanupTest, err := s.openUpload(testHeader, cfg.LabelColumns)
		if err != nil {
			s.respondError(w, err)
			return
		}
		defer cleanupTest()
		result, err = svc.RunPair(r.Context(), trainSource, testSource, testHeader.Filename)
		if err != nil {
			s.respondError(w, err)
			return
		}
	} else {
		result, err = svc.Run(r.Context(), trainSource, trainHeader.Filename)
		if err != nil {
			s.respondError(w, err)
			return
		}
	}

	if format == app.FormatHTML {
		page, err := svc.Render(result, app.FormatHTML)
		if err != nil {
			s.respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	TrainQuery string   `json:"train_query"`
	TestQuery  string   `json:"test_query,omitempty"`
	Labels     []string `json:"labels,omitempty"`
}

// handleValidateQuery validates rows streamed from the configured database
// instead of an upload. Queries run inside a read-only transaction.
func (s *Server) handleValidateQuery(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": "no database configured, set DATABASE_URL to enable query validation",
			"code":  errors.CodeConfigInvalid,
		})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, badRequest("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.TrainQuery) == "" {
		s.respondError(w, badRequest("train_query is required"))
		return
	}

	cfg := s.runConfig(req.Labels)
	svc := app.NewValidationService(cfg, s.logger)
	opts := postgres.Options{LabelColumns: cfg.LabelColumns}

	trainSource, err := postgres.NewQuerySource(r.Context(), s.db, req.TrainQuery, opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer trainSource.Close()

	var result *app.RunResult
	if strings.TrimSpace(req.TestQuery) != "" {
		testSource, err := postgres.NewQuerySource(r.Context(), s.db, req.TestQuery, opts)
		if err != nil {
			s.respondError(w, err)
			return
		}
		defer testSource.Close()
		result, err = svc.RunPair(r.Context(), trainSource, testSource, "query")
		if err != nil {
			s.respondError(w, err)
			return
		}
	} else {
		result, err = svc.Run(r.Context(), trainSource, "query")
		if err != nil {
			s.respondError(w, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, result)
}

// parseResponseFormat restricts API output to json or html; the text and
// markdown renderers stay CLI-only.
func parseResponseFormat(v string) (app.OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "json":
		return app.FormatJSON, nil
	case "html":
		return app.FormatHTML, nil
	default:
		return "", badRequest("format must be json or html, got %q", v)
	}
}

func requiredFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	header, ok := optionalFile(r, field)
	if !ok {
		return nil, errors.IngestFailed(field, fmt.Errorf("missing %q file field", field))
	}
	return header, nil
}

func optionalFile(r *http.Request, field string) (*multipart.FileHeader, bool) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, false
	}
	return r.MultipartForm.File[field][0], true
}

// openUpload buffers the upload to a temp file so the reader can seek and
// sample it, then opens it as a row source. The cleanup closes the source
// and removes the temp file.
func (s *Server) openUpload(header *multipart.FileHeader, labels []string) (*file.DataReader, func(), error) {
	src, err := header.Open()
	if err != nil {
		return nil, nil, errors.IngestFailed(header.Filename, err)
	}
	defer src.Close()

	// keep the original extension so format detection still works
	tmp, err := os.CreateTemp("", "datacheck-upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to buffer upload")
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, errors.Wrap(err, "failed to buffer upload")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, nil, errors.Wrap(err, "failed to buffer upload")
	}

	path := tmp.Name()
	reader, err := file.Open(path, file.Options{LabelColumns: labels, Logger: s.logger})
	if err != nil {
		os.Remove(path)
		return nil, nil, err
	}
	cleanup := func() {
		reader.Close()
		os.Remove(path)
	}
	return reader, cleanup, nil
}
