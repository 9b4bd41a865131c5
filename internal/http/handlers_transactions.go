package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"txstats/internal/core"
	"txstats/internal/log"
	"txstats/internal/storage"
)

const (
	uploadField = "file"

	msgOnlyCSV      = "Only CSV files can be uploaded."
	msgNoFile       = "No file uploaded. Send the CSV in the 'file' form field."
	msgNotMultipart = "Request must be multipart/form-data."
	msgTooLarge     = "File uploaded exceeds 95mb limit"
	msgNoUploads    = "No uploads recorded."
)

// handleUpload streams the "file" part into the service without buffering
// the request through ParseMultipartForm.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgNotMultipart)
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		s.metrics.inc(&s.metrics.uploadsRejected)
		switch {
		case isTooLarge(err):
			writeDetail(w, http.StatusBadRequest, msgTooLarge)
		case errors.Is(err, io.EOF):
			writeDetail(w, http.StatusBadRequest, msgNoFile)
		default:
			writeDetail(w, http.StatusBadRequest, msgNotMultipart)
		}
		return
	}
	defer part.Close()

	name := part.FileName()
	if !strings.HasSuffix(name, ".csv") {
		s.metrics.inc(&s.metrics.uploadsRejected)
		writeDetail(w, http.StatusBadRequest, msgOnlyCSV)
		return
	}

	res, err := s.svc.Upload(r.Context(), name, part)
	if err != nil {
		if isTooLarge(err) {
			err = core.NewValidationError(core.KindTooLarge, msgTooLarge, err)
		}
		if core.IsValidation(err, "") {
			s.metrics.inc(&s.metrics.uploadsRejected)
		}
		s.writeError(w, r, log.OpUpload, err)
		return
	}

	s.metrics.inc(&s.metrics.uploadsAccepted)
	writeJSON(w, http.StatusOK, messageBody{Message: res.Message})
}

// nextFilePart skips parts until the upload field. io.EOF means there is none.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		part.Close()
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, storage.ErrTooLarge)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	q := r.URL.Query()
	dateFrom, dateTo := q.Get("date_from"), q.Get("date_to")

	summary, err := s.svc.Summary(r.Context(), userID, dateFrom, dateTo)
	if err != nil {
		s.metrics.inc(&s.metrics.summariesFailed)
		s.writeError(w, r, log.OpSummary, err)
		return
	}

	s.metrics.inc(&s.metrics.summariesServed)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Summary served",
		log.NewFields().WithSummaryQuery(userID, dateFrom, dateTo).ToSlice()...)
	writeJSON(w, http.StatusOK, dataBody{Data: summary})
}

func (s *Server) handleLatestUpload(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.LatestUpload(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, msgNoUploads)
		return
	}
	if err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: rec})
}
