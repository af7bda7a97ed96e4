package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/spektr-org/iaqdash/engine"
)

// requestError is a client error that is not a load failure.
type requestError struct {
	status int
	msg    string
	hint   string
	err    error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg, err: err}
}

// upload is the CSV sent with a request, either as a multipart "file" field
// or as the raw body.
type upload struct {
	Name    string
	Data    []byte
	Filters string // multipart "filters" field, JSON encoded engine.Filters
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r, limit)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err, limit)
	}
	return &upload{Name: r.URL.Query().Get("name"), Data: data}, nil
}

func readMultipart(r *http.Request, limit int64) (*upload, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, bodyError(err, limit)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: "multipart upload has no file field", hint: `Send the CSV in a form field named "file".`, err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err, limit)
	}
	return &upload{Name: header.Filename, Data: data, Filters: r.FormValue("filters")}, nil
}

func bodyError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    "upload too large",
			hint:   fmt.Sprintf("Uploads are limited to %d MB.", limit>>20),
			err:    err,
		}
	}
	return badRequest("cannot read request body", err)
}

// filters returns the multipart filters when sent, else the query filters.
func (u *upload) filters(r *http.Request) (engine.Filters, error) {
	if strings.TrimSpace(u.Filters) == "" {
		return queryFilters(r)
	}
	var f engine.Filters
	if err := json.Unmarshal([]byte(u.Filters), &f); err != nil {
		return engine.Filters{}, badRequest("invalid filters JSON", err)
	}
	return f, nil
}

// queryFilters parses status, start and end query parameters. A status
// parameter that is present but empty selects nothing.
func queryFilters(r *http.Request) (engine.Filters, error) {
	q := r.URL.Query()
	var f engine.Filters

	if raw, ok := q["status"]; ok {
		f.Statuses = []string{}
		for _, v := range raw {
			for _, st := range strings.Split(v, ",") {
				if st = strings.TrimSpace(st); st != "" {
					f.Statuses = append(f.Statuses, st)
				}
			}
		}
	}

	var err error
	if f.Start, err = engine.ParseBound(q.Get("start"), false); err != nil {
		return engine.Filters{}, badRequest("invalid start", err)
	}
	if f.End, err = engine.ParseBound(q.Get("end"), true); err != nil {
		return engine.Filters{}, badRequest("invalid end", err)
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return engine.Filters{}, badRequest("end is before start", nil)
	}
	return f, nil
}

// intQuery parses a positive integer query parameter no larger than limit.
func intQuery(r *http.Request, key string, def, limit int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > limit {
		return 0, badRequest(fmt.Sprintf("%s must be an integer between 1 and %d", key, limit), err)
	}
	return n, nil
}
