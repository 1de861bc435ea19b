package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/erazemk/zaloga/internal/apperr"
)

// pathID parses a numeric URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// quantity accepts both JSON numbers and numeric strings, as sent by HTML
// forms. Set is false for null and empty strings, which edit forms send for
// fields left blank.
type quantity struct {
	Value int
	Set   bool
}

func (q *quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(bytes.Trim(b, `"`))
	if len(b) == 0 || string(b) == "null" {
		*q = quantity{}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = quantity{Value: n, Set: true}
	return nil
}

// parseQuantity parses a form field. A blank field is not set.
func parseQuantity(s string) (quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return quantity{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return quantity{}, apperr.Validation("quantity must be a number")
	}
	return quantity{Value: n, Set: true}, nil
}

// supplied returns s unless it is nil or blank. Edit forms send every field,
// so a blank one keeps the stored value.
func supplied(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readImage returns the bytes of the optional "image" form file.
func readImage(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Validation("reading image upload: %v", err)
	}
	return data, nil
}

// formValue returns the named multipart field and whether it was sent with
// a non-blank value.
func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[name]
	if !ok || len(vs) == 0 || strings.TrimSpace(vs[0]) == "" {
		return "", false
	}
	return vs[0], true
}
