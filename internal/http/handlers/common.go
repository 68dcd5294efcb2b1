package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 10 << 20

// defaultProjection hides bookkeeping fields from single-record responses.
var defaultProjection = query.Build(nil).Projection

// fail hands err to the ErrorHandler middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func respondDoc(c *gin.Context, status int, doc any) {
	c.JSON(status, gin.H{"status": "success", "data": gin.H{"data": doc}})
}

func respondData(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Msg: fmt.Sprintf("Invalid %s: %s", name, raw), Err: err}
	}
	return id, nil
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON[T any](c *gin.Context, dst *T) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ValidationError{Msg: fmt.Sprintf("Invalid input data. %v", err), Err: err}
	}
	return nil
}

// bindPatch decodes a JSON object body, or the fields of a multipart form.
func bindPatch(c *gin.Context) (map[string]any, error) {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, domain.ValidationError{Msg: "Invalid multipart form", Err: err}
		}
		return formPatch(form), nil
	}
	patch := map[string]any{}
	if err := bindJSON(c, &patch); err != nil {
		return nil, err
	}
	return patch, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formPatch turns form fields into patch values. Each value is read as JSON
// when it parses, so "5" becomes a number and "[1,2]" a list.
func formPatch(form *multipart.Form) map[string]any {
	patch := make(map[string]any, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(values[0]), &v); err != nil {
			v = values[0]
		}
		patch[key] = v
	}
	return patch
}

// readUpload returns the bytes of the first file under field, or nil.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	files, err := readUploads(c, field, 1)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return files[0], nil
}

func readUploads(c *gin.Context, field string, max int) ([][]byte, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ValidationError{Msg: "Invalid multipart form", Err: err}
	}
	headers := form.File[field]
	if len(headers) > max {
		return nil, domain.ValidationError{Field: field, Msg: fmt.Sprintf("Too many files in %s, at most %d allowed", field, max)}
	}
	out := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return nil, domain.ValidationError{Field: field, Msg: "File is too large"}
		}
		f, err := fh.Open()
		if err != nil {
			return nil, domain.InternalError{Msg: "open upload", Err: err}
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		_ = f.Close()
		if err != nil {
			return nil, domain.InternalError{Msg: "read upload", Err: err}
		}
		out = append(out, data)
	}
	return out, nil
}

// requestBaseURL is scheme://host of the current request.
func requestBaseURL(c *gin.Context) string {
	return requestScheme(c) + "://" + c.Request.Host
}

func requestScheme(c *gin.Context) string {
	if isSecure(c) {
		return "https"
	}
	return "http"
}

func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
