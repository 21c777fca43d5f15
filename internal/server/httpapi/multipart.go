package httpapi

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// maxUploadBytes bounds multipart request bodies (form fields plus files).
const maxUploadBytes = 32 << 20

// saveUploadedFile spools the named multipart file field to dir and returns
// the local path. A missing field, or a non-multipart body, is not an error;
// it yields an empty path so optional uploads stay optional.
func saveUploadedFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	tmp, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

// removeIfPresent deletes a spooled upload after the request completes.
func removeIfPresent(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
