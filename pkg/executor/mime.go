package executor

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// guessContentType prefers the extension and falls back to sniffing the
// leading bytes. The reader is rewound before returning.
func guessContentType(filename string, r io.ReadSeeker) (string, error) {
	if ext := filepath.Ext(filename); ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType, nil
		}
	}

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return mtype.String(), nil
}
