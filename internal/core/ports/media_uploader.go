package ports

import (
	"context"
	"io"
)

// FileUpload carries one multipart file through the service layer.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	ContentType string
}

// MediaUploader stores an uploaded file in external media storage and returns
// its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, file FileUpload) (string, error)
}
