package port

import (
	"context"
	"io"
)

type TableStorage interface {
	DownloadFeatureTable(ctx context.Context, objectKey string, destPath string) error
	UploadTable(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
