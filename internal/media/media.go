package media

import (
	"context"
	"io"
)

// Asset is the durable location of an uploaded image on the media host.
type Asset struct {
	URL      string
	PublicID string
}

// Uploader pushes an image to the external media host and returns its
// URL-addressable location.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader) (Asset, error)
}
