package media

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const thumbnailFolder = "course-thumbnails"

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

var _ Uploader = (*CloudinaryUploader)(nil)

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) UploadImage(ctx context.Context, file io.Reader) (Asset, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         thumbnailFolder,
		Transformation: "w_400,c_scale",
	})
	if err != nil {
		return Asset{}, err
	}
	return Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
