package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"portfolio-site/internal/config"
	"strings"
	"time"

	"github.com/samborkent/uuidv7"
)

// ErrUpload wraps every failure reported by the image host
var ErrUpload = errors.New("image upload failed")

// File is an image handed to an Uploader
type File struct {
	Name    string
	Content io.Reader
}

// Uploader stores an image in folder and returns its publicly resolvable secure URL
type Uploader interface {
	Upload(ctx context.Context, file File, folder string) (string, error)
}

// CloudinaryUploader performs unsigned uploads against the Cloudinary upload API
type CloudinaryUploader struct {
	Client       *http.Client
	ApiUrl       *url.URL
	CloudName    string
	UploadPreset string
}

// ensure CloudinaryUploader implements Uploader
var _ Uploader = &CloudinaryUploader{}

func NewCloudinaryUploader(c *config.Configuration) *CloudinaryUploader {
	return &CloudinaryUploader{
		Client:       &http.Client{Timeout: c.Media.Timeout},
		ApiUrl:       c.Media.ApiUrl,
		CloudName:    c.Media.CloudName,
		UploadPreset: c.Media.UploadPreset,
	}
}

type uploadResponse struct {
	SecureUrl string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *CloudinaryUploader) endpoint() string {
	return u.ApiUrl.JoinPath("v1_1", u.CloudName, "image", "upload").String()
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file File, folder string) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("file", file.Name)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(part, file.Content); err != nil {
		return "", fmt.Errorf("reading %s: %w", file.Name, err)
	}
	fields := map[string]string{
		"upload_preset": u.UploadPreset,
		"folder":        folder,
		"public_id":     uuidv7.New().String(),
	}
	for k, v := range fields {
		if err = form.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err = form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	var decoded uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && decoded.Error != nil && len(decoded.Error.Message) > 0 {
			return "", fmt.Errorf("%w: %s", ErrUpload, decoded.Error.Message)
		}
		return "", fmt.Errorf("%w: status %s", ErrUpload, resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUpload, decodeErr)
	}
	if len(decoded.SecureUrl) == 0 {
		return "", fmt.Errorf("%w: response carries no secure_url", ErrUpload)
	}

	return decoded.SecureUrl, nil
}

// DatePath returns base/YYYY/MM/DD for the calendar date of t
func DatePath(base string, t time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d", base, t.Year(), int(t.Month()), t.Day())
}

// ImageResolver turns stored image references into absolute URLs
type ImageResolver struct {
	base string
}

// NewImageResolver resolves relative paths against {deliveryUrl}/{cloudName}/image/upload/
func NewImageResolver(deliveryUrl *url.URL, cloudName string) ImageResolver {
	if deliveryUrl == nil {
		return ImageResolver{}
	}
	return ImageResolver{base: deliveryUrl.JoinPath(cloudName, "image", "upload").String() + "/"}
}

// Resolve keeps empty values and absolute http(s) URLs; other paths get the delivery base prepended
func (r ImageResolver) Resolve(path string) string {
	if len(path) == 0 || strings.HasPrefix(path, "http") {
		return path
	}
	return r.base + strings.TrimPrefix(path, "/")
}
