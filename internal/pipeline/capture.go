package pipeline

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/JaimeStill/verdant/pkg/imaging"
)

// Capture keeps the image uploads, decodes the first one into the session
// and lists every file with its analysis status. When no upload is an
// image, or the first image does not decode within maxPixels, the session
// is unchanged.
func Capture(ctx context.Context, s *Session, files []Upload, maxPixels int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Status != StatusIdle {
		return fmt.Errorf("%w: capture from %s", ErrInvalidTransition, s.Status)
	}

	images := make([]Upload, 0, len(files))
	for _, f := range files {
		if isImage(f) {
			images = append(images, f)
		}
	}
	if len(images) == 0 {
		return ErrNoImages
	}

	first := images[0]
	img, _, err := imaging.Decode(first.Data, maxPixels)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return fmt.Errorf("%w: %s", ErrInvalidImage, first.Name)
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidImage, first.Name, err)
	}

	listed := make([]File, len(images))
	for i, f := range images {
		status := FileSkipped
		if i == 0 {
			status = FileAnalyzed
		}
		listed[i] = File{Name: f.Name, SizeMB: sizeMB(len(f.Data)), Status: status}
	}

	s.Files = listed
	s.image = &capturedImage{
		img:         img,
		data:        first.Data,
		filename:    first.Name,
		contentType: mediaType(first),
	}
	s.Status = StatusUploading
	s.Stage = StageCapture
	s.Progress = progressCaptured
	return nil
}

// mediaType returns the declared MIME type, or the sniffed one when the
// declaration is missing or generic.
func mediaType(f Upload) string {
	declared, _, _ := mime.ParseMediaType(f.ContentType)
	if declared == "" || declared == "application/octet-stream" {
		sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(f.Data))
		return sniffed
	}
	return declared
}

func isImage(f Upload) bool {
	return strings.HasPrefix(mediaType(f), "image/")
}
