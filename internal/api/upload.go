package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
)

// UploadTripImages sends local photo files to the trip as one multipart
// request (step 3 of trip creation). Each file goes in an "images" part.
// Photos may be given as plain paths or file:// URIs.
func (c *Client) UploadTripImages(ctx context.Context, tripID string, photos []string) error {
	if len(photos) == 0 {
		return nil
	}
	for _, p := range photos {
		if _, err := os.Stat(strings.TrimPrefix(p, "file://")); err != nil {
			return fmt.Errorf("api.Client.UploadTripImages: %w: photo %s: %w", domain.ErrValidation, p, err)
		}
	}
	uid, err := c.UserID(ctx)
	if err != nil {
		return fmt.Errorf("api.Client.UploadTripImages: %w", err)
	}

	// Stream the body so large photos are never held in memory at once.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writePhotos(mw, photos))
	}()

	path := "/upload-images/" + url.PathEscape(uid) + "/trip_images/" + url.PathEscape(tripID)
	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("api.Client.UploadTripImages: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.send(req, nil); err != nil {
		pr.Close()
		return fmt.Errorf("api.Client.UploadTripImages: %w", err)
	}
	return nil
}

func writePhotos(mw *multipart.Writer, photos []string) error {
	for _, p := range photos {
		if err := writePhoto(mw, strings.TrimPrefix(p, "file://")); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePhoto(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy photo %s: %w", filepath.Base(path), err)
	}
	return nil
}
