package services

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

// uploadFailure keeps validation errors from the media store and hides everything else
func uploadFailure(err error) error {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return models.InternalError(err)
}

// swapImages stores uploads, points each slot at its new URL and persists.
// Old files are removed only once persist succeeds; on failure the new ones are.
func swapImages(ctx context.Context, media *MediaStore, folder string, uploads []Upload, slots map[string]*string, persist func() error) error {
	for _, u := range uploads {
		if _, ok := slots[u.Field]; !ok {
			return models.ValidationError("unexpected file field " + u.Field)
		}
	}
	urls, err := media.PutAll(ctx, folder, uploads)
	if err != nil {
		return uploadFailure(err)
	}

	previous := make(map[string]string, len(urls))
	for field, url := range urls {
		previous[field] = *slots[field]
		*slots[field] = url
	}
	if err := persist(); err != nil {
		for field, url := range previous {
			*slots[field] = url
		}
		media.DeleteAll(ctx, mapValues(urls))
		return err
	}

	var stale []string
	for _, url := range previous {
		if url != "" {
			stale = append(stale, url)
		}
	}
	media.DeleteAll(ctx, stale)
	return nil
}
