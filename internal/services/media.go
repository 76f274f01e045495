package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Upload is one file received in a multipart form
type Upload struct {
	Field    string
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// MediaStore keeps uploaded images on an afero filesystem served under baseURL
type MediaStore struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int64
}

func NewMediaStore(fs afero.Fs, baseURL string, maxBytes int64) *MediaStore {
	return &MediaStore{fs: fs, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Check rejects uploads that are not images or are too large
func (m *MediaStore) Check(u Upload) error {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !imageExtensions[ext] {
		return models.ValidationError(fmt.Sprintf("%s must be a jpg, png or webp image", u.Field))
	}
	if m.maxBytes > 0 && u.Size > m.maxBytes {
		return m.tooLarge(u)
	}
	return nil
}

func (m *MediaStore) tooLarge(u Upload) error {
	return models.ValidationError(fmt.Sprintf("%s exceeds the %d byte limit", u.Field, m.maxBytes))
}

// Put stores one upload under folder and returns its public URL
func (m *MediaStore) Put(ctx context.Context, folder string, u Upload) (string, error) {
	if err := m.Check(u); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", u.Field, err)
	}
	defer src.Close()

	name := path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(u.Filename)))
	var r io.Reader = src
	if m.maxBytes > 0 {
		r = io.LimitReader(src, m.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u.Field, err)
	}
	if m.maxBytes > 0 && int64(len(data)) > m.maxBytes {
		return "", m.tooLarge(u)
	}
	if err := afero.WriteFile(m.fs, name, data, 0o644); err != nil {
		return "", fmt.Errorf("store %s: %w", u.Field, err)
	}
	return m.baseURL + "/" + name, nil
}

// PutAll stores every upload or none: on failure the ones already stored are removed
func (m *MediaStore) PutAll(ctx context.Context, folder string, uploads []Upload) (map[string]string, error) {
	for _, u := range uploads {
		if err := m.Check(u); err != nil {
			return nil, err
		}
	}
	urls := make(map[string]string, len(uploads))
	for _, u := range uploads {
		url, err := m.Put(ctx, folder, u)
		if err != nil {
			m.DeleteAll(ctx, mapValues(urls))
			return nil, err
		}
		urls[u.Field] = url
	}
	return urls, nil
}

// Delete removes a file previously returned by Put; foreign URLs are ignored
func (m *MediaStore) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, m.baseURL+"/")
	if !ok || name == "" || strings.Contains(name, "..") {
		return nil
	}
	if err := m.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// DeleteAll removes files best-effort, logging failures
func (m *MediaStore) DeleteAll(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := m.Delete(ctx, url); err != nil {
			log.WithError(err).Warn("failed to delete media")
		}
	}
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
