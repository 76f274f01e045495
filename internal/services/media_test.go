package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

func TestMediaStore_PutAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewMediaStore(fs, "/media/", 1024)
	ctx := context.Background()

	url, err := m.Put(ctx, "partners/p-1", imageUpload("logo", "Logo.PNG", "png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(url, "/media/partners/p-1/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q", url)
	}
	data, err := afero.ReadFile(fs, strings.TrimPrefix(url, "/media/"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored %q, %v", data, err)
	}

	if err := m.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, url); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if err := m.Delete(ctx, "https://elsewhere.example.com/x.png"); err != nil {
		t.Errorf("foreign url: %v", err)
	}
}

func TestMediaStore_Check(t *testing.T) {
	m := NewMediaStore(afero.NewMemMapFs(), "/media", 4)

	wantCode(t, m.Check(imageUpload("a", "a.gif", "gif")), models.CodeValidation)
	wantCode(t, m.Check(imageUpload("a", "a.png", "too large")), models.CodeValidation)
	if err := m.Check(imageUpload("a", "a.webp", "ok")); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestMediaStore_PutRejectsStreamOverLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewMediaStore(fs, "/media", 4)
	lying := imageUpload("logo", "logo.png", "far too large")
	lying.Size = 3

	_, err := m.Put(context.Background(), "partners/p-1", lying)
	wantCode(t, err, models.CodeValidation)

	files, err := afero.Glob(fs, "partners/p-1/*")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("truncated upload stored as %v", files)
	}

	if _, err := m.Put(context.Background(), "partners/p-1", imageUpload("logo", "logo.png", "four")); err != nil {
		t.Errorf("upload at the limit: %v", err)
	}
}

func TestMediaStore_PutAllIsAllOrNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewMediaStore(fs, "/media", 1024)
	broken := Upload{
		Field:    "b",
		Filename: "b.png",
		Size:     1,
		Open:     func() (io.ReadCloser, error) { return nil, errors.New("gone") },
	}

	_, err := m.PutAll(context.Background(), "registrations/r-1", []Upload{
		imageUpload("a", "a.png", "a"),
		broken,
	})
	if err == nil {
		t.Fatal("PutAll succeeded with an unreadable upload")
	}
	files, err := afero.Glob(fs, "registrations/r-1/*")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("partial upload left %v", files)
	}
}
