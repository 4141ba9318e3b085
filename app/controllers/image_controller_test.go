package controllers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
)

// pngMagic is enough of a PNG header for content sniffing to accept the file.
var pngMagic = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 256)...)

type fakeImageRepo struct {
	images []*models.Image
}

func (r *fakeImageRepo) Create(image *models.Image) error {
	if image.Slug == "" {
		image.Slug = models.NewImageSlug()
	}
	r.images = append(r.images, image)
	return nil
}

func (r *fakeImageRepo) GetBySlug(slug string) (*models.Image, error) {
	for _, img := range r.images {
		if img.Slug == slug {
			return img, nil
		}
	}
	return nil, fiber.ErrNotFound
}

func (r *fakeImageRepo) ListByUser(userID uint) ([]models.Image, error) { return nil, nil }
func (r *fakeImageRepo) Update(image *models.Image) error               { return nil }
func (r *fakeImageRepo) Delete(id uint) error                           { return nil }
func (r *fakeImageRepo) Count() (int64, error)                          { return int64(len(r.images)), nil }
func (r *fakeImageRepo) TotalBytesByUser(userID uint) (int64, error)    { return 0, nil }

type uploadFile struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, files []uploadFile) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile("file", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newUploadApp(user *models.User) (*fiber.App, *fakeImageRepo) {
	images := &fakeImageRepo{}
	users := &fakeUserRepo{users: map[uint]*models.User{user.ID: user}}
	InitializeImageController(&repository.Repositories{User: users, Image: images})

	app := fiber.New()
	app.Use(loggedInAs(user))
	app.Post("/images/upload", HandleImageUpload)
	return app, images
}

func TestUploadRawModeReturnsRawLocation(t *testing.T) {
	user := &models.User{ID: 1, Username: "hsts"}
	app, images := newUploadApp(user)

	body, contentType := multipartBody(t, []uploadFile{{name: "shot.png", data: pngMagic}})
	req := httptest.NewRequest(fiber.MethodPost, "/images/upload?raw=true", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Len(t, images.images, 1)
	assert.Equal(t, "/images/raw/"+images.images[0].Filename(), resp.Header.Get("Location"))
}

func TestUploadRawModeErrorIsPlain400(t *testing.T) {
	user := &models.User{ID: 1, Username: "hsts"}
	app, images := newUploadApp(user)

	body, contentType := multipartBody(t, []uploadFile{{name: "notes.txt", data: []byte("plain text")}})
	req := httptest.NewRequest(fiber.MethodPost, "/images/upload?raw=true", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, images.images)
}

func TestUploadMultiFileErrorRedirectsDespiteRawFlag(t *testing.T) {
	user := &models.User{ID: 1, Username: "hsts"}
	app, images := newUploadApp(user)

	body, contentType := multipartBody(t, []uploadFile{
		{name: "notes.txt", data: []byte("plain text")},
		{name: "shot.png", data: pngMagic},
	})
	req := httptest.NewRequest(fiber.MethodPost, "/images/upload?raw=true", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	// raw mode needs exactly one file; with several the gallery flow answers
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/images", resp.Header.Get("Location"))
	assert.Empty(t, images.images)
}
