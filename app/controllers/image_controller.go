package controllers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/entitlements"
	"github.com/pulsarpub/pulsar/internal/pkg/upload"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

var imageRepos *repository.Repositories

// InitializeImageController wires the repositories used by the gallery
// handlers.
func InitializeImageController(repos *repository.Repositories) {
	imageRepos = repos
}

// HandleImageList shows the gallery with its storage readout.
func HandleImageList(c *fiber.Ctx) error {
	user := currentUser(c, imageRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	images, err := imageRepos.Image.ListByUser(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load images")
	}

	totalQuota := 0.0
	for _, img := range images {
		totalQuota += img.DataSizeMB()
	}

	return render(c, "image_list", fiber.Map{
		"Images":       images,
		"TotalQuotaMB": fmt.Sprintf("%.2f", totalQuota),
		"LimitMB":      entitlements.StorageLimitBytes(entitlements.PlanFor(user)) / (1000 * 1000),
	})
}

// HandleImageUpload stores one or more uploaded files. With ?raw=true and a
// single file the response is the raw image URL path instead of the gallery,
// which is what editor plugins use.
func HandleImageUpload(c *fiber.Ctx) error {
	user := currentUser(c, imageRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		return uploadError(c, false, "no file submitted")
	}
	files := form.File["file"]
	rawMode := c.Query("raw") == "true" && len(files) == 1

	usedBytes, err := imageRepos.Image.TotalBytesByUser(user.ID)
	if err != nil {
		return uploadError(c, rawMode, "could not check storage quota")
	}

	var lastImage *models.Image
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return uploadError(c, rawMode, "could not read file")
		}
		data, err := io.ReadAll(io.LimitReader(f, models.MaxImageBytes+1))
		f.Close()
		if err != nil {
			return uploadError(c, rawMode, "could not read file")
		}

		if len(data) > models.MaxImageBytes {
			return uploadError(c, rawMode, "File too big. Limit is 1MB.")
		}

		if _, err := upload.ValidateImageBySniff(fh.Filename, data); err != nil {
			return uploadError(c, rawMode, err.Error())
		}

		if !entitlements.CanStore(user, usedBytes, int64(len(data))) {
			return uploadError(c, rawMode, "storage quota exceeded, delete images or upgrade to premium")
		}
		usedBytes += int64(len(data))

		name, ext := splitFilename(fh.Filename)
		img := &models.Image{
			UserID:    user.ID,
			Name:      name,
			Data:      data,
			Extension: models.NormalizeExtension(ext),
		}

		if decoded, err := imaging.Decode(bytes.NewReader(data)); err == nil {
			bounds := decoded.Bounds()
			img.Width = bounds.Dx()
			img.Height = bounds.Dy()
		}

		if err := imageRepos.Image.Create(img); err != nil {
			log.Printf("image create failed for user %d: %v", user.ID, err)
			return uploadError(c, rawMode, "could not store image")
		}
		lastImage = img
	}

	if rawMode && lastImage != nil {
		return c.Redirect("/images/raw/"+lastImage.Filename(), fiber.StatusSeeOther)
	}
	return c.Redirect("/images", fiber.StatusSeeOther)
}

// uploadError reports a failed upload: plain 400 in single-file raw mode,
// flash redirect in the gallery flow.
func uploadError(c *fiber.Ctx, rawMode bool, message string) error {
	if rawMode {
		return c.Status(fiber.StatusBadRequest).SendString(message)
	}
	return flashError(c, message, "/images")
}

func splitFilename(filename string) (name, ext string) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return filename, ""
	}
	// dots inside the name would break the slug.extension URL format
	return strings.ReplaceAll(filename[:idx], ".", "-"), filename[idx+1:]
}

func HandleImageDetail(c *fiber.Ctx) error {
	img, status := loadOwnedImage(c)
	if status != fiber.StatusOK {
		return c.SendStatus(status)
	}
	return render(c, "image_detail", fiber.Map{"Image": img})
}

// HandleImageRaw serves the binary payload publicly. The extension in the URL
// must match the stored one; anything else is a 404.
func HandleImageRaw(c *fiber.Ctx) error {
	img, err := imageRepos.Image.GetBySlug(c.Params("slug"))
	if err != nil {
		return fiber.ErrNotFound
	}
	if c.Params("extension") != img.Extension {
		return fiber.ErrNotFound
	}

	c.Set(fiber.HeaderContentType, "image/"+img.Extension)
	return c.Send(img.Data)
}

// HandleImageUpdate renames an image.
func HandleImageUpdate(c *fiber.Ctx) error {
	img, status := loadOwnedImage(c)
	if status != fiber.StatusOK {
		return c.SendStatus(status)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "image_update", fiber.Map{"Image": img})
	}

	img.Name = strings.TrimSpace(c.FormValue("name"))
	if err := imageRepos.Image.Update(img); err != nil {
		return flashError(c, "could not rename image", "/images")
	}
	return c.Redirect("/images/"+img.Slug, fiber.StatusSeeOther)
}

func HandleImageDelete(c *fiber.Ctx) error {
	img, status := loadOwnedImage(c)
	if status != fiber.StatusOK {
		return c.SendStatus(status)
	}

	if err := imageRepos.Image.Delete(img.ID); err != nil {
		return flashError(c, "could not delete image", "/images")
	}
	return flashSuccess(c, "image deleted", "/images")
}

// loadOwnedImage fetches the image in :slug and enforces ownership.
func loadOwnedImage(c *fiber.Ctx) (*models.Image, int) {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return nil, fiber.StatusForbidden
	}

	img, err := imageRepos.Image.GetBySlug(c.Params("slug"))
	if err != nil {
		return nil, fiber.StatusNotFound
	}

	if img.UserID != uc.UserID {
		return nil, fiber.StatusForbidden
	}

	return img, fiber.StatusOK
}
