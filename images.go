package webstory

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/eringen/webstory/views"
)

const (
	maxImageWidth = 1080 // story stages are portrait; 1080 covers 3x density
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an uploaded image, scales it down to maxImageWidth
// and re-encodes it as JPEG.
func processImage(src io.Reader, originalName string, now time.Time) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, eris.Wrap(err, "decode image")
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, eris.Wrap(err, "encode jpeg")
	}

	base := Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   now.UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// uniqueFilename appends -2, -3, ... until neither the uploads directory nor
// the images table has the name.
func (a *App) uniqueFilename(ctx context.Context, dir, filename string) (string, error) {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for n := 2; ; n++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		exists, err := a.Store.ImageExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if statErr != nil && !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

func imageItem(img Image) views.ImageItem {
	return views.ImageItem{
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		URL:          img.URL(),
		Width:        img.Width,
		Height:       img.Height,
		Size:         img.Size,
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return a.renderImageList(c, http.StatusBadRequest, "No image file provided.")
	}
	if file.Size > maxUploadSize {
		return a.renderImageList(c, http.StatusBadRequest, "File too large (max 10MB).")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename, time.Now())
	if err != nil {
		return a.renderImageList(c, http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	ctx := c.Request().Context()
	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "create uploads dir")
	}
	if img.Filename, err = a.uniqueFilename(ctx, dir, img.Filename); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return eris.Wrap(err, "write image")
	}
	if err := a.Store.SaveImage(ctx, img); err != nil {
		_ = os.Remove(filepath.Join(dir, img.Filename))
		return err
	}
	a.Logger.WithFields(logrus.Fields{"filename": img.Filename, "bytes": img.Size}).Info("image uploaded")
	return redirectWithMsg(c, "/admin/images/", "Image uploaded.")
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == "/" {
		return a.renderImageList(c, http.StatusBadRequest, "Filename required.")
	}
	// The file may already be gone; the row is what the library lists.
	_ = os.Remove(filepath.Join(a.Config.StaticDir, uploadsSubdir, filename))
	if err := a.Store.DeleteImage(c.Request().Context(), filename); err != nil {
		return err
	}
	return redirectWithMsg(c, "/admin/images/", "Image deleted.")
}

func (a *App) handleImageList(c echo.Context) error {
	return a.renderImageList(c, http.StatusOK, "")
}

func (a *App) renderImageList(c echo.Context, code int, errMsg string) error {
	data := views.ImagesData{Error: errMsg}
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		a.Logger.WithError(err).Error("listing images")
		data.Error = "Images could not be loaded."
	}
	for _, img := range images {
		data.Images = append(data.Images, imageItem(img))
	}
	return RenderStatus(c, code, views.AdminImages(a.adminLayout(c, "Media"), data))
}
