package product

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/go-faster/errors"
)

// MaxImageSize is the largest accepted image file.
const MaxImageSize = 5 << 20

var (
	// ErrImageType is returned for files that are neither PNG nor JPEG.
	ErrImageType = errors.New("only PNG and JPG files are allowed")
	// ErrImageSize is returned for files larger than MaxImageSize.
	ErrImageSize = errors.New("file size must be less than 5MB")
	// ErrImageLimit is returned once a product already holds MaxImageCount images.
	ErrImageLimit = errors.New("you can upload up to 3 images")
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/jpg"}

// ImageFile describes a local file offered as a product image.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
}

// ImageError reports why a single file was not attached.
type ImageError struct {
	File string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.File, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// PlaceholderImageURL returns a random placeholder image URL. The catalog
// service accepts image URLs only, so attached files are represented by one.
func PlaceholderImageURL() string {
	return fmt.Sprintf("https://picsum.photos/id/%d/300", rand.IntN(1000)+1)
}

// AttachImages appends one URL per acceptable file to current and returns the
// new list along with an error per rejected file. Files of the wrong type or
// size are skipped; processing stops at the first file over the image limit.
func AttachImages(current []string, files []ImageFile, urlFor func(ImageFile) string) ([]string, []error) {
	out := slices.Clone(current)
	var errs []error

	for _, f := range files {
		if !slices.Contains(allowedImageTypes, f.ContentType) {
			errs = append(errs, &ImageError{File: f.Name, Err: ErrImageType})
			continue
		}
		if f.Size > MaxImageSize {
			errs = append(errs, &ImageError{File: f.Name, Err: ErrImageSize})
			continue
		}
		if len(out) >= MaxImageCount {
			errs = append(errs, &ImageError{File: f.Name, Err: ErrImageLimit})
			break
		}
		out = append(out, urlFor(f))
	}
	return out, errs
}
