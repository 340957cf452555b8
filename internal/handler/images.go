package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/catalog-admin/internal/domain/product"
)

// maxUploadSize bounds a multipart upload of MaxImageCount images.
const maxUploadSize = product.MaxImageCount*product.MaxImageSize + 1<<20

// uploadImages accepts image files for a product form. The form field
// "images" carries the URLs already attached, "files" the new files. The
// response lists the resulting URLs and a message per rejected file.
func (h *Handler) uploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeBadRequest(w, errors.Wrap(err, "parse upload"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var files []product.ImageFile
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := describe(fh)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		files = append(files, f)
	}

	images, rejected := product.AttachImages(r.MultipartForm.Value["images"], files, h.imageURL)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			e.Field("images", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, u := range images {
						e.Str(u)
					}
				})
			})
			e.Field("rejected", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, err := range rejected {
						encodeRejected(e, err)
					}
				})
			})
		})
	})
}

// describe sniffs the content type of an uploaded file.
func describe(fh *multipart.FileHeader) (product.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return product.ImageFile{}, errors.Wrapf(err, "open %s", fh.Filename)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return product.ImageFile{}, errors.Wrapf(err, "read %s", fh.Filename)
	}
	return product.ImageFile{
		Name:        fh.Filename,
		ContentType: http.DetectContentType(head[:n]),
		Size:        fh.Size,
	}, nil
}

func encodeRejected(e *jx.Encoder, err error) {
	var imgErr *product.ImageError
	name := ""
	if errors.As(err, &imgErr) {
		name = imgErr.File
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("file", func(e *jx.Encoder) { e.Str(name) })
		e.Field("message", func(e *jx.Encoder) { e.Str(rejectMessage(err)) })
	})
}

func rejectMessage(err error) string {
	switch {
	case errors.Is(err, product.ErrImageType):
		return "Only PNG and JPG files are allowed."
	case errors.Is(err, product.ErrImageSize):
		return "File size must be less than 5MB."
	case errors.Is(err, product.ErrImageLimit):
		return "You can upload up to 3 images."
	default:
		return err.Error()
	}
}
