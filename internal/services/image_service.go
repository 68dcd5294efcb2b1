package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/storage"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const (
	jpegQuality = 90

	userPhotoSize = 500
	tourWidth     = 2000
	tourHeight    = 1333

	MaxTourImages = 10
)

var errNotImage = domain.ValidationError{Field: "image", Msg: "File is not an image. Please upload only images"}

// ImageService resizes uploads to their display size and stores them.
type ImageService struct {
	Store storage.ObjectStore
	Now   func() time.Time
}

// TourImages are the stored file names of a tour upload.
type TourImages struct {
	Cover  string
	Images []string
}

func (s ImageService) stamp() int64 {
	if s.Now != nil {
		return s.Now().UnixMilli()
	}
	return time.Now().UnixMilli()
}

// UserPhoto stores a 500x500 JPEG and returns its file name.
func (s ImageService) UserPhoto(ctx context.Context, userID int64, data []byte) (string, error) {
	name := fmt.Sprintf("user-%d-%d.jpeg", userID, s.stamp())
	if err := s.process(ctx, "users/"+name, data, userPhotoSize, userPhotoSize); err != nil {
		return "", err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "images", "user_photo", name)
	return name, nil
}

// TourImages stores an optional cover and up to MaxTourImages gallery
// images, each resized to 2000x1333. Gallery images are processed in
// parallel and keep their upload order.
func (s ImageService) TourImages(ctx context.Context, tourID int64, cover []byte, gallery [][]byte) (TourImages, error) {
	if len(gallery) > MaxTourImages {
		return TourImages{}, domain.ValidationError{Field: "images", Msg: fmt.Sprintf("A tour can have at most %d images", MaxTourImages)}
	}
	ms := s.stamp()
	var out TourImages

	g, gctx := errgroup.WithContext(ctx)
	if len(cover) > 0 {
		out.Cover = fmt.Sprintf("tour-%d-%d-cover.jpeg", tourID, ms)
		g.Go(func() error {
			return s.process(gctx, "tours/"+out.Cover, cover, tourWidth, tourHeight)
		})
	}
	if len(gallery) > 0 {
		out.Images = make([]string, len(gallery))
		for i, data := range gallery {
			data := data
			name := fmt.Sprintf("tour-%d-%d-image-%d.jpeg", tourID, ms, i+1)
			out.Images[i] = name
			g.Go(func() error {
				return s.process(gctx, "tours/"+name, data, tourWidth, tourHeight)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return TourImages{}, err
	}
	utils.LogEvent(utils.RequestIDFromContext(ctx), "images", "tour_images",
		fmt.Sprintf("tour_id=%d cover=%t images=%d", tourID, out.Cover != "", len(out.Images)))
	return out, nil
}

func (s ImageService) process(ctx context.Context, key string, data []byte, w, h int) error {
	out, err := ResizeJPEG(data, w, h)
	if err != nil {
		return err
	}
	if err := s.Store.Put(ctx, key, out, "image/jpeg"); err != nil {
		return domain.InternalError{Msg: "store " + key, Err: err}
	}
	return nil
}

// ResizeJPEG decodes a JPEG, PNG or GIF, crops it to the w:h aspect around
// its centre, scales it to w x h and encodes it as JPEG.
func ResizeJPEG(data []byte, w, h int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errNotImage
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), w, h), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, domain.InternalError{Msg: "encode jpeg", Err: err}
	}
	return buf.Bytes(), nil
}

// coverRect is the largest centred sub-rectangle of b with aspect w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	bw, bh := b.Dx(), b.Dy()
	if bw*h > bh*w {
		cw := bh * w / h
		x0 := b.Min.X + (bw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := bw * h / w
	y0 := b.Min.Y + (bh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
