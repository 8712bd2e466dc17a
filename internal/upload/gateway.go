// Package upload validates product images and hands them to a media host.
package upload

import (
	"context"
	"errors"
	"strings"

	"go-catalogue-ws/pkg/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxFileSize         = 10 << 20 // 10 MiB
	MaxImagesPerProduct = 5
	defaultConcurrency  = 3
)

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrTooLarge      = errors.New("file exceeds the 10 MiB limit")
	ErrTooManyImages = errors.New("a product can have at most 5 images")
	ErrNotConfigured = errors.New("media host is not configured")
)

// File is one submitted image. Size is the declared size; when zero the
// length of Data is used. Data may be left empty for files that are
// already known to be too large.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

func (f File) size() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Data))
}

// Result is the outcome for one file of a batch.
type Result struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// MediaHost stores an image and returns its public URL.
type MediaHost interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type Gateway struct {
	host        MediaHost
	concurrency int
	log         *zap.Logger
}

// NewGateway returns a gateway uploading to host. A nil host makes every
// valid file fail with ErrNotConfigured.
func NewGateway(host MediaHost, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{host: host, concurrency: defaultConcurrency, log: log}
}

func (g *Gateway) Configured() bool {
	return g.host != nil
}

// Validate checks size and type of a single file. The declared content
// type and the sniffed content must both be images.
func Validate(f File) (detected *mimetype.MIME, err error) {
	if f.size() > MaxFileSize {
		return nil, ErrTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return nil, ErrNotImage
	}
	detected = mimetype.Detect(f.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, ErrNotImage
	}
	return detected, nil
}

// UploadBatch validates every file before any transfer starts, then
// uploads the valid ones concurrently. existing is the number of images
// the product already has; files beyond the remaining slots fail with
// ErrTooManyImages. There is exactly one Result per file, in input order.
// Failed uploads are not retried.
func (g *Gateway) UploadBatch(ctx context.Context, existing int, files []File) []Result {
	results := make([]Result, len(files))
	ext := make([]string, len(files))
	slots := MaxImagesPerProduct - existing

	var pending []int
	for i, f := range files {
		results[i].Name = f.Name
		detected, err := Validate(f)
		if err == nil && slots <= 0 {
			err = ErrTooManyImages
		}
		if err == nil && g.host == nil {
			err = ErrNotConfigured
		}
		if err != nil {
			g.fail(&results[i], err)
			continue
		}
		slots--
		ext[i] = detected.Extension()
		pending = append(pending, i)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, i := range pending {
		i := i
		eg.Go(func() error {
			f := files[i]
			url, err := g.host.Upload(ctx, uuid.NewString()+ext[i], f.ContentType, f.Data)
			if err != nil {
				g.log.Warn("image upload failed", zap.String("file", f.Name), zap.Error(err))
				g.fail(&results[i], err)
				return nil
			}
			results[i].URL = url
			metrics.RecordUpload(nil)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (g *Gateway) fail(r *Result, err error) {
	r.Err = err
	r.Error = err.Error()
	metrics.RecordUpload(err)
}

// URLs returns the URLs of the successful results in order.
func URLs(results []Result) []string {
	out := []string{}
	for _, r := range results {
		if r.Err == nil && r.URL != "" {
			out = append(out, r.URL)
		}
	}
	return out
}
