package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"spidervision-report/lib/telemetry"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("spidervision-report/lib/publish/gcs")

const DefaultLatestHTMLPath = "reports/daily/dealer-report-latest.html"

// objectStore is the part of a bucket client the publisher needs.
type objectStore interface {
	Write(ctx context.Context, bucket, object, contentType string, r io.Reader) error
	Copy(ctx context.Context, bucket, src, dst string) error
	Close() error
}

type gcsStore struct {
	client *storage.Client
}

func (s gcsStore) Write(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	_, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s gcsStore) Copy(ctx context.Context, bucket, src, dst string) error {
	b := s.client.Bucket(bucket)
	copier := b.Object(dst).CopierFrom(b.Object(src))
	// the latest copy is served from a fixed url and must not be cached
	copier.CacheControl = "no-cache, max-age=0"
	_, err := copier.Run(ctx)
	return err
}

func (s gcsStore) Close() error {
	return s.client.Close()
}

type Options struct {
	Bucket  string
	Project string
	// DryRun skips creating a client, every operation is only logged.
	DryRun bool
}

// Publisher uploads report files to a bucket. Without credentials it runs
// in dry-run mode and only logs what it would do.
type Publisher struct {
	bucket  string
	project string
	store   objectStore
}

func NewPublisher(ctx context.Context, opts Options) *Publisher {
	p := &Publisher{bucket: opts.Bucket, project: opts.Project}
	if opts.DryRun {
		slog.InfoContext(ctx, "gcs publisher in dry-run mode")
		return p
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		slog.WarnContext(ctx, "gcs client unavailable, uploads will be dry-runs", "err", err)
		return p
	}
	p.store = gcsStore{client: client}
	return p
}

func (p *Publisher) DryRun() bool {
	return p.store == nil
}

func (p *Publisher) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

func (p *Publisher) resolveBucket(bucket string) (string, error) {
	if bucket == "" {
		bucket = p.bucket
	}
	if bucket == "" {
		return "", errors.New("no gcs bucket configured")
	}
	return bucket, nil
}

// Upload copies the local file `src` to `dst` in the bucket and returns its
// gs:// url. An empty `bucket` uses the publisher's default.
func (p *Publisher) Upload(ctx context.Context, src, dst, bucket string) (string, error) {
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	bucket, err := p.resolveBucket(bucket)
	if err != nil {
		return "", err
	}
	url := GsURL(bucket, dst)
	span.SetAttributes(attribute.String("url", url))

	if p.DryRun() {
		slog.InfoContext(ctx, "DRY-RUN: would upload", "src", src, "url", url)
		return url, nil
	}

	f, err := os.Open(src)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open source")
		return "", err
	}
	defer f.Close()

	err = p.store.Write(ctx, bucket, dst, ContentType(src), f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload")
		return "", fmt.Errorf("upload %s to %s: %w", src, url, err)
	}
	slog.InfoContext(ctx, "uploaded report", "src", src, "url", url, "project", p.project)
	return url, nil
}

// UpdateLatest copies the object `srcObject` to `latestPath` within the
// bucket and returns the gs:// url of the copy.
func (p *Publisher) UpdateLatest(ctx context.Context, srcObject, latestPath, bucket string) (string, error) {
	ctx, span := tracer.Start(ctx, "UpdateLatest")
	defer span.End()

	bucket, err := p.resolveBucket(bucket)
	if err != nil {
		return "", err
	}
	url := GsURL(bucket, latestPath)
	if p.DryRun() {
		slog.InfoContext(ctx, "DRY-RUN: would copy", "src", srcObject, "url", url)
		return url, nil
	}

	err = p.store.Copy(ctx, bucket, srcObject, latestPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy")
		return "", fmt.Errorf("update latest %s: %w", url, err)
	}
	slog.InfoContext(ctx, "updated latest report", "url", url)
	return url, nil
}

// UploadAndSetLatest uploads `src` to `dst` then copies it to `latestPath`.
func (p *Publisher) UploadAndSetLatest(ctx context.Context, src, dst, latestPath, bucket string) (string, string, error) {
	url, err := p.Upload(ctx, src, dst, bucket)
	if err != nil {
		return "", "", err
	}
	latest, err := p.UpdateLatest(ctx, dst, latestPath, bucket)
	if err != nil {
		return url, "", err
	}
	return url, latest, nil
}

func GsURL(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, strings.TrimLeft(object, "/"))
}

// PublicURL turns a gs:// url into its storage.googleapis.com equivalent,
// other urls are returned unchanged.
func PublicURL(url string) string {
	rest, ok := strings.CutPrefix(url, "gs://")
	if !ok {
		return url
	}
	return "https://storage.googleapis.com/" + rest
}

// DatedPath is the object path of a file published on `date`:
// reports/YYYY/MM/DD/<name>.
func DatedPath(date time.Time, filename string) string {
	return path.Join("reports", date.Format("2006/01/02"), filepath.Base(filename))
}

func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html":
		return "text/html"
	case ".csv":
		return "text/csv"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
