package gcs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spidervision-report/lib/testutil"

	"github.com/stretchr/testify/require"
)

type object struct {
	contentType string
	data        string
}

type memoryStore struct {
	objects map[string]object
	failing bool
}

func (m *memoryStore) Write(_ context.Context, bucket, name, contentType string, r io.Reader) error {
	if m.failing {
		return errors.New("permission denied")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+name] = object{contentType: contentType, data: string(data)}
	return nil
}

func (m *memoryStore) Copy(_ context.Context, bucket, src, dst string) error {
	o, ok := m.objects[bucket+"/"+src]
	if !ok {
		return errors.New("object not found")
	}
	m.objects[bucket+"/"+dst] = o
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func writeReport(t *testing.T, name, contents string) string {
	return testutil.WriteFile(t, name, contents)
}

func TestUploadAndSetLatest(t *testing.T) {
	store := &memoryStore{objects: map[string]object{}}
	p := &Publisher{bucket: "reports-bucket", store: store}
	ctx := context.Background()

	src := writeReport(t, "dealer-report-20250314.html", "<html></html>")
	dst := DatedPath(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), src)
	require.Equal(t, "reports/2025/03/14/dealer-report-20250314.html", dst)

	url, latest, err := p.UploadAndSetLatest(ctx, src, dst, DefaultLatestHTMLPath, "")
	require.NoError(t, err)
	require.Equal(t, "gs://reports-bucket/reports/2025/03/14/dealer-report-20250314.html", url)
	require.Equal(t, "gs://reports-bucket/reports/daily/dealer-report-latest.html", latest)

	require.Equal(t, object{contentType: "text/html", data: "<html></html>"}, store.objects["reports-bucket/"+dst])
	require.Equal(t, store.objects["reports-bucket/"+dst], store.objects["reports-bucket/"+DefaultLatestHTMLPath])

	csvUrl, err := p.Upload(ctx, writeReport(t, "r.csv", "a,b"), "r.csv", "other-bucket")
	require.NoError(t, err)
	require.Equal(t, "gs://other-bucket/r.csv", csvUrl)
	require.Equal(t, "text/csv", store.objects["other-bucket/r.csv"].contentType)
}

func TestUploadErrors(t *testing.T) {
	store := &memoryStore{objects: map[string]object{}}
	ctx := context.Background()

	_, err := (&Publisher{store: store}).Upload(ctx, "missing.html", "x.html", "")
	require.Error(t, err)

	p := &Publisher{bucket: "b", store: store}
	_, err = p.Upload(ctx, filepath.Join(t.TempDir(), "missing.html"), "x.html", "")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = p.UpdateLatest(ctx, "never-uploaded.html", DefaultLatestHTMLPath, "")
	require.Error(t, err)

	store.failing = true
	_, err = p.Upload(ctx, writeReport(t, "r.html", "x"), "r.html", "")
	require.ErrorContains(t, err, "permission denied")
}

func TestDryRun(t *testing.T) {
	p := NewPublisher(context.Background(), Options{Bucket: "reports-bucket", DryRun: true})
	require.True(t, p.DryRun())

	url, latest, err := p.UploadAndSetLatest(context.Background(), "does-not-matter.html", "reports/x.html", DefaultLatestHTMLPath, "")
	require.NoError(t, err)
	require.Equal(t, "gs://reports-bucket/reports/x.html", url)
	require.Equal(t, "gs://reports-bucket/"+DefaultLatestHTMLPath, latest)
	require.NoError(t, p.Close())
}

func TestURLsAndContentTypes(t *testing.T) {
	require.Equal(t, "https://storage.googleapis.com/b/reports/x.html", PublicURL("gs://b/reports/x.html"))
	require.Equal(t, "https://example.com/x", PublicURL("https://example.com/x"))
	require.Equal(t, "gs://b/x.html", GsURL("b", "/x.html"))

	require.Equal(t, "text/html", ContentType("REPORT.HTML"))
	require.Equal(t, "text/csv", ContentType("a/b.csv"))
	require.Equal(t, "application/json", ContentType("a.json"))
	require.Equal(t, "application/octet-stream", ContentType("a.unknownext"))
}
