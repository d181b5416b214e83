package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"
	"time"

	"github.com/phambaophuc/image-resizer-bridge/internal/config"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/processor"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/source"
	"go.uber.org/zap"
)

type fakePublisher struct {
	url      string
	err      error
	uploaded []string
	deleted  []string
}

func (p *fakePublisher) Upload(ctx context.Context, data []byte, filename, contentType string) (string, string, error) {
	p.uploaded = append(p.uploaded, filename+"|"+contentType)
	if p.err != nil {
		return "", "", p.err
	}
	return "processed/" + filename, p.url, nil
}

func (p *fakePublisher) Delete(ctx context.Context, key string) error {
	p.deleted = append(p.deleted, key)
	return nil
}

func newTestOrchestrator(t *testing.T, publisher Publisher) *Orchestrator {
	t.Helper()
	cfg := config.StorageConfig{
		MaxFileSize:        50 * 1024 * 1024,
		CacheDir:           filepath.Join(t.TempDir(), "cache"),
		ExternalStorageDir: t.TempDir(),
	}
	o := NewOrchestrator(cfg, processor.NewImageProcessor(), source.NewResolver(nil, cfg.MaxFileSize, time.Second), publisher, zap.NewNop())
	o.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return o
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeJPEG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.jpg")
	if err := os.WriteFile(path, jpegBytes(t, w, h), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodedSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestResize_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		reqW, reqH   int
		wantW, wantH int
		wantSample   int
	}{
		{"width only", 4000, 3000, 800, 0, 800, 600, 5},
		{"fit inside box", 1000, 500, 400, 400, 400, 200, 2},
		{"upscale", 100, 100, 500, 500, 500, 500, 1},
		{"unconstrained", 320, 240, 0, 0, 320, 240, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, nil)
			src := writeJPEG(t, tt.srcW, tt.srcH)

			result, err := o.Resize(context.Background(), models.ResizeRequest{
				URI:     "file://" + src,
				Quality: 80,
				Width:   tt.reqW,
				Height:  tt.reqH,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Width != tt.wantW || result.Height != tt.wantH || result.SampleSize != tt.wantSample {
				t.Fatalf("expected %dx%d@1/%d, got %dx%d@1/%d",
					tt.wantW, tt.wantH, tt.wantSample, result.Width, result.Height, result.SampleSize)
			}
			if w, h := decodedSize(t, result.Path); w != tt.wantW || h != tt.wantH {
				t.Fatalf("written image is %dx%d, expected %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if result.URI != "file://"+result.Path {
				t.Fatalf("unexpected uri %s for %s", result.URI, result.Path)
			}
		})
	}
}

func TestResize_Destinations(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	src := writeJPEG(t, 64, 48)
	absDir := t.TempDir()

	tests := []struct {
		name     string
		folder   string
		fileName string
		format   string
		wantPath string
	}{
		{"cache dir default name", "", "", "", filepath.Join(o.cfg.CacheDir, "1700000000000.jpg")},
		{"named folder under external storage", "thumbs", "small.jpg", "", filepath.Join(o.cfg.ExternalStorageDir, "thumbs", "small.jpg")},
		{"absolute folder", absDir, "a.jpg", "", filepath.Join(absDir, "a.jpg")},
		{"absolute folder with file scheme", "file://" + absDir, "b.jpg", "", filepath.Join(absDir, "b.jpg")},
		{"png default name", "", "", "png", filepath.Join(o.cfg.CacheDir, "1700000000000.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := o.Resize(context.Background(), models.ResizeRequest{
				URI:        src,
				FolderName: tt.folder,
				FileName:   tt.fileName,
				Format:     tt.format,
				Quality:    70,
				Width:      32,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Path != tt.wantPath {
				t.Fatalf("expected %s, got %s", tt.wantPath, result.Path)
			}
			if _, err := os.Stat(tt.wantPath); err != nil {
				t.Fatalf("output missing: %v", err)
			}
		})
	}
}

func TestResize_ReplacesExistingFile(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	src := writeJPEG(t, 200, 100)
	dir := t.TempDir()
	target := filepath.Join(dir, "out.jpg")
	if err := os.WriteFile(target, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := o.Resize(context.Background(), models.ResizeRequest{
		URI: src, FolderName: dir, FileName: "out.jpg", Quality: 90, Width: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, h := decodedSize(t, target); w != 50 || h != 25 {
		t.Fatalf("expected 50x25, got %dx%d", w, h)
	}

	info, _ := os.Stat(target)
	if info.Size() != result.FileSize {
		t.Fatalf("reported size %d does not match file size %d", result.FileSize, info.Size())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the output file, found %d entries", len(entries))
	}
}

func TestResize_Errors(t *testing.T) {
	src := writeJPEG(t, 40, 30)
	notImage := filepath.Join(t.TempDir(), "notes.jpg")
	os.WriteFile(notImage, []byte("plain text"), 0o644)
	blocker := filepath.Join(t.TempDir(), "file")
	os.WriteFile(blocker, []byte("x"), 0o644)

	tests := []struct {
		name string
		req  models.ResizeRequest
		want error
	}{
		{"empty uri", models.ResizeRequest{Quality: 80}, models.ErrInvalidArguments},
		{"quality too high", models.ResizeRequest{URI: src, Quality: 101}, models.ErrInvalidArguments},
		{"negative quality", models.ResizeRequest{URI: src, Quality: -1}, models.ErrInvalidArguments},
		{"negative width", models.ResizeRequest{URI: src, Quality: 80, Width: -10}, models.ErrInvalidArguments},
		{"unsupported format", models.ResizeRequest{URI: src, Quality: 80, Format: "gif"}, models.ErrInvalidArguments},
		{"path in file name", models.ResizeRequest{URI: src, Quality: 80, FileName: "../escape.jpg"}, models.ErrInvalidArguments},
		{"missing source", models.ResizeRequest{URI: src + ".missing", Quality: 80}, models.ErrSourceNotFound},
		{"not an image", models.ResizeRequest{URI: notImage, Quality: 80}, models.ErrDecodeFailure},
		{"folder under a file", models.ResizeRequest{URI: src, Quality: 80, FolderName: blocker + "/sub"}, models.ErrDestinationUnwritable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, nil)
			_, err := o.Resize(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestResize_Publish(t *testing.T) {
	src := writeJPEG(t, 80, 60)

	pub := &fakePublisher{url: "https://cdn.example.com/processed/a.webp"}
	o := newTestOrchestrator(t, pub)
	result, err := o.Resize(context.Background(), models.ResizeRequest{
		URI: src, Quality: 80, Width: 40, Format: "webp", FileName: "a.webp", Publish: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PublicURL != pub.url {
		t.Fatalf("expected public url, got %q", result.PublicURL)
	}
	if len(pub.uploaded) != 1 || pub.uploaded[0] != "a.webp|image/webp" {
		t.Fatalf("unexpected uploads %v", pub.uploaded)
	}

	if len(pub.deleted) != 0 {
		t.Fatalf("expected no deletes after a successful resize, got %v", pub.deleted)
	}

	failing := newTestOrchestrator(t, &fakePublisher{err: errors.New("bucket offline")})
	if _, err := failing.Resize(context.Background(), models.ResizeRequest{URI: src, Quality: 80, Publish: true}); !errors.Is(err, models.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(failing.cfg.CacheDir, "1700000000000.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected no local file after a failed upload, got %v", err)
	}

	unconfigured := newTestOrchestrator(t, nil)
	result, err = unconfigured.Resize(context.Background(), models.ResizeRequest{URI: src, Quality: 80, Publish: true})
	if err != nil || result.PublicURL != "" {
		t.Fatalf("expected publish to be skipped without a bucket, got %+v %v", result, err)
	}
}

func TestResize_FailedWriteRemovesPublishedObject(t *testing.T) {
	src := writeJPEG(t, 80, 60)
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked.jpg")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	pub := &fakePublisher{url: "https://cdn.example.com/processed/blocked.jpg"}
	o := newTestOrchestrator(t, pub)
	_, err := o.Resize(context.Background(), models.ResizeRequest{
		URI: src, Quality: 80, Width: 40, FolderName: dir, FileName: "blocked.jpg", Publish: true,
	})
	if !errors.Is(err, models.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != "processed/blocked.jpg" {
		t.Fatalf("expected the uploaded object to be removed, got %v", pub.deleted)
	}
}

func TestReplaceFile_KeepsExistingOnFailedWrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "keep.jpg")
	if err := os.WriteFile(target, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := replaceFile(target, iotest.ErrReader(errors.New("disk full"))); err == nil {
		t.Fatalf("expected write error")
	}

	data, err := os.ReadFile(target)
	if err != nil || string(data) != "previous" {
		t.Fatalf("expected previous content to survive, got %q %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(target))
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be cleaned up, found %d entries", len(entries))
	}
}

func TestProbeSize(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	data := jpegBytes(t, 1920, 1080)
	path := filepath.Join(t.TempDir(), "hd.jpg")
	os.WriteFile(path, data, 0o644)

	result, err := o.ProbeSize(context.Background(), models.SizeRequest{Data: "file://" + path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Fatalf("expected 1920x1080, got %dx%d", result.Width, result.Height)
	}

	result, err = o.ProbeSize(context.Background(), models.SizeRequest{
		Data:          base64.StdEncoding.EncodeToString(data),
		ImageDataType: models.ImageDataTypeBase64,
	})
	if err != nil || result.Width != 1920 || result.Height != 1080 {
		t.Fatalf("base64 probe: got %+v %v", result, err)
	}

	if _, err := os.Stat(o.cfg.CacheDir); !os.IsNotExist(err) {
		t.Fatalf("probe must not create the cache dir")
	}
}

func TestProbeSize_Errors(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	if _, err := o.ProbeSize(context.Background(), models.SizeRequest{}); !errors.Is(err, models.ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
	if _, err := o.ProbeSize(context.Background(), models.SizeRequest{Data: "/x.jpg", Format: "bmp"}); !errors.Is(err, models.ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments for format, got %v", err)
	}
	if _, err := o.ProbeSize(context.Background(), models.SizeRequest{Data: "/definitely/not/here.jpg"}); !errors.Is(err, models.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestDestinationHelpers(t *testing.T) {
	for _, name := range []string{"a.jpg", "photo 1.png", ".hidden"} {
		if !validFileName(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{".", "..", "a/b.jpg", `a\b.jpg`} {
		if validFileName(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}

	if got := fileURI("/tmp/my photo.jpg"); got != "file:///tmp/my%20photo.jpg" {
		t.Fatalf("unexpected uri %s", got)
	}
}
