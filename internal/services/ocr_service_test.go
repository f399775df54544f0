package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/delivery"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/notification"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/ocr"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/config"
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (n *recordingNotifier) NotifyError(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
	return nil
}

func (n *recordingNotifier) NotifyInfo(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
	return nil
}

func writeJPEG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.White)
	}
	path := filepath.Join(t.TempDir(), "g.jpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
	return path
}

func visionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func staticKey(key string) ocr.KeyProvider {
	return ocr.KeyProviderFunc(func(context.Context) (string, error) { return key, nil })
}

func testConfig(endpoint, imagePath string) *config.Config {
	return &config.Config{
		ImagePath:    imagePath,
		Timeout:      2 * time.Second,
		Endpoint:     endpoint,
		Engine:       config.EngineREST,
		DeliveryMode: config.DeliveryResult,
	}
}

func TestOCRService_Handle_Success(t *testing.T) {
	srv := visionServer(t, http.StatusOK, `{"responses":[{"fullTextAnnotation":{"text":"Hello"}}]}`)
	var out bytes.Buffer
	n := &recordingNotifier{}

	svc, err := NewOCRServiceFromConfig(context.Background(), testConfig(srv.URL, writeJPEG(t)), staticKey("k"), n, &out)
	require.NoError(t, err)
	assert.Equal(t, JobTypeOCR, svc.GetType())

	result, err := svc.Handle(context.Background(), &jobs.Job{})
	require.NoError(t, err)
	assert.Equal(t, "Hello", result)
	assert.Equal(t, "Hello\n", out.String())
	assert.Empty(t, n.errors)
}

func TestOCRService_Handle_HTTPFailure(t *testing.T) {
	srv := visionServer(t, http.StatusForbidden, `{"error":{"code":403}}`)
	var out bytes.Buffer
	n := &recordingNotifier{}

	svc, err := NewOCRServiceFromConfig(context.Background(), testConfig(srv.URL, writeJPEG(t)), staticKey("k"), n, &out)
	require.NoError(t, err)

	result, err := svc.Handle(context.Background(), &jobs.Job{})
	require.Error(t, err)
	assert.Equal(t, "error", result)
	assert.Equal(t, "error\n", out.String())
	assert.Equal(t, []string{"HTTP error: 403 #GCERR3"}, n.errors)
}

func TestOCRService_Handle_MissingKey(t *testing.T) {
	var out bytes.Buffer
	n := &recordingNotifier{}

	svc, err := NewOCRServiceFromConfig(context.Background(), testConfig("http://127.0.0.1:1", writeJPEG(t)), staticKey("  "), n, &out)
	require.NoError(t, err)

	res := svc.Execute(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ocr.KindLocalFailure, res.Outcome.Kind)
	assert.Equal(t, []string{"API key not found. #GCERR2"}, n.errors)
	assert.Equal(t, "error\n", out.String())
}

func TestOCRService_RunsAsJob(t *testing.T) {
	srv := visionServer(t, http.StatusOK, `{"responses":[{}]}`)
	var out bytes.Buffer

	svc, err := NewOCRServiceFromConfig(context.Background(), testConfig(srv.URL, writeJPEG(t)), staticKey("k"), &recordingNotifier{}, &out)
	require.NoError(t, err)

	runner := jobs.NewRunner(jobs.DefaultRunnerConfig())
	runner.RegisterHandler(svc)
	defer runner.Stop()

	job, err := runner.Run(context.Background(), JobTypeOCR, "cli")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, ocr.NoTextFound, job.Result)
}

func TestNewProvider(t *testing.T) {
	for engine, name := range map[string]string{
		config.EngineREST:      "Google Cloud Vision",
		config.EngineSDK:       "Google Cloud Vision (SDK)",
		config.EngineTesseract: "Tesseract OCR",
		config.EngineOCRSpace:  "OCR.space",
	} {
		p, err := NewProvider(&config.Config{Engine: engine})
		require.NoError(t, err)
		assert.Equal(t, name, p.GetProviderName())
	}

	_, err := NewProvider(&config.Config{Engine: "abacus"})
	assert.Error(t, err)
}

func TestNewDeliverer(t *testing.T) {
	d, err := NewDeliverer(&config.Config{DeliveryMode: config.DeliveryBroadcast, BroadcastURL: "http://127.0.0.1:9/b"}, io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &delivery.BroadcastDeliverer{}, d)

	_, err = NewDeliverer(&config.Config{DeliveryMode: config.DeliveryBroadcast}, io.Discard)
	assert.Error(t, err)

	d, err = NewDeliverer(&config.Config{DeliveryMode: config.DeliveryResult}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "result", d.Name())

	_, err = NewDeliverer(&config.Config{DeliveryMode: "pigeon"}, io.Discard)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	svc := NewNotifier(&config.Config{})
	assert.IsType(t, &notification.Service{}, svc)
	require.NoError(t, svc.NotifyError(context.Background(), "Exception: EOF #GCERR4"))
}

func TestOCRService_S3Image(t *testing.T) {
	jpegBytes, err := os.ReadFile(writeJPEG(t))
	require.NoError(t, err)
	s3 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/captures/g.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(jpegBytes)
	}))
	defer s3.Close()
	vision := visionServer(t, http.StatusOK, `{"responses":[{"fullTextAnnotation":{"text":"from s3"}}]}`)

	cfg := testConfig(vision.URL, "s3://captures/g.jpg")
	cfg.S3Region = "us-east-1"
	cfg.S3Endpoint = s3.URL
	cfg.S3AccessKeyID = "test"
	cfg.S3SecretAccessKey = "test"
	cfg.S3UsePathStyle = true

	var out bytes.Buffer
	svc, err := NewOCRServiceFromConfig(context.Background(), cfg, staticKey("k"), &recordingNotifier{}, &out)
	require.NoError(t, err)

	res := svc.Execute(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "from s3", res.Payload)
}

func TestOCRService_JobDeadlineStillDelivers(t *testing.T) {
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer vision.Close()

	var mu sync.Mutex
	var delivered []string
	consumer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b delivery.Broadcast
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&b))
		mu.Lock()
		delivered = append(delivered, b.OCRResult)
		mu.Unlock()
	}))
	defer consumer.Close()

	cfg := testConfig(vision.URL, writeJPEG(t))
	cfg.Timeout = 5 * time.Second
	cfg.DeliveryMode = config.DeliveryBroadcast
	cfg.BroadcastURL = consumer.URL
	n := &recordingNotifier{}

	svc, err := NewOCRServiceFromConfig(context.Background(), cfg, staticKey("k"), n, io.Discard)
	require.NoError(t, err)

	runner := jobs.NewRunner(jobs.RunnerConfig{Timeout: 200 * time.Millisecond})
	runner.RegisterHandler(svc)
	defer runner.Stop()

	job, err := runner.Run(context.Background(), JobTypeOCR, "cli")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, "timeout", job.Result)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"timeout"}, delivered)
	assert.Equal(t, []string{"OCR request timed out. #GCERR5"}, n.errors)
}

func TestNewRunnerConfig(t *testing.T) {
	rc := NewRunnerConfig(&config.Config{Timeout: 5 * time.Second})
	assert.Equal(t, 35*time.Second, rc.Timeout)
	assert.Equal(t, jobs.DefaultRunnerConfig().MaxHistory, rc.MaxHistory)

	rc = NewRunnerConfig(&config.Config{Timeout: 10 * time.Minute})
	assert.Greater(t, rc.Timeout, 10*time.Minute)

	assert.Equal(t, jobs.DefaultRunnerConfig(), NewRunnerConfig(&config.Config{}))
}
