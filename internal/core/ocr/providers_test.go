package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"http error", &HTTPError{StatusCode: 500}, HTTPFailure(500)},
		{"wrapped http error", fmt.Errorf("call: %w", &HTTPError{StatusCode: 429}), HTTPFailure(429)},
		{"timeout sentinel", fmt.Errorf("x: %w", ErrTimeout), Timeout()},
		{"deadline", context.DeadlineExceeded, Timeout()},
		{"other", io.ErrUnexpectedEOF, TransportError(io.ErrUnexpectedEOF.Error())},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.err))
		})
	}
}

func TestOutcomePayload(t *testing.T) {
	assert.Equal(t, "Hello", Success("Hello").Payload())
	assert.Equal(t, "error", HTTPFailure(403).Payload())
	assert.Equal(t, "error", LocalFailure(ReasonMissingKey).Payload())
	assert.Equal(t, "error", LocalFailure(ReasonMissingImage).Payload())
	assert.Equal(t, "error", TransportError("boom").Payload())
	assert.Equal(t, "timeout", Timeout().Payload())
}

func TestNewAnnotateRequest_JSONShape(t *testing.T) {
	data, err := json.Marshal(NewAnnotateRequest([]byte{0xFF, 0xD8, 0xFF}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"requests":[{"image":{"content":"/9j/"},"features":[{"type":"TEXT_DETECTION"}]}]}`, string(data))
}

func TestSDKProvider(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	t.Run("text found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/images:annotate", r.URL.Path)
			assert.Equal(t, "sdk-key", r.URL.Query().Get("key"))

			var body struct {
				Requests []struct {
					Image struct {
						Content string `json:"content"`
					} `json:"image"`
					Features []struct {
						Type string `json:"type"`
					} `json:"features"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Requests, 1)
			assert.Equal(t, base64.StdEncoding.EncodeToString(jpegData), body.Requests[0].Image.Content)
			assert.Equal(t, "TEXT_DETECTION", body.Requests[0].Features[0].Type)

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"responses":[{"fullTextAnnotation":{"text":"Hello"}}]}`)
		}))
		defer srv.Close()

		res, err := NewSDKProvider(srv.URL, time.Second).ExtractText(context.Background(), "sdk-key", jpegData)
		require.NoError(t, err)
		assert.Equal(t, &OCRResult{Text: "Hello", Found: true}, res)
	})

	t.Run("no annotation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"responses":[{}]}`)
		}))
		defer srv.Close()

		res, err := NewSDKProvider(srv.URL, time.Second).ExtractText(context.Background(), "k", jpegData)
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("http failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"denied"}}`)
		}))
		defer srv.Close()

		_, err := NewSDKProvider(srv.URL, time.Second).ExtractText(context.Background(), "k", jpegData)
		require.Error(t, err)
		assert.Equal(t, HTTPFailure(http.StatusForbidden), Classify(err))
	})
}

func TestTesseractProvider_FakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "tesseract")
	// tesseract <image> <outbase> -l <lang>
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"  Hello $4  \" > \"$2.txt\"\n"), 0o755))

	p := NewTesseractProvider("", time.Second)
	p.tesseractPath = script

	assert.True(t, p.Keyless())
	res, err := p.ExtractText(context.Background(), "", []byte{0xFF, 0xD8})
	require.NoError(t, err)
	assert.Equal(t, &OCRResult{Text: "Hello eng", Found: true}, res)
}

func TestTesseractProvider_CommandFailure(t *testing.T) {
	p := NewTesseractProvider("eng", time.Second)
	p.tesseractPath = filepath.Join(t.TempDir(), "missing-binary")

	_, err := p.ExtractText(context.Background(), "", []byte{0xFF, 0xD8})
	require.Error(t, err)
	assert.Equal(t, KindTransportError, Classify(err).Kind)
}

func TestOCRSpaceProvider(t *testing.T) {
	var gotKey, gotLang string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse/image", r.URL.Path)
		gotKey = r.Header.Get("apikey")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLang = r.FormValue("language")
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		gotImage, _ = io.ReadAll(f)
		_, _ = io.WriteString(w, `{"ParsedResults":[{"ParsedText":"Hello\r\n","FileParseExitCode":1}],"OCRExitCode":1,"IsErroredOnProcessing":false}`)
	}))
	defer srv.Close()

	p := NewOCRSpaceProvider(srv.URL+"/", "", time.Second)
	res, err := p.ExtractText(context.Background(), "space-key", []byte("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, &OCRResult{Text: "Hello\r\n", Found: true}, res)
	assert.Equal(t, "space-key", gotKey)
	assert.Equal(t, "eng", gotLang)
	assert.Equal(t, []byte("jpeg"), gotImage)
	assert.Equal(t, "OCR.space", p.GetProviderName())
}

func TestOCRSpaceProvider_Outcomes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, res *OCRResult, err error)
	}{
		{"no text", http.StatusOK, `{"ParsedResults":[{"ParsedText":"  "}],"OCRExitCode":1}`, func(t *testing.T, res *OCRResult, err error) {
			require.NoError(t, err)
			assert.False(t, res.Found)
		}},
		{"processing error", http.StatusOK, `{"OCRExitCode":3,"IsErroredOnProcessing":true,"ErrorMessage":["Unable to recognize the file type"]}`, func(t *testing.T, _ *OCRResult, err error) {
			require.Error(t, err)
			assert.Equal(t, KindTransportError, Classify(err).Kind)
			assert.Contains(t, err.Error(), "Unable to recognize")
		}},
		{"forbidden", http.StatusForbidden, `{}`, func(t *testing.T, _ *OCRResult, err error) {
			assert.Equal(t, HTTPFailure(403), Classify(err))
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				_, _ = io.WriteString(w, c.body)
			}))
			defer srv.Close()

			res, err := NewOCRSpaceProvider(srv.URL, "eng", time.Second).ExtractText(context.Background(), "k", []byte("jpeg"))
			c.check(t, res, err)
		})
	}
}
