package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Defaults for the broadcast consumer
const (
	DefaultAction  = "com.yourapp.OCR_RESULT"
	DefaultPackage = "ch.gridvision.ppam.androidautomagic"
	ResultField    = "ocr_result"
)

// Deliverer hands the final payload to exactly one downstream consumer
type Deliverer interface {
	Deliver(ctx context.Context, payload string) error
	Name() string
}

// Broadcast is the JSON message posted by BroadcastDeliverer
type Broadcast struct {
	Action    string `json:"action"`
	Package   string `json:"package"`
	OCRResult string `json:"ocr_result"`
}

// BroadcastDeliverer posts the payload to a relay URL as a broadcast message
type BroadcastDeliverer struct {
	url    string
	action string
	pkg    string
	client *http.Client
}

// NewBroadcastDeliverer creates a deliverer posting to url.
// Empty action or pkg fall back to the defaults.
func NewBroadcastDeliverer(url, action, pkg string) *BroadcastDeliverer {
	if action == "" {
		action = DefaultAction
	}
	if pkg == "" {
		pkg = DefaultPackage
	}
	return &BroadcastDeliverer{
		url:    url,
		action: action,
		pkg:    pkg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the deliverer name
func (d *BroadcastDeliverer) Name() string { return "broadcast" }

// Deliver posts one broadcast carrying payload
func (d *BroadcastDeliverer) Deliver(ctx context.Context, payload string) error {
	body, err := json.Marshal(Broadcast{Action: d.action, Package: d.pkg, OCRResult: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("broadcast error (status: %d): %s", resp.StatusCode, string(b))
	}
	return nil
}

// WriterDeliverer writes the payload as one line to w, e.g. stdout for the CLI
type WriterDeliverer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterDeliverer creates a deliverer writing to w
func NewWriterDeliverer(w io.Writer) *WriterDeliverer {
	return &WriterDeliverer{w: w}
}

// Name returns the deliverer name
func (d *WriterDeliverer) Name() string { return "result" }

// Deliver writes payload followed by a newline
func (d *WriterDeliverer) Deliver(_ context.Context, payload string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintln(d.w, payload); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
