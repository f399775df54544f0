package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/delivery"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/ocr"
)

// Stable error codes appended to operator notifications
const (
	CodeMissingImage   = "#GCERR1"
	CodeMissingKey     = "#GCERR2"
	CodeHTTPFailure    = "#GCERR3"
	CodeTransportError = "#GCERR4"
	CodeTimeout        = "#GCERR5"
)

// Notifier raises operator-facing notifications
type Notifier interface {
	NotifyError(ctx context.Context, message string) error
	NotifyInfo(ctx context.Context, message string) error
}

// Options tune the parts of the table that differ between deployments
type Options struct {
	NotifyMissingImage bool          // raise #GCERR1 for unreadable images
	NotifyCompletion   bool          // post "OCR result: <payload>" after every run
	Timeout            time.Duration // shown in the #GCERR5 message
}

// Result is what one dispatch did
type Result struct {
	Outcome     ocr.Outcome
	Payload     string
	Success     bool // caller-visible completion
	Notified    bool // an error notification was raised
	DeliveryErr error
}

// Dispatcher maps an Outcome to its notification and delivery effects
type Dispatcher struct {
	notifier  Notifier
	deliverer delivery.Deliverer
	opts      Options
}

// NewDispatcher creates a dispatcher
func NewDispatcher(notifier Notifier, deliverer delivery.Deliverer, opts Options) *Dispatcher {
	return &Dispatcher{notifier: notifier, deliverer: deliverer, opts: opts}
}

// ErrorMessage returns the diagnostic for o and whether the table raises it
func (d *Dispatcher) ErrorMessage(o ocr.Outcome) (string, bool) {
	return d.errorMessage(o, false)
}

// errorMessage words a timeout without the OCR timeout when the run was
// cut short by a deadline of the caller instead
func (d *Dispatcher) errorMessage(o ocr.Outcome, cutShort bool) (string, bool) {
	switch o.Kind {
	case ocr.KindLocalFailure:
		if o.Reason == ocr.ReasonMissingKey {
			return "API key not found. " + CodeMissingKey, true
		}
		return "Image not found or unreadable. " + CodeMissingImage, d.opts.NotifyMissingImage
	case ocr.KindHTTPFailure:
		return fmt.Sprintf("HTTP error: %d %s", o.StatusCode, CodeHTTPFailure), true
	case ocr.KindTimeout:
		if cutShort {
			return "OCR request timed out. " + CodeTimeout, true
		}
		return fmt.Sprintf("OCR request timed out after %s. %s", formatTimeout(d.opts.Timeout), CodeTimeout), true
	case ocr.KindTransportError:
		return fmt.Sprintf("Exception: %s %s", o.Message, CodeTransportError), true
	default:
		return "", false
	}
}

// Completion reports the caller-visible completion for o.
// Timeout counts as a soft success.
func Completion(o ocr.Outcome) bool {
	return o.Kind == ocr.KindSuccess || o.Kind == ocr.KindTimeout
}

// Dispatch fires the notification effect, then delivers the payload once.
// Effects run without ctx's deadline so a run that hit it still reaches the
// consumer; sinks and deliverers bound their own requests.
func (d *Dispatcher) Dispatch(ctx context.Context, o ocr.Outcome) Result {
	cutShort := ctx.Err() != nil
	ctx = context.WithoutCancel(ctx)

	res := Result{
		Outcome: o,
		Payload: o.Payload(),
		Success: Completion(o),
	}

	if msg, notify := d.errorMessage(o, cutShort); notify {
		res.Notified = true
		if err := d.notifier.NotifyError(ctx, msg); err != nil {
			log.Error().Err(err).Str("outcome", o.String()).Msg("❌ Failed to raise error notification")
		}
	}

	if err := d.deliverer.Deliver(ctx, res.Payload); err != nil {
		res.DeliveryErr = err
		log.Error().Err(err).Str("deliverer", d.deliverer.Name()).Msg("❌ Failed to deliver OCR result")
	}

	if d.opts.NotifyCompletion {
		if err := d.notifier.NotifyInfo(ctx, "OCR result: "+res.Payload); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to post completion notification")
		}
	}

	log.Info().
		Str("outcome", o.String()).
		Bool("success", res.Success).
		Bool("notified", res.Notified).
		Msg("📨 OCR outcome dispatched")
	return res
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "the configured timeout"
	}
	return d.String()
}
