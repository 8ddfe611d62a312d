// Package calls places click-to-call requests between customers and
// delivery partners through a backend function.
package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zippy-delivery/zippy-console/internal/notify"
	"github.com/zippy-delivery/zippy-console/internal/platform/httpx"
	"github.com/zippy-delivery/zippy-console/internal/remote"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// FunctionName is the backend function that bridges the two phones.
const FunctionName = "exotel-click-to-call"

// CallerType identifies who starts the call.
type CallerType string

const (
	CallerUser            CallerType = "user"
	CallerDeliveryPartner CallerType = "delivery_partner"
)

var (
	// ErrCallInProgress is returned while a previous call is still connecting.
	ErrCallInProgress = fmt.Errorf("calls: a call is already being connected: %w", httpx.ErrConflict)
	// ErrInvalidParams is returned for incomplete requests.
	ErrInvalidParams = fmt.Errorf("calls: invalid parameters: %w", httpx.ErrValidation)
)

// Params is the body sent to the backend function.
type Params struct {
	From       string     `json:"from" validate:"required"`
	To         string     `json:"to" validate:"required"`
	OrderID    string     `json:"orderId,omitempty"`
	CallerType CallerType `json:"callerType" validate:"required,oneof=user delivery_partner"`
}

// Result is the backend function reply.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Invoker calls a named backend function.
type Invoker interface {
	Invoke(ctx context.Context, function string, body, out any) error
}

// failure carries a backend-reported reason to the user.
type failure struct{ reason string }

func (f failure) Error() string       { return "calls: " + f.reason }
func (f failure) SafeMessage() string { return f.reason }
func (f failure) Unwrap() error       { return httpx.ErrUpstream }

// Dialer places calls for one caller. At most one call is connecting at a
// time; extra attempts are rejected rather than queued or cancelled.
type Dialer struct {
	invoker  Invoker
	notifier notify.Notifier
	logger   *slog.Logger
	op       remote.Op[Result]
}

// NewDialer builds a Dialer.
func NewDialer(invoker Invoker, notifier notify.Notifier, logger *slog.Logger) *Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{invoker: invoker, notifier: notifier, logger: logger}
}

// Connecting reports whether a call is being established.
func (d *Dialer) Connecting() bool {
	return d.op.State().Status == remote.Loading
}

// State returns the current snapshot.
func (d *Dialer) State() remote.State[Result] {
	return d.op.State()
}

// Initiate asks the backend to connect p.From and p.To. Backend failures are
// reported through the notifier, the dialer is reset to idle and the error
// is returned; nothing is retried.
func (d *Dialer) Initiate(ctx context.Context, p Params) error {
	if p.From == "" || p.To == "" {
		return ErrInvalidParams
	}
	if p.CallerType != CallerUser && p.CallerType != CallerDeliveryPartner {
		return fmt.Errorf("%w: caller type %q", ErrInvalidParams, p.CallerType)
	}

	_, err := d.op.Run(ctx, func(ctx context.Context) (Result, error) {
		var res Result
		if err := d.invoker.Invoke(ctx, FunctionName, p, &res); err != nil {
			return Result{}, err
		}
		if !res.Success {
			reason := res.Error
			if reason == "" {
				reason = "Failed to initiate call"
			}
			return Result{}, failure{reason: reason}
		}
		return res, nil
	})
	if errors.Is(err, remote.ErrInFlight) {
		return ErrCallInProgress
	}
	if err != nil {
		d.logger.Error("click to call", slog.String("order_id", p.OrderID), slog.Any("error", err))
		d.op.Reset()
		d.notify(ctx, shared.FlashMessage{
			Kind:    shared.FlashDestructive,
			Title:   "Call Failed",
			Message: failureMessage(err),
		})
		return err
	}

	d.notify(ctx, shared.FlashMessage{
		Kind:    shared.FlashSuccess,
		Title:   "Connecting your call...",
		Message: fmt.Sprintf("Connecting to %s. You will receive a call on your phone shortly.", calleeName(p.CallerType)),
	})
	return nil
}

func (d *Dialer) notify(ctx context.Context, n shared.FlashMessage) {
	if d.notifier != nil {
		d.notifier.Notify(ctx, n)
	}
}

func calleeName(caller CallerType) string {
	if caller == CallerUser {
		return "Zippy Delivery Partner"
	}
	return "Zippy Customer"
}

func failureMessage(err error) string {
	var safe interface{ SafeMessage() string }
	if errors.As(err, &safe) {
		return safe.SafeMessage()
	}
	return "Could not connect the call. Please try again."
}

// Registry hands out one Dialer per caller so the single in-flight rule
// holds across requests from the same actor. A dialer lives only while a
// call for its caller is being placed.
type Registry struct {
	mu       sync.Mutex
	dialers  map[string]*registryEntry
	invoker  Invoker
	notifier notify.Notifier
	logger   *slog.Logger
}

type registryEntry struct {
	dialer *Dialer
	refs   int
}

// NewRegistry builds a Registry whose dialers share invoker and notifier.
func NewRegistry(invoker Invoker, notifier notify.Notifier, logger *slog.Logger) *Registry {
	return &Registry{dialers: make(map[string]*registryEntry), invoker: invoker, notifier: notifier, logger: logger}
}

// Initiate places a call on behalf of callerID. A second call for the same
// caller while the first is connecting fails with ErrCallInProgress.
func (r *Registry) Initiate(ctx context.Context, callerID string, p Params) error {
	d := r.acquire(callerID)
	defer r.release(callerID)
	return d.Initiate(ctx, p)
}

// Len reports how many callers currently hold a dialer.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dialers)
}

func (r *Registry) acquire(callerID string) *Dialer {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.dialers[callerID]
	if !ok {
		e = &registryEntry{dialer: NewDialer(r.invoker, r.notifier, r.logger)}
		r.dialers[callerID] = e
	}
	e.refs++
	return e.dialer
}

func (r *Registry) release(callerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.dialers[callerID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.dialers, callerID)
	}
}
