// Package publish sends finished build reports to a socket.io endpoint so
// that dashboards can follow builds as they complete.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/report"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// DefaultEvent is the event a report is emitted as.
	DefaultEvent = "build.report"
	// DefaultAckEvent is the event the server answers with.
	DefaultAckEvent = "build.report.ack"
	// DefaultTimeout bounds connecting, emitting and waiting for the ack.
	DefaultTimeout = 10 * time.Second
)

// ErrDisabled is returned by Publish when no URL is configured.
var ErrDisabled = errors.New("report publishing disabled")

// session is a connected socket.io client.
type session interface {
	emit(event string, data any)
	once(event string, fn func(...any))
	close()
}

// dialer opens a session to rawURL in namespace.
type dialer func(ctx context.Context, rawURL, namespace string) (session, error)

// Option configures a Publisher.
type Option func(*Publisher)

// WithNamespace sets the socket.io namespace.
func WithNamespace(ns string) Option { return func(p *Publisher) { p.namespace = ns } }

// WithEvents overrides the emitted event and the ack event. An empty ack
// event disables waiting for an answer.
func WithEvents(event, ack string) Option {
	return func(p *Publisher) { p.event, p.ack = event, ack }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(p *Publisher) { p.timeout = d } }

func withDialer(d dialer) Option { return func(p *Publisher) { p.dial = d } }

// Publisher emits reports over socket.io.
type Publisher struct {
	url       string
	namespace string
	event     string
	ack       string
	timeout   time.Duration
	dial      dialer
}

// New creates a publisher for rawURL. An empty URL yields a disabled
// publisher.
func New(rawURL string, opts ...Option) *Publisher {
	p := &Publisher{
		url:       rawURL,
		namespace: "/",
		event:     DefaultEvent,
		ack:       DefaultAckEvent,
		timeout:   DefaultTimeout,
		dial:      dialSocketIO,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether a URL is configured.
func (p *Publisher) Enabled() bool {
	return p.url != ""
}

// Publish connects, emits the report and waits for the ack, all within
// the publisher's timeout.
func (p *Publisher) Publish(ctx context.Context, rep *report.Report) error {
	if !p.Enabled() {
		return ErrDisabled
	}
	logger := ctxlog.FromContext(ctx).With("url", p.url, "event", p.event, "build", rep.ID)

	data, err := payload(rep)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s, err := p.dial(ctx, p.url, p.namespace)
	if err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	defer s.close()

	acked := make(chan struct{}, 1)
	if p.ack != "" {
		s.once(p.ack, func(...any) {
			acked <- struct{}{}
		})
	}
	logger.Debug("Emitting build report.")
	s.emit(p.event, data)
	if p.ack == "" {
		return nil
	}

	select {
	case <-acked:
		logger.Info("Build report published.")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish report: waiting for %q: %w", p.ack, ctx.Err())
	}
}

// payload converts the report into plain JSON values.
func payload(rep *report.Report) (map[string]any, error) {
	raw, err := json.Marshal(rep.Document())
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return out, nil
}

type socketSession struct {
	io *socket.Socket
}

func (s socketSession) emit(event string, data any) {
	s.io.Emit(event, data)
}

func (s socketSession) once(event string, fn func(...any)) {
	s.io.Once(types.EventName(event), fn)
}

func (s socketSession) close() {
	s.io.Disconnect()
}

// dialSocketIO connects over the websocket transport and waits for the
// connect event.
func dialSocketIO(ctx context.Context, rawURL, namespace string) (session, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to report endpoint.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		connectChan <- connectError(errs...)
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return socketSession{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	}
}

// connectError turns the arguments of a connect_error event into an error.
// The event may carry no arguments at all.
func connectError(args ...any) error {
	if len(args) == 0 {
		return errors.New("connect error")
	}
	if err, ok := args[0].(error); ok && err != nil {
		return err
	}
	return fmt.Errorf("connect error: %v", args[0])
}
