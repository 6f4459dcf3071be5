package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/metrics"
)

const (
	// DefaultTimeout bounds a whole SMTP session.
	DefaultTimeout = 10 * time.Second
	// implicitTLSPort is the SMTPS port, where TLS starts before the greeting.
	implicitTLSPort = 465
)

// DialContextFunc opens the network connection to the relay.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Dispatcher sends submissions through an SMTP relay. It holds no
// connection state; every Send opens and releases its own session.
type Dispatcher struct {
	log       *zap.SugaredLogger
	timeout   time.Duration
	tlsConfig *tls.Config
	dial      DialContextFunc
}

type Option func(*Dispatcher)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithTLSConfig sets the base TLS configuration used for STARTTLS and
// implicit TLS. ServerName defaults to the relay host.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(disp *Dispatcher) {
		disp.tlsConfig = cfg
	}
}

// WithDialer replaces the network dialer.
func WithDialer(dial DialContextFunc) Option {
	return func(disp *Dispatcher) {
		if dial != nil {
			disp.dial = dial
		}
	}
}

func NewDispatcher(log *zap.SugaredLogger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Dispatcher{
		log:     log.Named("mail"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.dial == nil {
		dialer := &net.Dialer{Timeout: d.timeout}
		d.dial = dialer.DialContext
	}
	return d
}

// Timeout returns the session bound applied to every Send.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Send composes the mail for sub and delivers it to the relay's own mailbox.
// Any failure is returned as a *DeliveryError; nothing is retried.
func (d *Dispatcher) Send(ctx context.Context, sub Submission, creds config.MailCredentials) error {
	log := d.log.With("submissionID", sub.ID, "host", creds.Host, "port", creds.Port)
	start := time.Now()

	msg, err := ComposeMessage(sub, creds.User)
	if err != nil {
		metrics.MailSendFailure.WithLabelValues(creds.Host).Inc()
		log.Errorw("Failed to compose mail", "error", err)
		return &DeliveryError{Op: "compose", Err: err}
	}

	err = d.deliver(ctx, creds, msg)
	metrics.MailSendDuration.WithLabelValues(creds.Host).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MailSendFailure.WithLabelValues(creds.Host).Inc()
		log.Warnw("Failed to send mail", "error", err, "duration", time.Since(start))
		return err
	}

	metrics.MailSendSuccess.WithLabelValues(creds.Host).Inc()
	log.Infow("Mail sent", "duration", time.Since(start))
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, creds config.MailCredentials, msg *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	fail := func(op string, err error) error {
		cerr := ctx.Err()
		if cerr == nil && errors.Is(err, os.ErrDeadlineExceeded) {
			cerr = context.DeadlineExceeded
		}
		if cerr != nil {
			err = fmt.Errorf("%w: %v", cerr, err)
		}
		return &DeliveryError{Op: op, Err: err}
	}

	conn, err := d.dial(ctx, "tcp", creds.Addr())
	if err != nil {
		return fail("connect", err)
	}
	// The session is released on every exit path.
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fail("connect", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	tlsConfig := d.tlsConfigFor(creds)
	implicitTLS := creds.Port == implicitTLSPort
	var session net.Conn = conn
	if implicitTLS {
		session = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(session, creds.Host)
	if err != nil {
		return fail("greeting", err)
	}
	defer c.Close()

	if !implicitTLS {
		ok, _ := c.Extension("STARTTLS")
		if !ok {
			return fail("starttls", ErrStartTLSUnsupported)
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			return fail("starttls", err)
		}
	}

	ok, mechs := c.Extension("AUTH")
	if !ok {
		return fail("auth", ErrAuthUnsupported)
	}
	auth, err := selectAuth(mechs, creds)
	if err != nil {
		return fail("auth", err)
	}
	if err := c.Auth(auth); err != nil {
		return fail("auth", err)
	}

	if err := gomail.Send(gomail.SendFunc(func(from string, to []string, m io.WriterTo) error {
		return transmit(c, from, to, m)
	}), msg); err != nil {
		return fail("send", err)
	}

	if err := c.Quit(); err != nil {
		// The relay already accepted the message.
		d.log.Debugw("QUIT after successful send failed", "host", creds.Host, "error", err)
	}
	return nil
}

func transmit(c *smtp.Client, from string, to []string, msg io.WriterTo) error {
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (d *Dispatcher) tlsConfigFor(creds config.MailCredentials) *tls.Config {
	var cfg *tls.Config
	if d.tlsConfig != nil {
		cfg = d.tlsConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = creds.Host
	}
	if creds.InsecureSkipVerify {
		cfg.InsecureSkipVerify = true
	}
	return cfg
}
