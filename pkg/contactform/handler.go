package contactform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/mail"
	"github.com/ruscor/contact-relay/pkg/metrics"
)

// Dispatcher delivers a validated submission. *mail.Dispatcher implements it.
type Dispatcher interface {
	Send(ctx context.Context, sub mail.Submission, creds config.MailCredentials) error
}

// CredentialsSource returns the current SMTP settings. It is called once per
// POST, so configuration changes apply without a restart.
type CredentialsSource func() (config.MailCredentials, error)

var errNoDispatcher = errors.New("no mail dispatcher configured")

// Handler is the request gateway. It is safe for concurrent use; invocations
// share nothing but the logger.
type Handler struct {
	log         *zap.SugaredLogger
	dispatcher  Dispatcher
	credentials CredentialsSource
}

func NewHandler(log *zap.SugaredLogger, dispatcher Dispatcher, credentials CredentialsSource) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		log:         log.Named("gateway"),
		dispatcher:  dispatcher,
		credentials: credentials,
	}
}

// Handle answers one event. It never panics and always returns a complete
// response: OPTIONS gets the CORS preflight, POST is processed, anything
// else is 405.
func (h *Handler) Handle(ctx context.Context, ev Event) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("Recovered from panic while handling request", "method", ev.HTTPMethod, "panic", r)
			resp = respond(fmt.Errorf("internal error: %v", r))
		}
		metrics.RequestsTotal.WithLabelValues(methodLabel(ev.HTTPMethod), strconv.Itoa(resp.StatusCode)).Inc()
	}()

	switch ev.HTTPMethod {
	case http.MethodOptions:
		return preflightResponse()
	case http.MethodPost:
		return h.post(ctx, ev)
	default:
		h.log.Debugw("Rejected unsupported method", "method", ev.HTTPMethod)
		return errorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}
}

func (h *Handler) post(ctx context.Context, ev Event) Response {
	id := uuid.NewString()
	log := h.log.With("submissionID", id)

	err := h.submit(ctx, id, ev)
	resp := respond(err)

	outcome := outcomeOf(err)
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	switch outcome {
	case metrics.OutcomeAccepted:
		log.Infow("Submission relayed", "status", resp.StatusCode)
	case metrics.OutcomeInvalid:
		log.Infow("Submission rejected", "status", resp.StatusCode, "reason", err)
	case metrics.OutcomeMisconfigured:
		log.Errorw("Mail settings are not configured", "status", resp.StatusCode)
	default:
		log.Errorw("Submission failed", "status", resp.StatusCode, "error", err)
	}
	return resp
}

// submit runs the POST path. Its error is mapped to a response by respond.
func (h *Handler) submit(ctx context.Context, id string, ev Event) error {
	body, err := decodeBody(ev)
	if err != nil {
		return err
	}
	sub, err := parseSubmission(body)
	if err != nil {
		return err
	}
	if err := validate(sub); err != nil {
		return err
	}
	sub.ID = id

	if h.credentials == nil {
		return config.ErrMailNotConfigured
	}
	creds, err := h.credentials()
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	if h.dispatcher == nil {
		return errNoDispatcher
	}
	return h.dispatcher.Send(ctx, sub, creds)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case errors.Is(err, ErrMissingFields):
		return metrics.OutcomeInvalid
	case errors.Is(err, config.ErrMailNotConfigured):
		return metrics.OutcomeMisconfigured
	default:
		return metrics.OutcomeFailed
	}
}

// methodLabel bounds the cardinality of the method label.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace:
		return method
	}
	return "other"
}
