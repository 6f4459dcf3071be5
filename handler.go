// Package contactrelay exposes the contact form function to serverless
// runtimes that invoke an exported handler of the module root.
package contactrelay

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/contactform"
	"github.com/ruscor/contact-relay/pkg/mail"
	"github.com/ruscor/contact-relay/pkg/system"
)

var (
	gatewayOnce sync.Once
	gateway     *contactform.Handler
)

func defaultGateway() *contactform.Handler {
	gatewayOnce.Do(func() {
		logger, err := system.NewLogger(false)
		if err != nil {
			logger = zap.NewNop()
		}
		log := logger.Sugar()
		gateway = contactform.NewHandler(log, mail.NewDispatcher(log), config.MailCredentialsFromEnv)
	})
	return gateway
}

// Handler answers one function invocation. SMTP settings are read from the
// environment on every call. The returned error is always nil; failures are
// reported through the response status.
func Handler(ctx context.Context, event *contactform.Event) (*contactform.Response, error) {
	var ev contactform.Event
	if event != nil {
		ev = *event
	}
	resp := defaultGateway().Handle(ctx, ev)
	return &resp, nil
}
