package contactform

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ruscor/contact-relay/pkg/config"
)

const (
	HeaderContentType     = "Content-Type"
	HeaderAllowOrigin     = "Access-Control-Allow-Origin"
	HeaderAllowMethods    = "Access-Control-Allow-Methods"
	HeaderAllowHeaders    = "Access-Control-Allow-Headers"
	contentTypeJSON       = "application/json"
	corsAllowOrigin       = "*"
	corsAllowMethods      = "POST, OPTIONS"
	corsAllowHeaders      = "Content-Type"
	fallbackInternalError = `{"error":"` + MsgErrorPrefix + `internal error"}`
)

// APIError is the body of every failed response.
type APIError struct {
	Error string `json:"error"`
}

// SubmitResult is the body of a successful submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func preflightResponse() Response {
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			HeaderAllowOrigin:  corsAllowOrigin,
			HeaderAllowMethods: corsAllowMethods,
			HeaderAllowHeaders: corsAllowHeaders,
		},
		Body: "",
	}
}

func jsonResponse(status int, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(fallbackInternalError)
	}
	return Response{
		StatusCode: status,
		Headers: map[string]string{
			HeaderContentType: contentTypeJSON,
			HeaderAllowOrigin: corsAllowOrigin,
		},
		Body: string(body),
	}
}

func errorResponse(status int, message string) Response {
	return jsonResponse(status, APIError{Error: message})
}

// respond converts the outcome of a POST into its response. This is the only
// place where errors become status codes.
func respond(err error) Response {
	switch {
	case err == nil:
		return jsonResponse(http.StatusOK, SubmitResult{Success: true, Message: MsgSubmitted})
	case errors.Is(err, ErrMissingFields):
		return errorResponse(http.StatusBadRequest, MsgFillAllFields)
	case errors.Is(err, config.ErrMailNotConfigured):
		return errorResponse(http.StatusInternalServerError, MsgMailNotConfigured)
	default:
		return errorResponse(http.StatusInternalServerError, MsgErrorPrefix+err.Error())
	}
}
