package contactform

// Event is the HTTP request as delivered by the function runtime.
type Event struct {
	HTTPMethod      string            `json:"httpMethod"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// Response is the HTTP response handed back to the function runtime.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Header returns the value of a response header, or "".
func (r Response) Header(key string) string {
	return r.Headers[key]
}
