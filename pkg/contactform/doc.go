// Package contactform implements the request gateway of the contact relay:
// it interprets a platform-delivered HTTP event, answers CORS preflights,
// validates the submitted name and phone, hands valid submissions to the mail
// dispatcher, and always produces a well-formed JSON response.
package contactform
