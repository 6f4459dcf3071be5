// Package mail composes contact form submissions into multipart (plain and
// HTML) email messages and delivers them synchronously through an
// authenticated SMTP relay, upgrading the session with STARTTLS before any
// credentials are sent.
package mail
