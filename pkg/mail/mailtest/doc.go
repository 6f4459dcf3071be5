// Package mailtest provides an in-process SMTP relay for tests. It speaks
// enough ESMTP for net/smtp clients (EHLO, STARTTLS, AUTH PLAIN, MAIL, RCPT,
// DATA, RSET, NOOP, QUIT) and records every accepted message in decoded form.
package mailtest
