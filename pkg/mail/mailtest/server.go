package mailtest

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
)

// connTimeout bounds each client connection so a stuck client cannot hang a test.
const connTimeout = 10 * time.Second

// Options configure a Server.
type Options struct {
	// STARTTLS advertises and serves STARTTLS with a generated certificate.
	STARTTLS bool
	// ImplicitTLS serves TLS from the first byte, as on the SMTPS port.
	ImplicitTLS bool
	// Username and Password, when Username is set, are required via AUTH
	// before MAIL is accepted. Any other credentials are rejected with 535.
	Username string
	Password string
	// AuthMechanisms lists the advertised and accepted mechanisms out of
	// PLAIN, LOGIN and CRAM-MD5. Defaults to PLAIN.
	AuthMechanisms []string
}

// Server is a minimal SMTP relay listening on 127.0.0.1.
type Server struct {
	Host string
	Port int

	opts      Options
	ln        net.Listener
	tlsConfig *tls.Config
	clientTLS *tls.Config
	wg        sync.WaitGroup

	mu           sync.Mutex
	conns        map[net.Conn]struct{}
	messages     []Message
	authAttempts int
	closed       bool
}

// NewServer starts a relay and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB, opts Options) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &Server{
		Host:  "127.0.0.1",
		Port:  ln.Addr().(*net.TCPAddr).Port,
		opts:  opts,
		ln:    ln,
		conns: map[net.Conn]struct{}{},
	}
	if opts.STARTTLS || opts.ImplicitTLS {
		serverCfg, clientCfg, err := selfSignedTLS(s.Host)
		if err != nil {
			ln.Close()
			t.Fatalf("failed to generate certificate: %v", err)
		}
		s.tlsConfig = serverCfg
		s.clientTLS = clientCfg
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// ClientTLSConfig returns a TLS config trusting the server certificate, or
// nil when the server speaks no TLS.
func (s *Server) ClientTLSConfig() *tls.Config {
	if s.clientTLS == nil {
		return nil
	}
	return s.clientTLS.Clone()
}

// Addr returns host:port of the relay.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Messages returns a copy of every message accepted so far.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AuthAttempts returns how many AUTH commands the relay has seen.
func (s *Server) AuthAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authAttempts
}

// Close stops accepting, drops open connections and waits for handlers to return.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				_ = conn.Close()
			}()
			_ = conn.SetDeadline(time.Now().Add(connTimeout))
			if s.opts.ImplicitTLS {
				tlsConn := tls.Server(conn, s.tlsConfig)
				if err := tlsConn.Handshake(); err != nil {
					return
				}
				s.serve(tlsConn, true)
				return
			}
			s.serve(conn, false)
		}()
	}
}

type session struct {
	secure bool
	authed bool
	from   string
	to     []string
}

func (s *Server) serve(conn net.Conn, secure bool) {
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 mailtest ESMTP ready")

	st := session{secure: secure}
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")

		switch strings.ToUpper(verb) {
		case "EHLO", "HELO":
			s.hello(tp, st)
		case "STARTTLS":
			if s.tlsConfig == nil || st.secure {
				_ = tp.PrintfLine("454 4.7.0 TLS not available")
				continue
			}
			_ = tp.PrintfLine("220 2.0.0 Ready to start TLS")
			tlsConn := tls.Server(conn, s.tlsConfig)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			tp = textproto.NewConn(tlsConn)
			st = session{secure: true}
		case "AUTH":
			if !s.auth(tp, arg, &st) {
				return
			}
		case "*":
			_ = tp.PrintfLine("501 5.7.0 Authentication aborted")
		case "MAIL":
			if s.opts.Username != "" && !st.authed {
				_ = tp.PrintfLine("530 5.7.0 Authentication required")
				continue
			}
			st.from = extractPath(arg)
			st.to = nil
			_ = tp.PrintfLine("250 2.1.0 OK")
		case "RCPT":
			if st.from == "" {
				_ = tp.PrintfLine("503 5.5.1 Bad sequence of commands")
				continue
			}
			st.to = append(st.to, extractPath(arg))
			_ = tp.PrintfLine("250 2.1.5 OK")
		case "DATA":
			if st.from == "" || len(st.to) == 0 {
				_ = tp.PrintfLine("503 5.5.1 Bad sequence of commands")
				continue
			}
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			raw, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.store(st.from, st.to, raw)
			st.from, st.to = "", nil
			_ = tp.PrintfLine("250 2.0.0 OK: queued")
		case "RSET":
			st.from, st.to = "", nil
			_ = tp.PrintfLine("250 2.0.0 OK")
		case "NOOP":
			_ = tp.PrintfLine("250 2.0.0 OK")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 Command not recognized")
		}
	}
}

func (s *Server) hello(tp *textproto.Conn, st session) {
	lines := []string{"mailtest Hello"}
	if s.tlsConfig != nil && !st.secure {
		lines = append(lines, "STARTTLS")
	}
	if s.opts.Username != "" {
		lines = append(lines, "AUTH "+strings.Join(s.mechanisms(), " "))
	}
	lines = append(lines, "8BITMIME")
	for i, l := range lines {
		sep := "-"
		if i == len(lines)-1 {
			sep = " "
		}
		_ = tp.PrintfLine("250%s%s", sep, l)
	}
}

func (s *Server) mechanisms() []string {
	if len(s.opts.AuthMechanisms) == 0 {
		return []string{"PLAIN"}
	}
	return s.opts.AuthMechanisms
}

func (s *Server) offers(mech string) bool {
	for _, m := range s.mechanisms() {
		if strings.EqualFold(m, mech) {
			return true
		}
	}
	return false
}

// auth handles AUTH PLAIN, LOGIN and CRAM-MD5. It returns false when the
// connection broke.
func (s *Server) auth(tp *textproto.Conn, arg string, st *session) bool {
	s.mu.Lock()
	s.authAttempts++
	s.mu.Unlock()

	mech, initial, _ := strings.Cut(arg, " ")
	mech = strings.ToUpper(mech)
	if !s.offers(mech) {
		_ = tp.PrintfLine("504 5.5.4 Unrecognized authentication type")
		return true
	}

	var ok bool
	switch mech {
	case "PLAIN":
		if initial == "" {
			resp, err := s.challenge(tp, "")
			if err != nil {
				return false
			}
			initial = resp
		}
		ok = s.checkPlain(initial)
	case "LOGIN":
		user := decode(initial)
		if initial == "" {
			resp, err := s.challenge(tp, "Username:")
			if err != nil {
				return false
			}
			user = decode(resp)
		}
		resp, err := s.challenge(tp, "Password:")
		if err != nil {
			return false
		}
		ok = s.opts.Username != "" && user == s.opts.Username && decode(resp) == s.opts.Password
	case "CRAM-MD5":
		nonce := fmt.Sprintf("<%d@mailtest>", time.Now().UnixNano())
		resp, err := s.challenge(tp, nonce)
		if err != nil {
			return false
		}
		ok = s.checkCRAMMD5(nonce, decode(resp))
	}

	if ok {
		st.authed = true
		_ = tp.PrintfLine("235 2.7.0 Authentication successful")
	} else {
		_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
	}
	return true
}

// challenge sends a 334 continuation and returns the client's raw reply.
func (s *Server) challenge(tp *textproto.Conn, prompt string) (string, error) {
	_ = tp.PrintfLine("334 %s", base64.StdEncoding.EncodeToString([]byte(prompt)))
	return tp.ReadLine()
}

func decode(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func (s *Server) checkPlain(encoded string) bool {
	parts := strings.Split(decode(encoded), "\x00")
	if len(parts) != 3 {
		return false
	}
	return s.opts.Username != "" && parts[1] == s.opts.Username && parts[2] == s.opts.Password
}

func (s *Server) checkCRAMMD5(nonce, reply string) bool {
	user, digest, found := strings.Cut(reply, " ")
	if !found || s.opts.Username == "" || user != s.opts.Username {
		return false
	}
	mac := hmac.New(md5.New, []byte(s.opts.Password))
	mac.Write([]byte(nonce))
	return hmac.Equal([]byte(digest), []byte(hex.EncodeToString(mac.Sum(nil))))
}

func (s *Server) store(from string, to []string, raw []byte) {
	msg, err := ParseMessage(raw)
	if err != nil {
		msg = Message{Raw: raw, ParseErr: err}
	}
	msg.From = from
	msg.To = append([]string(nil), to...)

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

// extractPath returns the address in "FROM:<addr> PARAMS" or "TO:<addr>".
func extractPath(arg string) string {
	start := strings.Index(arg, "<")
	end := strings.Index(arg, ">")
	if start < 0 || end < start {
		_, addr, _ := strings.Cut(arg, ":")
		return strings.TrimSpace(addr)
	}
	return arg[start+1 : end]
}

func (s *Server) String() string {
	return fmt.Sprintf("mailtest.Server(%s)", s.Addr())
}
