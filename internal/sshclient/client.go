package sshclient

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Target is one device to connect to.
type Target struct {
	Host     string
	Port     int
	Username string
	Password string
}

type Client struct {
	cfg     Config
	hostKey ssh.HostKeyCallback
}

func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	// network gear rarely ships in known_hosts, so checking is opt-in
	hk := ssh.InsecureIgnoreHostKey() // nolint:gosec // opt-in known_hosts below

	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, errors.Wrap(err, "known_hosts")
		}

		hk = cb
	}

	return &Client{cfg: cfg, hostKey: hk}, nil
}

// Run opens an interactive shell on the target, disables paging, runs the
// platform's show-config command and returns its cleaned output.
func (c *Client) Run(ctx context.Context, t Target, p Platform) (string, error) {
	port := t.Port
	if port <= 0 {
		port = c.cfg.Port
	}

	addr := net.JoinHostPort(t.Host, strconv.Itoa(port))

	sshCfg := &ssh.ClientConfig{
		User:            t.Username,
		HostKeyCallback: c.hostKey,
		Timeout:         c.cfg.Timeout,
		Auth: []ssh.AuthMethod{
			ssh.Password(t.Password),
			ssh.KeyboardInteractive(func(_user, _instruction string, questions []string, _echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = t.Password
				}
				return answers, nil
			}),
		},
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	// Dial with context so it won't hang forever.
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	// ssh handshake and reads can still hang without deadlines
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	cconn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		return "", err
	}
	client := ssh.NewClient(cconn, chans, reqs)
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}

	// wide terminal keeps long config lines from wrapping
	if err := sess.RequestPty("vt100", 0, 512, modes); err != nil {
		return "", errors.Wrap(err, "request pty")
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		return "", err
	}

	// stdout and stderr are copied by separate goroutines
	out := &syncBuffer{}
	sess.Stdout = out
	sess.Stderr = out

	if err := sess.Shell(); err != nil {
		return "", errors.Wrap(err, "start shell")
	}

	script := p.DisablePaging + "\n" + p.ShowConfig + "\n" + p.Exit + "\n"
	if _, err := stdin.Write([]byte(script)); err != nil {
		return "", errors.Wrap(err, "write commands")
	}

	done := make(chan error, 1)

	go func() {
		done <- sess.Wait()
	}()

	select {
	case <-ctx.Done():
		// Best-effort terminate session.
		_ = sess.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case err := <-done:
		var missing *ssh.ExitMissingError
		if err != nil && !errors.As(err, &missing) {
			return "", err
		}
	}

	return CleanOutput(out.String(), p.ShowConfig), nil
}

// Addr is host:port, used in log fields.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.String()
}
