// Package remote stages project files onto the platform host over SSH.
package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Owner of staged directories and files on the platform host.
const Owner = "awx:awx"

// DefaultProjectBase is where the platform looks for manual projects.
const DefaultProjectBase = "/var/lib/awx/projects"

// Stager places files on the platform host.
type Stager interface {
	EnsureDir(ctx context.Context, dir string) error
	Upload(ctx context.Context, localFile, remotePath string) error
}

// SSHConfig holds the login used for staging.
type SSHConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Timeout         time.Duration
	HostKeyCallback ssh.HostKeyCallback // nil accepts any host key
}

// SSHStager stages files with password-authenticated SSH sessions. Privileged
// steps run through sudo, which reads the same password from stdin.
type SSHStager struct {
	cfg SSHConfig
	log zerolog.Logger
}

// NewSSHStager creates a stager for cfg.
func NewSSHStager(cfg SSHConfig, logger zerolog.Logger) *SSHStager {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SSHStager{cfg: cfg, log: logger.With().Str("ssh_host", cfg.Host).Logger()}
}

func (s *SSHStager) dial(ctx context.Context) (*ssh.Client, error) {
	hostKey := s.cfg.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}
	clientConfig := &ssh.ClientConfig{
		User:            s.cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		HostKeyCallback: hostKey,
		Timeout:         s.cfg.Timeout,
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	d := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// run executes cmd in a new session, feeding stdin if given.
func (s *SSHStager) run(client *ssh.Client, cmd string, stdin io.Reader) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stdin = stdin
	session.Stderr = &stderr
	s.log.Debug().Str("cmd", cmd).Msg("ssh exec")
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *SSHStager) sudo(client *ssh.Client, cmd string) error {
	return s.run(client, "sudo -S -p '' "+cmd, strings.NewReader(s.cfg.Password+"\n"))
}

// EnsureDir creates dir and hands it to the platform user.
func (s *SSHStager) EnsureDir(ctx context.Context, dir string) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.sudo(client, "mkdir -p "+shellQuote(dir)); err != nil {
		return err
	}
	return s.sudo(client, fmt.Sprintf("chown -R %s %s", Owner, shellQuote(dir)))
}

// Upload copies localFile to remotePath and writes a sha256 sidecar next to
// it. The file is streamed to a temporary path as the login user first, then
// moved into place with sudo.
func (s *SSHStager) Upload(ctx context.Context, localFile, remotePath string) error {
	f, err := os.Open(localFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localFile, err)
	}
	defer f.Close()

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	tmp := path.Join("/tmp", "towerctl-"+uuid.New().String())
	hash := sha256.New()
	if err := s.run(client, "cat > "+shellQuote(tmp), io.TeeReader(f, hash)); err != nil {
		return err
	}
	digest := hex.EncodeToString(hash.Sum(nil))
	sidecar := tmp + ".sha256"
	line := fmt.Sprintf("%s  %s\n", digest, path.Base(remotePath))
	if err := s.run(client, "cat > "+shellQuote(sidecar), strings.NewReader(line)); err != nil {
		return err
	}

	for src, dst := range map[string]string{tmp: remotePath, sidecar: remotePath + ".sha256"} {
		if err := s.sudo(client, fmt.Sprintf("mv %s %s", shellQuote(src), shellQuote(dst))); err != nil {
			return err
		}
		if err := s.sudo(client, fmt.Sprintf("chown %s %s", Owner, shellQuote(dst))); err != nil {
			return err
		}
	}
	s.log.Info().Str("file", localFile).Str("remote", remotePath).Str("sha256", digest).Msg("staged")
	return nil
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
