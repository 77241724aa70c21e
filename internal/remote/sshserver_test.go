package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeHost is an SSH server that understands the handful of shell commands
// the stager issues and keeps the resulting files in memory.
type fakeHost struct {
	addr     *net.TCPAddr
	password string
	hostKey  ssh.PublicKey

	mu     sync.Mutex
	files  map[string][]byte
	dirs   map[string]bool
	owners map[string]string
	cmds   []string
}

func newFakeHost(t *testing.T, user, password string) *fakeHost {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	h := &fakeHost{
		addr:     ln.Addr().(*net.TCPAddr),
		password: password,
		hostKey:  signer.PublicKey(),
		files:    make(map[string][]byte),
		dirs:     map[string]bool{"/": true, "/tmp": true},
		owners:   make(map[string]string),
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go h.serveConn(conn, config)
		}
	}()
	return h
}

func (h *fakeHost) config() SSHConfig {
	return SSHConfig{
		Host:            h.addr.IP.String(),
		Port:            h.addr.Port,
		Username:        "admin",
		Password:        h.password,
		HostKeyCallback: ssh.FixedHostKey(h.hostKey),
	}
}

func (h *fakeHost) serveConn(conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "sessions only")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go h.serveSession(ch, requests)
	}
}

func (h *fakeHost) serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()
	for req := range requests {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var exec struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &exec); err != nil {
			req.Reply(false, nil)
			return
		}
		req.Reply(true, nil)

		stdin, _ := io.ReadAll(ch)
		status, stderr := h.exec(exec.Command, stdin)
		if stderr != "" {
			io.WriteString(ch.Stderr(), stderr)
		}
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

// exec runs one command line against the in-memory filesystem.
func (h *fakeHost) exec(cmd string, stdin []byte) (uint32, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = append(h.cmds, cmd)

	const sudoPrefix = "sudo -S -p '' "
	privileged := strings.HasPrefix(cmd, sudoPrefix)
	if privileged {
		if string(stdin) != h.password+"\n" {
			return 1, "sudo: incorrect password"
		}
		cmd = strings.TrimPrefix(cmd, sudoPrefix)
	}

	args := strings.Fields(cmd)
	for i := range args {
		args[i] = strings.Trim(args[i], "'")
	}
	switch {
	case len(args) == 3 && args[0] == "cat" && args[1] == ">":
		if privileged || !h.dirs[path.Dir(args[2])] {
			return 1, "cat: " + args[2] + ": Permission denied"
		}
		h.files[args[2]] = stdin
	case len(args) == 3 && args[0] == "mkdir" && args[1] == "-p" && privileged:
		for dir := args[2]; !h.dirs[dir]; dir = path.Dir(dir) {
			h.dirs[dir] = true
		}
	case len(args) >= 3 && args[0] == "chown" && privileged:
		target := args[len(args)-1]
		if h.files[target] == nil && !h.dirs[target] {
			return 1, "chown: cannot access '" + target + "': No such file or directory"
		}
		h.owners[target] = args[len(args)-2]
	case len(args) == 3 && args[0] == "mv" && privileged:
		data, ok := h.files[args[1]]
		if !ok || !h.dirs[path.Dir(args[2])] {
			return 1, "mv: cannot move '" + args[1] + "' to '" + args[2] + "': No such file or directory"
		}
		delete(h.files, args[1])
		h.files[args[2]] = data
	default:
		return 127, "sh: command not found"
	}
	return 0, ""
}

func (h *fakeHost) file(p string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, ok := h.files[p]
	return string(data), ok
}

func (h *fakeHost) owner(p string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.owners[p]
}

func (h *fakeHost) hasDir(p string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirs[p]
}

func (h *fakeHost) paths(prefix string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for p := range h.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
