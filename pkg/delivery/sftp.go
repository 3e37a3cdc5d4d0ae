// Package delivery implements the resilient SFTP delivery channel.
//
// Each attempt runs against a fresh authenticated session; on any failure
// every session resource is released best-effort and the next attempt starts
// from scratch after a fixed delay. With atomic mode on (the default) the
// artifact is uploaded under a .tmp sibling name and renamed into place only
// after the full transfer, so the partner never observes a partial file under
// the final name.
package delivery

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"

	"github.com/xtremeops/shipstation-export/pkg/retry"
)

// Prometheus metrics for delivery operations.
var (
	deliveryAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_attempts_total",
		Help: "Total SFTP delivery attempts",
	})

	deliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_failures_total",
		Help: "Total failed SFTP delivery attempts",
	})

	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_duration_seconds",
		Help:    "Duration of successful SFTP deliveries in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Config holds the delivery channel configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// Retries is the total attempt budget (default 3).
	Retries int

	// Delay is the fixed sleep between attempts (default 5s).
	Delay time.Duration

	// ConnectTimeout bounds TCP connection establishment and SSH handshake.
	ConnectTimeout time.Duration

	// Atomic uploads to "<name>.tmp" and renames after the full transfer.
	Atomic bool

	// MkdirAll walks and creates each missing segment of the remote
	// directory before uploading.
	MkdirAll bool

	// HostKeyCallback verifies the server host key. Defaults to accepting
	// any key, matching how the partner endpoint has always been trusted.
	HostKeyCallback ssh.HostKeyCallback
}

// DefaultConfig returns a safe default delivery configuration.
func DefaultConfig(host, user, password string) Config {
	return Config{
		Host:           host,
		Port:           22,
		User:           user,
		Password:       password,
		Retries:        3,
		Delay:          5 * time.Second,
		ConnectTimeout: 10 * time.Second,
		Atomic:         true,
		MkdirAll:       true,
	}
}

// remoteFS is the slice of SFTP operations the uploader needs. Tests provide
// in-memory implementations; production wraps *sftp.Client.
type remoteFS interface {
	Stat(p string) (os.FileInfo, error)
	Mkdir(p string) error
	Create(p string) (io.WriteCloser, error)
	Rename(oldname, newname string) error
	Remove(p string) error
}

// dialFunc opens an authenticated session and returns the remote filesystem
// plus a release function closing every session resource best-effort.
type dialFunc func(ctx context.Context) (remoteFS, func(), error)

// Uploader is the resilient delivery channel.
type Uploader struct {
	cfg    Config
	dial   dialFunc
	policy retry.Policy
	logger zerolog.Logger
}

// New creates an Uploader for the given configuration.
func New(cfg Config) (*Uploader, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("sftp host and user are required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 5 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	u := &Uploader{
		cfg: cfg,
		policy: retry.Policy{
			MaxAttempts:    cfg.Retries,
			InitialBackoff: cfg.Delay,
			Multiplier:     1.0,
		},
		logger: log.With().Str("component", "sftp-delivery").Logger(),
	}
	u.dial = u.sftpDial
	return u, nil
}

// Upload transfers localPath into remoteDir, keeping the local filename.
// Every attempt uses a fresh session; the final error is returned once the
// attempt budget is spent.
func (u *Uploader) Upload(ctx context.Context, localPath, remoteDir string) error {
	return u.policy.Do(ctx, u.logger, func() error {
		deliveryAttemptsTotal.Inc()
		start := time.Now()

		if err := u.attempt(ctx, localPath, remoteDir); err != nil {
			deliveryFailuresTotal.Inc()
			u.logger.Warn().
				Err(err).
				Str("local", localPath).
				Str("remote_dir", remoteDir).
				Msg("delivery attempt failed")
			return err
		}

		deliveryDuration.Observe(time.Since(start).Seconds())
		u.logger.Info().
			Str("local", localPath).
			Str("remote_dir", remoteDir).
			Msg("artifact delivered")
		return nil
	})
}

// attempt performs one full connect-auth-transfer cycle.
func (u *Uploader) attempt(ctx context.Context, localPath, remoteDir string) error {
	fs, release, err := u.dial(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer release()

	if u.cfg.MkdirAll {
		if err := ensureDir(fs, remoteDir); err != nil {
			return err
		}
	}

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local artifact: %w", err)
	}
	defer local.Close()

	final := path.Join(remoteDir, filepath.Base(localPath))
	target := final
	if u.cfg.Atomic {
		target = final + ".tmp"
	}

	if err := u.transfer(fs, local, target); err != nil {
		if u.cfg.Atomic {
			// Best-effort: don't leave the partial temp file behind.
			_ = fs.Remove(target)
		}
		return err
	}

	if u.cfg.Atomic {
		if err := fs.Rename(target, final); err != nil {
			_ = fs.Remove(target)
			return fmt.Errorf("rename %s: %w", final, err)
		}
	}

	return nil
}

// transfer streams the local file to the remote target path.
func (u *Uploader) transfer(fs remoteFS, local io.Reader, target string) error {
	w, err := fs.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(w, local); err != nil {
		w.Close()
		return fmt.Errorf("transfer to %s: %w", target, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}

	return nil
}

// ensureDir walks remoteDir segment by segment, creating what is missing.
func ensureDir(fs remoteFS, dir string) error {
	dir = path.Clean(dir)
	if dir == "/" || dir == "." || dir == "" {
		return nil
	}

	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		cur = path.Join(cur, seg)
		if _, err := fs.Stat(cur); err == nil {
			continue
		}
		if err := fs.Mkdir(cur); err != nil {
			// Another process may have created it between Stat and Mkdir.
			if _, serr := fs.Stat(cur); serr != nil {
				return fmt.Errorf("create remote dir %s: %w", cur, err)
			}
		}
	}

	return nil
}

// sftpDial opens the production TCP + SSH + SFTP session stack.
func (u *Uploader) sftpDial(ctx context.Context) (remoteFS, func(), error) {
	addr := net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port))

	dialer := net.Dialer{Timeout: u.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	hostKey := u.cfg.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            u.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(u.cfg.Password)},
		HostKeyCallback: hostKey,
		Timeout:         u.cfg.ConnectTimeout,
	})
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("open sftp subsystem: %w", err)
	}

	release := func() {
		// Best-effort teardown of all three resources; a failing close on
		// one must not skip the others.
		_ = sftpClient.Close()
		_ = sshClient.Close()
		_ = conn.Close()
	}

	return &sftpFS{client: sftpClient}, release, nil
}

// sftpFS adapts *sftp.Client to the remoteFS interface.
type sftpFS struct {
	client *sftp.Client
}

func (s *sftpFS) Stat(p string) (os.FileInfo, error) { return s.client.Stat(p) }

func (s *sftpFS) Mkdir(p string) error { return s.client.Mkdir(p) }

func (s *sftpFS) Create(p string) (io.WriteCloser, error) {
	f, err := s.client.Create(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Rename uses POSIX rename so the final name appears atomically.
func (s *sftpFS) Rename(oldname, newname string) error {
	return s.client.PosixRename(oldname, newname)
}

func (s *sftpFS) Remove(p string) error { return s.client.Remove(p) }
