package server

import (
	"crypto/tls"
	"fmt"
	"sync"

	"atsmatch/internal/errors"
	"atsmatch/internal/watch"
)

// certReloader serves the current key pair and swaps it when the files change
type certReloader struct {
	certFile string
	keyFile  string
	logger   *errors.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

func newCertReloader(certFile, keyFile string, logger *errors.Logger) (*certReloader, error) {
	r := &certReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *certReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()
	return nil
}

// onChange keeps the previous pair when the new one does not load, which
// also covers the window where only one of the two files has been replaced
func (r *certReloader) onChange(changed []string) {
	if err := r.reload(); err != nil {
		r.logger.LogError(err, "Failed to reload TLS certificates", "changed", changed)
		return
	}
	r.logger.Info("TLS certificates reloaded successfully", "changed", changed)
}

func (r *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// buildTLSConfig creates the TLS configuration. It returns nil when TLS is
// disabled. Certificates given as files are watched and reloaded in place.
func (s *Server) buildTLSConfig() (*tls.Config, *watch.Watcher, error) {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil, nil, nil
	case "server":
	default:
		return nil, nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", s.TLSConfig.Mode)
	}

	tlsConfig := &tls.Config{}
	s.configureTLSVersion(tlsConfig)

	if s.TLSConfig.CertContent != "" && s.TLSConfig.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(s.TLSConfig.CertContent), []byte(s.TLSConfig.KeyContent))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
		return tlsConfig, nil, nil
	}

	if s.TLSConfig.CertFile == "" || s.TLSConfig.KeyFile == "" {
		return nil, nil, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	reloader, err := newCertReloader(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, s.Logger)
	if err != nil {
		return nil, nil, err
	}
	tlsConfig.GetCertificate = reloader.GetCertificate

	watcher, err := watch.New([]string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile}, watch.DefaultDebounce, reloader.onChange, s.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to watch TLS certificates: %w", err)
	}
	return tlsConfig, watcher, nil
}

// configureTLSVersion sets the minimum TLS version
func (s *Server) configureTLSVersion(tlsConfig *tls.Config) {
	switch s.TLSConfig.MinVersion {
	case "1.3":
		tlsConfig.MinVersion = tls.VersionTLS13
	default:
		tlsConfig.MinVersion = tls.VersionTLS12
	}
}
