package runner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/http2"

	"loadprobe/internal/results"
)

// NewClient builds the shared HTTP client for a run.
func NewClient(cfg Config) (*http.Client, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = cfg.Concurrency
	t.MaxConnsPerHost = cfg.Concurrency
	t.MaxIdleConnsPerHost = cfg.Concurrency
	if cfg.Insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	if cfg.HTTP2 {
		if _, err := http2.ConfigureTransports(t); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: t,
	}, nil
}

// Executor issues single timed GET requests. It holds no mutable state.
type Executor struct {
	Client  *http.Client
	URL     string
	Timeout time.Duration
}

// Execute performs one GET and classifies it. Every failure is returned as
// data; ctx cancellation is ignored so an in-flight call always settles on
// its own or by timeout.
func (e *Executor) Execute(ctx context.Context, requestID int) results.Outcome {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.Timeout)
	defer cancel()

	res := results.Outcome{RequestID: requestID}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, e.URL, nil)
	if err != nil {
		res.StartTime = time.Now()
		res.EndTime = res.StartTime
		res.Error = err.Error()
		return res
	}

	res.StartTime = time.Now()
	resp, err := e.Client.Do(req)
	if err == nil {
		// Drain so the connection can be reused. A read error here, a
		// body-read timeout included, is ignored: the status line was
		// received and classifies the outcome.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	res.EndTime = time.Now()
	res.ResponseTimeMs = float64(res.EndTime.Sub(res.StartTime)) / float64(time.Millisecond)

	if err != nil {
		res.Error = DescribeError(err, e.Timeout)
		return res
	}

	res.StatusCode = resp.StatusCode
	if resp.StatusCode == http.StatusOK {
		res.Success = true
	} else {
		res.Error = results.StatusError(resp.StatusCode)
	}
	return res
}

// DescribeError turns a transport error into a short, stable description
// suitable as an error-breakdown key.
func DescribeError(err error, timeout time.Duration) string {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Sprintf("timeout after %s", timeout)
	case errors.As(err, &dnsErr):
		if dnsErr.IsNotFound {
			return fmt.Sprintf("dns lookup failed: no such host %s", dnsErr.Name)
		}
		return fmt.Sprintf("dns lookup failed: %s", dnsErr.Name)
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return "network unreachable"
	case errors.As(err, &certErr), errors.As(err, &unknownAuth), errors.As(err, &hostErr):
		return "tls certificate verification failed"
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("timeout after %s", timeout)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "connection closed by server"
	}

	// Strip the `Get "url":` prefix added by *url.Error.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return strings.TrimSpace(err.Error())
}
