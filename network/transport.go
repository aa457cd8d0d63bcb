// Package network provides the HTTP client used to read series landing pages.
//
// Requests over TLS present a Chrome ClientHello through uTLS, since the mirror sites sit
// behind anti-bot proxies that reject Go's default fingerprint. HTTP/2 is tried first;
// servers that only speak HTTP/1.1 are retried on a transport that advertises http/1.1 alone.
package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// Transport is an http.RoundTripper that spoofs the TLS fingerprint of a browser.
type Transport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// NewTransport returns a transport with pooled HTTP/2 and HTTP/1.1 connections.
func NewTransport() *Transport {
	h1 := http.DefaultTransport.(*http.Transport).Clone()
	h1.MaxIdleConnsPerHost = 16
	h1.IdleConnTimeout = 30 * time.Second
	h1.ResponseHeaderTimeout = 30 * time.Second
	h1.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dial(ctx, network, addr, "http/1.1")
	}

	return &Transport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dial(ctx, network, addr)
			},
		},
		h1: h1,
	}
}

// RoundTrip sends https requests over HTTP/2 first and everything else over HTTP/1.1.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}
	return t.h1.RoundTrip(retry)
}

// CloseIdleConnections closes idle connections of both transports.
func (t *Transport) CloseIdleConnections() {
	t.h2.CloseIdleConnections()
	t.h1.CloseIdleConnections()
}

// dial opens a TCP connection and performs a Chrome-like handshake. Without protos the
// ALPN list of the fingerprint is used, which offers h2 and http/1.1.
func dial(ctx context.Context, network, addr string, protos ...string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
