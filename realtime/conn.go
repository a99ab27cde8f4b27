package realtime

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
)

// maxMessageSize bounds inbound frames; audio deltas can get large.
const maxMessageSize = 10 * 1024 * 1024

// dial opens a latency-tuned WebSocket connection: TCP_NODELAY on, small
// send/receive buffers, bearer auth.
func dial(ctx context.Context, url, apiKey string, bufferSize int) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var nd net.Dialer
			conn, err := nd.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcp, ok := conn.(*net.TCPConn); ok {
				if err := tuneTCP(tcp, bufferSize); err != nil {
					_ = conn.Close()
					return nil, err
				}
			}
			return conn, nil
		},
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed with status %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	return conn, nil
}

func tuneTCP(conn *net.TCPConn, bufferSize int) error {
	if err := conn.SetNoDelay(true); err != nil {
		return fmt.Errorf("failed to set TCP_NODELAY: %w", err)
	}
	if err := conn.SetWriteBuffer(bufferSize); err != nil {
		return fmt.Errorf("failed to set send buffer: %w", err)
	}
	if err := conn.SetReadBuffer(bufferSize); err != nil {
		return fmt.Errorf("failed to set receive buffer: %w", err)
	}
	return nil
}
