package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Session is one live WebSocket connection to the game server. After
// the opening commands are sent it relays: inbound frames go to the
// output formatter, and each line typed on stdin is sent as a command.
type Session struct {
	conn    *websocket.Conn
	out     *Output
	verbose bool
}

// Dial connects to the game server
func Dial(serverURL string, out *Output, verbose bool) (*Session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}
	return &Session{conn: conn, out: out, verbose: verbose}, nil
}

// Close closes the connection
func (s *Session) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}

// Send marshals and sends one command
func (s *Session) Send(cmd any) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if s.verbose {
		s.out.PrintMessage(fmt.Sprintf("-> %s", data))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Run relays until the server closes the connection, the context is
// cancelled, or stdin reaches EOF with no more frames pending. Stdin
// lines must each be one JSON command; blank lines are skipped.
func (s *Session) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		for {
			_, raw, err := s.conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			s.out.PrintEvent(raw)
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !json.Valid([]byte(line)) {
				s.out.PrintError(fmt.Errorf("not valid JSON: %s", line))
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				errCh <- err
				return
			}
		}
		// Stdin closed; keep listening for server events
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		return err
	}
}
