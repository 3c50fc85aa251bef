package websocket

import (
	"context"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one browser connection. An empty path set means the client
// watches every path.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	send  chan []byte
	paths map[string]struct{}
}

func NewClient(hub *Hub, conn *ws.Conn, paths []string) *Client {
	c := &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		paths: make(map[string]struct{}, len(paths)),
	}
	for _, p := range paths {
		if p != "" {
			c.paths[p] = struct{}{}
		}
	}
	return c
}

func (c *Client) watches(path string) bool {
	if len(c.paths) == 0 {
		return true
	}
	_, ok := c.paths[path]
	return ok
}

// Run registers the client and pumps messages until the connection closes.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards inbound frames; it exists to notice the peer closing.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// HandleWebSocket upgrades the request and subscribes it to the paths given
// as repeated ?path= query values.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err.Error())
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, r.URL.Query()["path"]).Run(r.Context())
	}
}
