package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// listener is a single registered event callback.
type listener struct {
	id  int
	typ EventType
	fn  func(Event)
}

// Conn is an explicit handle to one websocket connection to the feed
// server. It multiplexes any number of path listeners over the single
// socket: the first listener on a path sends a subscribe frame, the last
// one removed sends an unsubscribe frame.
//
// A Conn is never shared implicitly; callers open one, pass it to the
// components that need it, and close it when done. Transport errors are
// logged and end the read loop; reconnection is the caller's concern.
type Conn struct {
	ws     *websocket.Conn
	logger *log.Logger

	mu        sync.Mutex
	listeners map[string][]listener
	nextID    int
	closed    bool
	done      chan struct{}
}

// Dial opens a websocket connection to the feed endpoint and starts the
// read loop. The logger receives transport-level errors; if nil, the
// standard logger is used.
func Dial(feedURL string, handshakeTimeout time.Duration, logger *log.Logger) (*Conn, error) {
	if logger == nil {
		logger = log.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	ws, _, err := dialer.Dial(feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing feed %s: %w", feedURL, err)
	}

	c := &Conn{
		ws:        ws,
		logger:    logger,
		listeners: make(map[string][]listener),
		done:      make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// Listen registers fn for events of the given type under path and returns
// a remove function. The remove function is synchronous: once it returns,
// fn will not be invoked again. Listener callbacks must not call back
// into the Conn.
func (c *Conn) Listen(path string, typ EventType, fn func(Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("listening on %s: connection closed", path)
	}

	first := len(c.listeners[path]) == 0
	c.nextID++
	id := c.nextID
	c.listeners[path] = append(c.listeners[path], listener{id: id, typ: typ, fn: fn})

	if first {
		if err := c.writeRequest("subscribe", path); err != nil {
			c.removeListenerLocked(path, id)
			return nil, err
		}
	}

	return func() { c.remove(path, id) }, nil
}

// remove detaches a single listener and unsubscribes the path when it was
// the last one.
func (c *Conn) remove(path string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeListenerLocked(path, id)

	if len(c.listeners[path]) == 0 && !c.closed {
		delete(c.listeners, path)
		if err := c.writeRequest("unsubscribe", path); err != nil {
			c.logger.Printf("feed: unsubscribe %s: %v", path, err)
		}
	}
}

func (c *Conn) removeListenerLocked(path string, id int) {
	ls := c.listeners[path]
	for i, l := range ls {
		if l.id == id {
			c.listeners[path] = append(ls[:i], ls[i+1:]...)
			return
		}
	}
}

// Close tears down the websocket. All listeners are dropped; pending
// remove functions become no-ops.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.listeners = make(map[string][]listener)
	c.mu.Unlock()

	err := c.ws.Close()
	<-c.done
	return err
}

// Done is closed when the read loop has exited, either because Close was
// called or because the transport failed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// readLoop pulls frames off the socket and dispatches them to listeners.
// Dispatch happens under the connection mutex, which is what makes
// listener removal synchronous.
func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Printf("feed: read error: %v", err)
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Printf("feed: malformed frame: %v", err)
			continue
		}

		c.dispatch(ev)
	}
}

// dispatch invokes every listener registered for the event's path and type.
func (c *Conn) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range c.listeners[ev.Path] {
		if l.typ == ev.Type {
			l.fn(ev)
		}
	}
}

// writeRequest sends a control frame. Callers must hold c.mu, which also
// serializes websocket writes.
func (c *Conn) writeRequest(action, path string) error {
	if err := c.ws.WriteJSON(request{Action: action, Path: path}); err != nil {
		return fmt.Errorf("sending %s for %s: %w", action, path, err)
	}
	return nil
}
