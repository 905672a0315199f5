package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 30 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to connect to server.
	dialTimeout = 5 * time.Second
)

var callCounter uint64

// WSProvider speaks json-rpc 2.0 to a wallet bridge endpoint over a
// websocket. Requests are correlated by id; server notifications with
// no id carry wallet change events and fan out to subscribers.
type WSProvider struct {
	endpoint string
	ws       *websocket.Conn
	outgoing chan *wsCall

	closeOnce sync.Once
	closed    chan struct{}

	subMu       sync.Mutex
	subSeq      int
	subscribers map[int]chan<- Event
}

type wsCall struct {
	req    *jsonrpcRequest
	ready  chan struct{}
	result json.RawMessage
	err    error
}

func (c *wsCall) done(result json.RawMessage, err error) {
	c.result = result
	c.err = err
	close(c.ready)
}

type jsonrpcRequest struct {
	Version string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonrpcMessage struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// DialWS connect a websocket wallet bridge endpoint
func DialWS(endpoint string) (*WSProvider, error) {
	log.Info("new wallet session", "remote", endpoint)
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial '%v': %v", ErrNoProvider, endpoint, err)
	}
	p := &WSProvider{
		endpoint:    endpoint,
		ws:          conn,
		outgoing:    make(chan *wsCall, 100),
		closed:      make(chan struct{}),
		subscribers: make(map[int]chan<- Event),
	}
	go p.run()
	log.Info("new wallet session", "remote", endpoint, "status", "success")
	return p, nil
}

// Request implements the Provider interface
func (p *WSProvider) Request(ctx context.Context, method string, requestParams ...interface{}) (json.RawMessage, error) {
	if requestParams == nil {
		requestParams = []interface{}{}
	}
	call := &wsCall{
		req: &jsonrpcRequest{
			Version: "2.0",
			ID:      atomic.AddUint64(&callCounter, 1),
			Method:  method,
			Params:  requestParams,
		},
		ready: make(chan struct{}),
	}
	select {
	case p.outgoing <- call:
	case <-p.closed:
		return nil, fmt.Errorf("wallet session '%v' closed", p.endpoint)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case <-call.ready:
		return call.result, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe implements the Provider interface
func (p *WSProvider) Subscribe(events chan<- Event) (unsubscribe func()) {
	p.subMu.Lock()
	p.subSeq++
	id := p.subSeq
	p.subscribers[id] = events
	p.subMu.Unlock()
	return func() {
		p.subMu.Lock()
		delete(p.subscribers, id)
		p.subMu.Unlock()
	}
}

// Close implements the Provider interface
func (p *WSProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	return nil
}

// run spawns the read/write pumps and correlates responses with
// pending calls until Close() or a transport failure.
func (p *WSProvider) run() {
	outbound := make(chan *jsonrpcRequest)
	inbound := make(chan []byte)
	pending := make(map[uint64]*wsCall)

	defer func() {
		close(outbound)
		for _, call := range pending {
			call.done(nil, fmt.Errorf("wallet session '%v' closed", p.endpoint))
		}
		for range inbound {
		}
		_ = p.Close()
		p.emit(Event{Type: EventDisconnected})
	}()

	go func() {
		defer p.ws.Close()
		p.writePump(outbound)
		// a dead write side must unpark run and pending requests
		_ = p.Close()
	}()
	go func() {
		defer close(inbound)
		p.readPump(inbound)
	}()

	for {
		select {
		case call := <-p.outgoing:
			pending[call.req.ID] = call
			select {
			case outbound <- call.req:
			case <-p.closed:
				return
			}

		case in, ok := <-inbound:
			if !ok {
				log.Warn("wallet session closed by remote", "remote", p.endpoint)
				return
			}
			var msg jsonrpcMessage
			if err := json.Unmarshal(in, &msg); err != nil {
				log.Error("json unmarshal wallet message error", "err", err)
				continue
			}
			if msg.ID == nil {
				p.dispatchNotification(&msg)
				continue
			}
			call, exist := pending[*msg.ID]
			if !exist {
				log.Warn("unexpected wallet message", "id", *msg.ID, "method", msg.Method)
				continue
			}
			delete(pending, *msg.ID)
			if msg.Error != nil {
				call.done(nil, msg.Error)
			} else {
				call.done(msg.Result, nil)
			}

		case <-p.closed:
			return
		}
	}
}

// writePump consumes outbound requests and sends pings at the
// specified interval. Returns on channel close or write error.
func (p *WSProvider) writePump(outbound <-chan *jsonrpcRequest) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-outbound:
			if !ok {
				_ = p.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.ws.WriteJSON(req); err != nil {
				log.Error("ws write message error", "remote", p.endpoint, "err", err)
				return
			}
		case <-ticker.C:
			if err := p.ws.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				log.Error("ws write ping message error", "remote", p.endpoint, "err", err)
				return
			}
		}
	}
}

// readPump reads raw frames to the inbound channel.
// Expects PONGs within pongWait or gives up.
func (p *WSProvider) readPump(inbound chan<- []byte) {
	_ = p.ws.SetReadDeadline(time.Now().Add(pongWait))
	p.ws.SetPongHandler(func(string) error {
		return p.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := p.ws.ReadMessage()
		if err != nil {
			log.Debug("ws read message error", "remote", p.endpoint, "err", err)
			return
		}
		_ = p.ws.SetReadDeadline(time.Now().Add(pongWait))
		inbound <- message
	}
}

func (p *WSProvider) dispatchNotification(msg *jsonrpcMessage) {
	switch msg.Method {
	case EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(msg.Params, &accounts); err != nil {
			log.Warn("wrong accountsChanged notification", "err", err)
			return
		}
		p.emit(Event{Type: EventAccountsChanged, Accounts: accounts})
	case EventChainChanged:
		var chainParams []string
		if err := json.Unmarshal(msg.Params, &chainParams); err != nil || len(chainParams) == 0 {
			log.Warn("wrong chainChanged notification", "err", err)
			return
		}
		p.emit(Event{Type: EventChainChanged, ChainID: chainParams[0]})
	case EventDisconnected:
		p.emit(Event{Type: EventDisconnected})
	default:
		log.Trace("ignore wallet notification", "method", msg.Method)
	}
}

func (p *WSProvider) emit(ev Event) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, sub := range p.subscribers {
		select {
		case sub <- ev:
		default:
			log.Warn("wallet event dropped, slow subscriber", "event", ev.Type)
		}
	}
}
