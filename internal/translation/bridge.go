package translation

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
)

// BridgeState is the connection state of a BridgeTranslator.
type BridgeState string

const (
	BridgeStateConnecting   BridgeState = "CONNECTING"
	BridgeStateConnected    BridgeState = "CONNECTED"
	BridgeStateDisconnected BridgeState = "DISCONNECTED"
	BridgeStateReconnecting BridgeState = "RECONNECTING"
	BridgeStateFailed       BridgeState = "FAILED"
)

func (s BridgeState) String() string {
	return string(s)
}

type bridgeRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type bridgeResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

// BridgeTranslator forwards names to the in-game translation plugin over a websocket.
// Requests sent while disconnected are dropped; the entry keeps its untranslated name.
type BridgeTranslator struct {
	url                  string
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	stateMu           sync.RWMutex
	state             BridgeState
	reconnectAttempts int

	pendingMu sync.Mutex
	pending   map[string]func(string)
	nextID    atomic.Uint64

	stopCh     chan struct{}
	stopOnce   sync.Once
	listenerWg sync.WaitGroup
}

func NewBridgeTranslator(url string, logger *zap.Logger) *BridgeTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BridgeTranslator{
		url:                  url,
		maxReconnectAttempts: constants.BridgeConfig.MaxReconnectAttempts,
		reconnectDelay:       constants.BridgeConfig.ReconnectDelay,
		logger:               logger.With(zap.String("bridge", url)),
		state:                BridgeStateDisconnected,
		pending:              make(map[string]func(string)),
		stopCh:               make(chan struct{}),
	}
}

func (b *BridgeTranslator) Connect(ctx context.Context) error {
	switch b.GetState() {
	case BridgeStateConnected, BridgeStateConnecting:
		return nil
	}
	b.setState(BridgeStateConnecting)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = constants.BridgeConfig.HandshakeTimeout

	conn, _, err := dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		b.logger.Warn("Failed to connect translation bridge", zap.Error(err))
		b.setState(BridgeStateFailed)
		b.scheduleReconnect(ctx)
		return err
	}

	b.connMu.Lock()
	b.conn = conn
	b.connMu.Unlock()

	b.stateMu.Lock()
	b.reconnectAttempts = 0
	b.stateMu.Unlock()
	b.setState(BridgeStateConnected)

	b.listenerWg.Add(1)
	go b.listen(ctx, conn)
	return nil
}

func (b *BridgeTranslator) listen(ctx context.Context, conn *websocket.Conn) {
	defer b.listenerWg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			b.logger.Warn("Translation bridge read error", zap.Error(err))
			b.dropConnection(conn)
			b.scheduleReconnect(ctx)
			return
		}
		b.handleMessage(data)
	}
}

func (b *BridgeTranslator) handleMessage(data []byte) {
	var resp bridgeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		b.logger.Warn("Failed to parse bridge message", zap.Error(err), zap.String("data", preview))
		return
	}

	b.pendingMu.Lock()
	deliver, ok := b.pending[resp.ID]
	delete(b.pending, resp.ID)
	b.pendingMu.Unlock()

	if !ok || !resp.OK || resp.Text == "" {
		return
	}
	deliver(resp.Text)
}

// TranslateAsync implements the asynchronous translator contract.
func (b *BridgeTranslator) TranslateAsync(text string, deliver func(string)) {
	if text == "" {
		return
	}

	b.connMu.Lock()
	conn := b.conn
	b.connMu.Unlock()
	if conn == nil {
		return
	}

	id := strconv.FormatUint(b.nextID.Add(1), 10)
	b.pendingMu.Lock()
	b.pending[id] = deliver
	b.pendingMu.Unlock()

	b.writeMu.Lock()
	err := conn.WriteJSON(bridgeRequest{ID: id, Text: text})
	b.writeMu.Unlock()

	if err != nil {
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		b.logger.Debug("Failed to send bridge request", zap.Error(err))
	}
}

// dropConnection forgets conn and every request still waiting on it.
func (b *BridgeTranslator) dropConnection(conn *websocket.Conn) {
	b.connMu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.connMu.Unlock()
	_ = conn.Close()

	b.pendingMu.Lock()
	dropped := len(b.pending)
	b.pending = make(map[string]func(string))
	b.pendingMu.Unlock()

	if dropped > 0 {
		b.logger.Info("Dropped pending bridge requests", zap.Int("count", dropped))
	}
	b.setState(BridgeStateDisconnected)
}

func (b *BridgeTranslator) scheduleReconnect(ctx context.Context) {
	b.stateMu.Lock()
	b.reconnectAttempts++
	attempts := b.reconnectAttempts
	b.stateMu.Unlock()

	if attempts > b.maxReconnectAttempts {
		b.logger.Error("Max reconnect attempts reached", zap.Int("attempts", attempts))
		b.setState(BridgeStateFailed)
		return
	}
	b.setState(BridgeStateReconnecting)

	go func() {
		select {
		case <-time.After(b.reconnectDelay):
			if err := b.Connect(ctx); err != nil {
				b.logger.Debug("Reconnect failed", zap.Error(err))
			}
		case <-ctx.Done():
		case <-b.stopCh:
		}
	}()
}

func (b *BridgeTranslator) setState(newState BridgeState) {
	b.stateMu.Lock()
	oldState := b.state
	b.state = newState
	b.stateMu.Unlock()

	if oldState != newState {
		b.logger.Info("Translation bridge state changed",
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
		)
	}
}

func (b *BridgeTranslator) GetState() BridgeState {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

func (b *BridgeTranslator) IsConnected() bool {
	return b.GetState() == BridgeStateConnected
}

func (b *BridgeTranslator) Close() error {
	b.stopOnce.Do(func() { close(b.stopCh) })

	b.connMu.Lock()
	conn := b.conn
	b.conn = nil
	b.connMu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	b.setState(BridgeStateDisconnected)

	done := make(chan struct{})
	go func() {
		b.listenerWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		b.logger.Warn("Timeout waiting for bridge listener to stop")
	}
	return err
}
