package link

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"knnect-svr/internal/hub"
	"knnect-svr/internal/pipeline"
)

const (
	dialRetryDelay = 5 * time.Second
	redialDelay    = 2 * time.Second
	writeTimeout   = 5 * time.Second
)

// Forwarder streams every published Feature to socket-tcp-proxy as NDJSON.
// It registers itself on the hub and stays registered: delivery is
// best-effort, a broken proxy link drops features instead of failing the
// subscription.
type Forwarder struct {
	proxyAddr string
	logger    *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// Init arranca el cliente TCP hacia socket-tcp-proxy y lo suscribe al hub.
// Si addr == "", deja el link deshabilitado.
func Init(addr string, h *hub.Hub, lg *slog.Logger) *Forwarder {
	if addr == "" {
		lg.Info("link: disabled (no proxy address configured)")
		return nil
	}
	f := &Forwarder{
		proxyAddr: addr,
		logger:    lg.With("component", "link"),
	}
	h.Register(f)
	go f.connectLoop()
	return f
}

// Send implements hub.Subscriber. It never returns an error: the link is a
// permanent best-effort feed, not a per-connection client.
func (f *Forwarder) Send(feature *pipeline.Feature) error {
	if err := f.sendNDJSON(feature); err != nil {
		f.logger.Warn("link: send feature failed", "imei", feature.ID, "err", err)
	}
	return nil
}

// -------------------------------------------------------------------
//                        LOOP DE CONEXIÓN
// -------------------------------------------------------------------

func (f *Forwarder) connectLoop() {
	for {
		c, err := net.Dial("tcp", f.proxyAddr)
		if err != nil {
			f.logger.Error("link: dial failed", "addr", f.proxyAddr, "err", err)
			time.Sleep(dialRetryDelay)
			continue
		}

		f.setConn(c)
		f.logger.Info("link: connected", "remote", c.RemoteAddr().String())

		// leer en este hilo hasta que se caiga
		f.readLoop(c)

		f.clearConn(c)
		f.logger.Warn("link: connection closed, reconnecting...")
		time.Sleep(redialDelay)
	}
}

func (f *Forwarder) setConn(c net.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conn = c
}

func (f *Forwarder) clearConn(c net.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == c {
		_ = f.conn.Close()
		f.conn = nil
	}
}

func (f *Forwarder) getConn() net.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn
}

// -------------------------------------------------------------------
//                           LECTURA
// -------------------------------------------------------------------

func (f *Forwarder) readLoop(c net.Conn) {
	r := bufio.NewScanner(c)
	for r.Scan() {
		// El proxy no manda nada que usemos todavía; sólo lo registramos.
		f.logger.Info("link: incoming line", "line", r.Text())
	}
	if err := r.Err(); err != nil && err != io.EOF {
		f.logger.Warn("link: read error", "err", err)
	}
}

// -------------------------------------------------------------------
//                          ENVÍO NDJSON
// -------------------------------------------------------------------

func (f *Forwarder) sendNDJSON(v interface{}) error {
	c := f.getConn()
	if c == nil {
		return errors.New("link: not connected")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err = c.Write(append(b, '\n'))
	return err
}
