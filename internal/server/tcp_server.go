package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"knnect-svr/internal/observability"
	"knnect-svr/internal/utilities"
)

// Handler processes one framed record. A non-nil error is a record-level
// decode failure: the supervisor logs it and keeps the connection alive.
type Handler interface {
	ProcessIncoming(raw []byte, receivedAt time.Time) error
}

type Config struct {
	// MaxRecordBytes bounds one record; anything longer is discarded.
	MaxRecordBytes int
	// IdleTimeout closes a connection with no traffic. Zero disables it.
	IdleTimeout time.Duration
}

type TcpServer struct {
	cfg     Config
	handler Handler
	log     *slog.Logger
}

func New(cfg Config, handler Handler, log *slog.Logger) *TcpServer {
	if cfg.MaxRecordBytes <= 0 {
		cfg.MaxRecordBytes = 4096
	}
	return &TcpServer{
		cfg:     cfg,
		handler: handler,
		log:     log.With("component", "server"),
	}
}

// Start binds addr and accepts until the listener dies. Only the bind
// itself is fatal.
func (srv *TcpServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting TCP server: %w", err)
	}
	defer listener.Close()

	srv.log.Info("TCP server listening", "addr", addr)
	return srv.Serve(listener)
}

// Serve accepts connections from l, one goroutine per device. A failed
// accept is logged and the loop continues.
func (srv *TcpServer) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			srv.log.Error("accept error", "err", err)
			continue
		}
		observability.TCPConnections.Inc()
		go srv.HandleConnection(conn)
	}
}

// HandleConnection runs one device's read loop until the stream closes or
// an I/O error occurs. Decode failures only skip the offending record; a
// failure here never touches any other connection.
func (srv *TcpServer) HandleConnection(conn net.Conn) {
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetLinger(0)
		_ = tcpConn.SetNoDelay(false)
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(60 * time.Second)
	}

	log := srv.log.With("remote", conn.RemoteAddr().String())
	log.Info("device connected")
	defer log.Info("device disconnected")

	framer := newLineFramer(conn, srv.cfg.MaxRecordBytes)
	for {
		if srv.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(srv.cfg.IdleTimeout))
		}

		raw, err := framer.ReadRecord()
		if err != nil {
			if errors.Is(err, errRecordTooLong) {
				observability.ParseErrors.WithLabelValues("malformed").Inc()
				log.Warn("oversized record dropped", "max_bytes", srv.cfg.MaxRecordBytes)
				continue
			}
			if err != io.EOF && !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrDeadlineExceeded) {
				log.Warn("read error", "err", err)
			}
			return
		}
		if len(raw) == 0 {
			continue
		}

		utilities.CreateLog("ALLTRACKINGS", string(raw))

		if err := srv.handler.ProcessIncoming(raw, time.Now()); err != nil {
			log.Warn("record skipped", "err", err, "raw", string(raw))
		}
	}
}
