// Package tcpserver accepts TCP connections and hands each one to a session,
// serving exactly one connection at a time.
package tcpserver

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/regionpush/idgenerator"
	"github.com/cyberinferno/regionpush/logger"
)

// NewSessionFunc creates the session for an accepted connection. id is
// assigned by the server and increases monotonically from 1.
type NewSessionFunc func(id uint32, conn net.Conn) TCPServerSession

// TCPServer accepts connections on Addr and runs one session at a time: the
// next connection is not accepted until the current session's Handle returns.
// Pending connections wait in the kernel backlog meanwhile.
//
// IdGenerator assigns session IDs; Start creates one starting at 0 when it is
// nil.
type TCPServer struct {
	Logger      logger.Logger
	Name        string
	Addr        string
	Listener    net.Listener
	Running     atomic.Bool
	IdGenerator *idgenerator.IdGenerator
	NewSession  NewSessionFunc

	served  atomic.Uint64
	mu      sync.Mutex
	current TCPServerSession
	done    chan struct{}
}

// Start binds Addr and runs the accept loop in a goroutine.
//
// Returns:
//   - An error if the server is already running or if listening on Addr fails
func (s *TCPServer) Start() error {
	if s.Running.Load() {
		s.Logger.Error("server already running")
		return fmt.Errorf("server %s already running", s.Name)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.Logger.Error("server failed to start", logger.F("error", err))
		return fmt.Errorf("server %s failed to start: %w", s.Name, err)
	}

	if s.IdGenerator == nil {
		s.IdGenerator = idgenerator.NewIdGenerator(0)
	}
	s.Listener = ln
	s.done = make(chan struct{})
	s.Running.Store(true)

	s.Logger.Info(fmt.Sprintf("%s server started", s.Name), logger.F("addr", ln.Addr().String()))
	go s.AcceptLoop()

	return nil
}

// Stop closes the listener and the in-flight session, then waits for the
// accept loop to exit. Safe to call when the server is not running.
func (s *TCPServer) Stop() {
	if !s.Running.CompareAndSwap(true, false) {
		s.Logger.Info(fmt.Sprintf("%s server not running", s.Name))
		return
	}

	if s.Listener != nil {
		_ = s.Listener.Close()
	}
	if session, ok := s.Current(); ok {
		_ = session.Close()
	}
	<-s.done

	s.Logger.Info(fmt.Sprintf("%s server stopped", s.Name), logger.F("served", s.served.Load()), logger.F("last_session", s.IdGenerator.Last()))
}

// ListenAddr returns the bound address, or nil before Start.
func (s *TCPServer) ListenAddr() net.Addr {
	if s.Listener == nil {
		return nil
	}
	return s.Listener.Addr()
}

// Current returns the session being served, if any.
func (s *TCPServer) Current() (TCPServerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Served returns the number of sessions that ran to completion.
func (s *TCPServer) Served() uint64 {
	return s.served.Load()
}

func (s *TCPServer) setCurrent(session TCPServerSession) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

// AcceptLoop accepts connections until the server stops, running each
// session inline. Transient accept errors back off from 5ms up to 1s.
func (s *TCPServer) AcceptLoop() {
	defer close(s.done)

	var backoff time.Duration
	for s.Running.Load() {
		conn, err := s.Listener.Accept()
		if err != nil {
			if !s.Running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			backoff = nextBackoff(backoff)
			s.Logger.Error(fmt.Sprintf("%s server accept error", s.Name), logger.F("error", err), logger.F("retry_in", backoff.String()))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		id := s.IdGenerator.Id()
		session := s.NewSession(id, conn)
		s.setCurrent(session)
		if !s.Running.Load() {
			// Stop ran between Accept and setCurrent.
			_ = session.Close()
		}
		session.Handle()
		s.setCurrent(nil)
		s.served.Add(1)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
