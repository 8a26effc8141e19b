// Package session implements the per-connection region-update protocol:
// read a region count, decode and paint each region, acknowledge with "OK",
// drain and close. Any failure closes the connection without acknowledgment.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/cyberinferno/regionpush/bytereader"
	"github.com/cyberinferno/regionpush/display"
	"github.com/cyberinferno/regionpush/logger"
	"github.com/cyberinferno/regionpush/peerstats"
	"github.com/cyberinferno/regionpush/perfmonitor"
	"github.com/cyberinferno/regionpush/region"
	"github.com/cyberinferno/regionpush/tcpserver"
)

// Ack is written once every region of a batch has been painted.
var Ack = []byte("OK")

var (
	// ErrInvalidRegionCount is returned when the declared count is 0 or above
	// Config.MaxRegions.
	ErrInvalidRegionCount = errors.New("session: invalid region count")
	// ErrPaint wraps an error returned by the display sink.
	ErrPaint = errors.New("session: paint failed")
	// ErrWrite wraps a failed or timed out write to the peer.
	ErrWrite = errors.New("session: write failed")
)

// statsTimeout bounds recording an outcome so a slow store cannot stall the
// accept loop.
const statsTimeout = time.Second

// Flusher is implemented by sinks that want a hook after a batch, such as
// display.SnapshotSink.
type Flusher interface {
	Flush() error
}

// Result describes how a session ended.
type Result struct {
	State State
	// Count is the region count the client declared; 0 if it never arrived.
	Count int
	// Regions is the number of regions decoded successfully.
	Regions int
	// Painted is the number of Sink.Paint calls made.
	Painted   int
	Err       error
	ElapsedMs float64
}

// Handler creates sessions for a tcpserver. Decoder is shared by every
// session it creates, which is sound only because the server runs one
// session at a time.
type Handler struct {
	Config  Config
	Decoder *region.Decoder
	Sink    display.Sink
	Logger  logger.Logger
	// Stats is optional.
	Stats peerstats.Store
	// Observer, if set, is called on every state transition. index is the
	// zero-based region index for ProcessingRegion and -1 for every other
	// state.
	Observer func(id uint32, s State, index int)
}

// NewHandler validates cfg and builds a handler with a decoder sized from
// limits.
//
// Parameters:
//   - cfg: Session timing and count limits
//   - limits: Display extent and chunk limit for the decoder
//   - sink: Receives every decoded non-empty region
//   - log: Logger for session outcomes; a nop logger when nil
//
// Returns:
//   - The handler, or an error wrapping ErrInvalidConfig or region.ErrInvalidLimits
func NewHandler(cfg Config, limits region.Limits, sink display.Sink, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dec, err := region.NewDecoder(limits, cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Handler{Config: cfg, Decoder: dec, Sink: sink, Logger: log}, nil
}

// NewSession implements tcpserver.NewSessionFunc.
func (h *Handler) NewSession(id uint32, conn net.Conn) tcpserver.TCPServerSession {
	return h.newSession(id, conn)
}

func (h *Handler) newSession(id uint32, conn net.Conn) *Session {
	peer := conn.RemoteAddr().String()
	return &Session{
		id:      id,
		conn:    conn,
		handler: h,
		peer:    peer,
		logger:  h.Logger.With(logger.F("session", id), logger.F("peer", peer)),
		perf:    perfmonitor.NewPerformanceMonitor(),
	}
}

// Session owns one accepted connection for its lifetime.
type Session struct {
	id      uint32
	conn    net.Conn
	handler *Handler
	peer    string
	logger  logger.Logger
	perf    *perfmonitor.PerformanceMonitor

	mu        sync.Mutex
	state     State
	closeOnce sync.Once
	closeErr  error
}

// ID implements tcpserver.TCPServerSession.
func (s *Session) ID() uint32 {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Handle implements tcpserver.TCPServerSession.
func (s *Session) Handle() {
	s.Run()
}

// Close implements tcpserver.TCPServerSession. Only the first call closes the
// connection. Closing a session that has not finished, as the server does on
// Stop, makes its pending read fail and the session abort.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if st := s.State(); !st.Terminal() {
			s.logger.Debug("closing unfinished session", logger.F("state", st.String()))
		}
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Send implements tcpserver.TCPServerSession. The write is bounded by the
// configured read timeout.
func (s *Session) Send(data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.handler.Config.ReadTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Run drives the state machine to a terminal state and closes the
// connection. Regions painted before a failure stay painted.
func (s *Session) Run() Result {
	s.perf.Start()
	res := s.run()
	_ = s.Close()
	s.perf.Stop()
	res.ElapsedMs = s.perf.ElapsedMilliseconds()

	s.report(res)
	return res
}

func (s *Session) run() Result {
	cfg := s.handler.Config
	res := Result{}
	s.transition(Idle)

	var count [1]byte
	if err := bytereader.ReadExactWithin(s.conn, count[:], cfg.AcceptWait); err != nil {
		return s.abort(res, fmt.Errorf("awaiting region count: %w", err))
	}
	s.transition(AwaitingRegionCount)

	n := int(count[0])
	res.Count = n
	if n == 0 || n > cfg.MaxRegions {
		return s.abort(res, fmt.Errorf("%w: %d", ErrInvalidRegionCount, n))
	}

	for i := 0; i < n; i++ {
		s.transitionAt(ProcessingRegion, i)
		reg, err := s.handler.Decoder.DecodeAndFill(s.conn)
		if err != nil {
			return s.abort(res, fmt.Errorf("region %d of %d: %w", i, n, err))
		}
		res.Regions++

		if reg.Header.Empty() {
			continue
		}

		h := reg.Header
		if err := s.handler.Sink.Paint(int(h.X), int(h.Y), int(h.Width), int(h.Height), reg.Pixels); err != nil {
			return s.abort(res, fmt.Errorf("%w: region %d %s: %w", ErrPaint, i, h, err))
		}
		res.Painted++
		runtime.Gosched()
	}

	s.transition(Acknowledging)
	if err := s.Send(Ack); err != nil {
		return s.abort(res, err)
	}

	s.transition(Draining)
	s.drain()

	s.transition(Closed)
	res.State = Closed
	return res
}

// drain discards trailing bytes until the peer is silent for DrainTimeout,
// closes its side, or ReadTimeout elapses in total.
func (s *Session) drain() {
	cfg := s.handler.Config
	limit := time.Now().Add(cfg.ReadTimeout)
	buf := make([]byte, 256)
	for {
		deadline := time.Now().Add(cfg.DrainTimeout)
		if deadline.After(limit) {
			deadline = limit
		}
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.logger.Debug("drained trailing bytes", logger.F("bytes", n))
		}
		if err != nil || !time.Now().Before(limit) {
			return
		}
	}
}

func (s *Session) abort(res Result, err error) Result {
	s.transition(Aborted)
	res.State = Aborted
	res.Err = err
	return res
}

func (s *Session) transition(to State) {
	s.transitionAt(to, -1)
}

func (s *Session) transitionAt(to State, index int) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()

	if s.handler.Observer != nil {
		s.handler.Observer(s.id, to, index)
	}
}

func (s *Session) report(res Result) {
	fields := []logger.Field{
		logger.F("state", res.State.String()),
		logger.F("count", res.Count),
		logger.F("regions", res.Regions),
		logger.F("painted", res.Painted),
		logger.F("elapsed_ms", res.ElapsedMs),
	}

	if res.Err != nil {
		fields = append(fields, logger.F("reason", Reason(res.Err)), logger.F("error", res.Err))
		s.logger.Warn("session aborted", fields...)
	} else {
		s.logger.Info("batch acknowledged", fields...)
	}

	if f, ok := s.handler.Sink.(Flusher); ok && res.Painted > 0 {
		if err := f.Flush(); err != nil {
			s.logger.Error("sink flush failed", logger.F("error", err))
		}
	}

	if s.handler.Stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()

		outcome := peerstats.Outcome{Completed: res.Err == nil, Regions: res.Painted, Reason: Reason(res.Err)}
		if err := s.handler.Stats.Record(ctx, peerHost(s.peer), outcome); err != nil {
			s.logger.Error("failed to record peer stats", logger.F("error", err))
		}
	}
}

// Reason maps a session error to a short, stable label for logs and stats.
// It returns "" for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRegionCount):
		return "invalid_region_count"
	case errors.Is(err, region.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, region.ErrChunkTooLarge):
		return "chunk_too_large"
	case errors.Is(err, region.ErrShortRead):
		return "short_read"
	case errors.Is(err, ErrPaint):
		return "paint"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, bytereader.ErrTimeout):
		return "timeout"
	case errors.Is(err, bytereader.ErrClosed):
		return "closed"
	default:
		return "io"
	}
}

func peerHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
