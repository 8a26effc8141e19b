package tcpserver

// TCPServerSession is implemented by the per-connection handler the server
// creates for every accepted connection.
type TCPServerSession interface {
	// ID returns the identifier the server assigned to the session.
	ID() uint32

	// Handle runs the session to completion. The server calls it on the accept
	// goroutine and does not accept again until it returns; Handle must close
	// the connection before returning.
	Handle()

	// Close closes the connection, unblocking Handle. It must be safe to call
	// multiple times and concurrently with Handle.
	Close() error

	// Send writes data to the connection.
	Send(data []byte) error
}
