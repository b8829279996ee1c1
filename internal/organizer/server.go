package organizer

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/lionkor/ServerOrganizer/internal/protocol"
)

// Serve runs the accept loop on ln until ctx is cancelled. Each
// accepted connection gets its own detached session goroutine; the
// loop paces itself briefly between accepts. Serve closes the listener
// when ctx is cancelled and returns nil on orderly shutdown.
func (o *Organizer) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		time.Sleep(o.cfg.AcceptInterval())
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			o.logger.Printf("could not accept(): %v", err)
			continue
		}
		go o.runSession(conn)
	}
}

// runSession is the per-client request/response loop: read one full
// frame, dispatch it, write one full frame back. Any read or write
// failure ends the session; the registry is never affected by a
// session's death. A reply equal to the detach sentinel closes the
// connection right after it is sent.
func (o *Organizer) runSession(conn net.Conn) {
	id := uuid.NewString()[:8]
	o.logger.Printf("session %s: client connected (%s)", id, conn.RemoteAddr())
	defer func() {
		conn.Close()
		o.logger.Printf("session %s: client disconnected", id)
	}()

	for {
		frame, err := protocol.ReadFrame(conn)
		if errors.Is(err, io.EOF) {
			o.logger.Printf("session %s: client connection died", id)
			return
		}
		if err != nil {
			o.logger.Printf("session %s: %v", id, err)
			return
		}

		reply := o.Dispatch(protocol.Decode(frame))
		if err := protocol.WriteFrame(conn, protocol.Encode(reply)); err != nil {
			o.logger.Printf("session %s: %v", id, err)
			return
		}
		if reply == protocol.Detach {
			o.logger.Printf("session %s: kicked client with detach request, closing connection", id)
			return
		}
		time.Sleep(o.cfg.SessionInterval())
	}
}
