package singer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/goccy/go-json"
)

// Singer writes newline delimited protocol messages. Records are buffered,
// schema and state force a flush so the sink sees them in order.
type Singer struct {
	out     *bufio.Writer
	encoder *json.Encoder
	closed  bool
}

func (s *Singer) Type() string {
	return string(types.Singer)
}

func (s *Singer) Setup(out io.Writer) error {
	if out == nil {
		return fmt.Errorf("no output given")
	}
	s.out = bufio.NewWriterSize(out, 64*1024)
	s.encoder = json.NewEncoder(s.out)
	s.encoder.SetEscapeHTML(false)
	return nil
}

func (s *Singer) WriteSchema(_ context.Context, msg *types.Schema) error {
	if err := s.encoder.Encode(msg); err != nil {
		return fmt.Errorf("failed to write schema for stream %s: %s", msg.Stream, err)
	}
	return s.out.Flush()
}

func (s *Singer) WriteRecord(_ context.Context, msg *types.RecordRow) error {
	if err := s.encoder.Encode(msg); err != nil {
		return fmt.Errorf("failed to write record for stream %s: %s", msg.Stream, err)
	}
	return nil
}

func (s *Singer) WriteState(_ context.Context, msg *types.StateRow) error {
	if err := s.encoder.Encode(msg); err != nil {
		return fmt.Errorf("failed to write state: %s", err)
	}
	return s.out.Flush()
}

func (s *Singer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.out.Flush()
}

func init() {
	destination.RegisteredWriters[types.Singer] = func() destination.Writer {
		return new(Singer)
	}
}
