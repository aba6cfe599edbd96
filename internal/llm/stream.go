package llm

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// callbackStream turns a callback-driven API into a pull-based Stream.
// run is executed in its own goroutine and must return once emit reports an
// error.
type callbackStream struct {
	frags  chan string
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	err  error
}

func newCallbackStream(ctx context.Context, run func(ctx context.Context, emit func(string) error) error) *callbackStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &callbackStream{
		frags:  make(chan string),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(s.done)
		defer close(s.frags)
		s.err = run(ctx, func(text string) error {
			select {
			case s.frags <- text:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s
}

func (s *callbackStream) Recv() (string, error) {
	frag, ok := <-s.frags
	if ok {
		return frag, nil
	}
	<-s.done
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *callbackStream) Close() error {
	s.once.Do(func() {
		s.cancel()
		for range s.frags {
		}
	})
	return nil
}

// sseReader reads "data:" payloads from a server-sent events body.
type sseReader struct {
	body io.ReadCloser
	r    *bufio.Reader
}

func newSSEReader(body io.ReadCloser) *sseReader {
	return &sseReader{body: body, r: bufio.NewReaderSize(body, 64*1024)}
}

// Next returns the next data payload, or io.EOF at the end of the body.
func (s *sseReader) Next() (string, error) {
	for {
		line, err := s.r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimSpace(data), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (s *sseReader) Close() error {
	return s.body.Close()
}
