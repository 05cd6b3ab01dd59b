package mingw

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// AccessDeniedError is returned when the makefile cannot be opened for writing.
type AccessDeniedError struct {
	Path string
	Err  error
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: cannot write %s: %v", e.Path, e.Err)
}

func (e *AccessDeniedError) Unwrap() error { return e.Err }

// Makefile is the single output stream of a run. Writes are buffered and the
// first write error sticks; Close reports it.
type Makefile struct {
	Path   string
	f      *os.File
	buf    *bufio.Writer
	out    io.Writer
	err    error
	closed bool
}

// CreateMakefile truncates or creates path. Every byte written is also
// copied to progress when it is not nil.
func CreateMakefile(path string, progress io.Writer) (*Makefile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &AccessDeniedError{Path: path, Err: err}
	}

	buf := bufio.NewWriter(f)
	var out io.Writer = buf
	if progress != nil {
		out = io.MultiWriter(buf, progress)
	}
	return &Makefile{Path: path, f: f, buf: buf, out: out}, nil
}

func (m *Makefile) Write(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.closed {
		return 0, os.ErrClosed
	}
	n, err := m.out.Write(p)
	if err != nil {
		m.err = fmt.Errorf("write %s: %w", m.Path, err)
	}
	return n, err
}

// Close flushes and closes the file. Calling it again is a no-op.
func (m *Makefile) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.buf.Flush(); err != nil && m.err == nil {
		m.err = fmt.Errorf("flush %s: %w", m.Path, err)
	}
	if err := m.f.Close(); err != nil && m.err == nil {
		m.err = fmt.Errorf("close %s: %w", m.Path, err)
	}
	return m.err
}
