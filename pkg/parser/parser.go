package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinName is the path that selects standard input.
const StdinName = "-"

// FileSource implements LineSource over a sequence of files read one after
// the other. Line numbers keep counting across file boundaries.
type FileSource struct {
	files []string
	stdin io.Reader

	currentFile   io.Closer
	currentReader *bufio.Reader
	currentSource string
	lineNum       int
	fileIndex     int
}

// NewFileSource creates a LineSource that reads the given files in order.
// The name "-" reads standard input.
func NewFileSource(files []string) *FileSource {
	return &FileSource{
		files:     files,
		stdin:     os.Stdin,
		fileIndex: -1,
	}
}

// WithStdin replaces the reader used for the "-" entry.
func (s *FileSource) WithStdin(r io.Reader) *FileSource {
	s.stdin = r
	return s
}

// NewReaderSource creates a LineSource over a single reader.
func NewReaderSource(r io.Reader, name string) *FileSource {
	s := &FileSource{
		files:     []string{name},
		fileIndex: 0,
	}
	s.startReader(r, name)
	return s
}

// Next returns the next line. Returns io.EOF when all input is exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		// Lines have no length limit; an over-long line is still one line.
		text, err := s.currentReader.ReadString('\n')
		if len(text) > 0 {
			s.lineNum++
			return &LogLine{
				Content: strings.TrimRight(text, "\r\n"),
				Source:  s.currentSource,
				LineNum: s.lineNum,
			}, nil
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		// Current input exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
		s.currentReader = nil
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	s.fileIndex = len(s.files)
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	if path == StdinName {
		s.startReader(s.stdin, path)
		return nil
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.startReader(f, path)
	return nil
}

func (s *FileSource) startReader(r io.Reader, name string) {
	s.currentReader = bufio.NewReaderSize(r, 64*1024)
	s.currentSource = name
}

func (s *FileSource) closeCurrentFile() error {
	s.currentReader = nil
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		return err
	}
	return nil
}
