package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotatingWriter appends to a log file and rotates it to dated backups
// when it would exceed maxSize bytes.
type rotatingWriter struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	maxSize    int64
	maxBackups int
	written    int64
}

func newRotatingWriter(path string, maxSize int64, maxBackups int) (*rotatingWriter, error) {
	w := &rotatingWriter{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}

	if err := w.open(); err != nil {
		return nil, err
	}

	info, err := w.file.Stat()
	if err != nil {
		_ = w.file.Close()
		return nil, err
	}
	w.written = info.Size()

	return w, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

func (w *rotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w.file = file
	return nil
}

// rotate shifts existing backups up one slot, dropping the oldest, and
// moves the live file into slot 1.
func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
	}

	for i := w.maxBackups - 1; i > 0; i-- {
		if i == w.maxBackups-1 {
			_ = os.Remove(w.backupPath(i + 1))
			continue
		}
		if _, err := os.Stat(w.backupPath(i)); err == nil {
			if err := os.Rename(w.backupPath(i), w.backupPath(i+1)); err != nil {
				return err
			}
		}
	}

	// The live file may not exist yet on the very first write.
	_ = os.Rename(w.path, w.backupPath(1))

	if err := w.open(); err != nil {
		return err
	}
	w.written = 0
	return nil
}

func (w *rotatingWriter) backupPath(index int) string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	stamp := time.Now().Format("20060102")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%d%s", name, stamp, index, ext))
}

var _ io.WriteCloser = (*rotatingWriter)(nil)
