// Package log persists the intent journal as hourly-rotated,
// zstd-compressed JSONL files.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"korkmmo/internal/sim/world"
)

// jsonlWriter appends one JSON document per line to a zstd stream, rotating
// to a new file whenever the UTC hour changes.
type jsonlWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
}

func newJSONLWriter(dir, prefix string) *jsonlWriter {
	return &jsonlWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *jsonlWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(b); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *jsonlWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.buf = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *jsonlWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *jsonlWriter) closeLocked() error {
	if w.buf != nil {
		_ = w.buf.Flush()
	}
	var err error
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.buf = nil
	return err
}

// IntentJournal records every processed intent, accepted or rejected, to the
// data directory. It satisfies world.IntentLogger.
type IntentJournal struct{ w *jsonlWriter }

func NewIntentJournal(dataDir string) *IntentJournal {
	return &IntentJournal{w: newJSONLWriter(filepath.Join(dataDir, "intents"), "intents")}
}

func (j *IntentJournal) WriteIntent(rec world.IntentRecord) error { return j.w.write(rec) }
func (j *IntentJournal) Close() error                             { return j.w.close() }
