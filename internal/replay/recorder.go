// Package replay пишет полётный журнал: кадры камеры в сжатый JSONL.
// Файлы ротируются по часам; каждый кадр — одна строка JSON внутри
// zstd-потока. Журнал читается офлайн-инструментом city-cli.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/codecity/internal/sim"
)

// Recorder сжимает и пишет кадры в каталог журнала
type Recorder struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewRecorder создаёт рекордер; файлы появляются при первой записи
func NewRecorder(baseDir string) *Recorder {
	return &Recorder{
		baseDir: baseDir,
		prefix:  "flight",
	}
}

// WriteFrame добавляет кадр в журнал
func (r *Recorder) WriteFrame(frame sim.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != r.curHour {
		if err := r.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}

// Close сбрасывает буферы и закрывает текущий файл
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) rotateLocked(hour string) error {
	if err := r.closeLocked(); err != nil {
		return err
	}
	path := r.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f = f
	r.enc = enc
	r.w = bufio.NewWriterSize(enc, 128*1024)
	r.curHour = hour
	return nil
}

func (r *Recorder) closeLocked() error {
	var err1 error
	if r.w != nil {
		_ = r.w.Flush()
	}
	if r.enc != nil {
		err1 = r.enc.Close()
		r.enc = nil
	}
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
	r.w = nil
	return err1
}

func (r *Recorder) pathForHour(hour string) string {
	return filepath.Join(r.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", r.prefix, hour))
}

// ReadAll читает все кадры из файла журнала
func ReadAll(path string) ([]sim.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var frames []sim.Frame
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var frame sim.Frame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			return frames, fmt.Errorf("повреждённая строка журнала: %w", err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return frames, err
	}
	return frames, nil
}

// Attach подписывает рекордер на кадры движка: каждый every-й тик
// пишется в журнал. Возвращает функцию остановки.
func Attach(engine *sim.Engine, rec *Recorder, tickRate, every int) func() {
	if every < 1 {
		every = 1
	}
	if tickRate <= 0 {
		tickRate = 30
	}
	interval := time.Second * time.Duration(every) / time.Duration(tickRate)

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				_ = rec.WriteFrame(engine.Frame())
			}
		}
	}()
	return func() {
		close(quit)
		<-done
	}
}
