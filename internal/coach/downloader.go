package coach

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"habitloop/internal/logging"
)

// Downloader copies a small-language-model artifact to disk while reporting
// fractional progress on a stream the model-progress loader consumes.
type Downloader struct {
	mu       sync.Mutex
	progress float64
	subs     []chan float64
	log      *zap.Logger
}

// NewDownloader builds an idle downloader (progress 0).
func NewDownloader() *Downloader {
	return &Downloader{log: logging.Named(logging.CategoryCoach)}
}

// Download copies r to dst, publishing progress in [0,1]. size <= 0 disables
// fractional reporting; progress jumps to 1 on completion.
func (d *Downloader) Download(ctx context.Context, r io.Reader, size int64, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer f.Close()

	d.setProgress(0)

	buf := make([]byte, 128*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write model file: %w", werr)
			}
			written += int64(n)
			if size > 0 {
				d.setProgress(float64(written) / float64(size))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read model source: %w", rerr)
		}
	}

	d.setProgress(1)
	d.log.Info("model download complete", zap.String("dst", dst), zap.Int64("bytes", written))
	return nil
}

// Progress returns the latest fraction.
func (d *Downloader) Progress() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

// SubscribeProgress returns a latest-value progress stream.
func (d *Downloader) SubscribeProgress(ctx context.Context) <-chan float64 {
	ch := make(chan float64, 1)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	ch <- d.progress
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		for i, sub := range d.subs {
			if sub == ch {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				break
			}
		}
		d.mu.Unlock()
	}()

	return ch
}

func (d *Downloader) setProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	d.mu.Lock()
	d.progress = p
	for _, ch := range d.subs {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
			}
		}
	}
	d.mu.Unlock()
}
