package uploadclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор загрузки файла: байты и число отправленных чанков.
type progressBar struct {
	out           io.Writer
	prefix        string
	totalBytes    int64
	sentBytes     int64
	totalChunks   int
	sentChunks    int
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func newProgressBar(out io.Writer, prefix string, totalBytes int64, totalChunks int) *progressBar {
	if out == nil {
		out = io.Discard
	}
	return &progressBar{
		out:         out,
		prefix:      prefix,
		totalBytes:  totalBytes,
		totalChunks: totalChunks,
	}
}

// Skip учитывает чанки, которые уже есть на сервере и повторно не отправляются.
func (p *progressBar) Skip(chunks int, bytes int64) {
	p.mu.Lock()
	p.sentChunks += chunks
	p.sentBytes += bytes
	p.mu.Unlock()
	p.render(true, "")
}

// ChunkDone отмечает успешно отправленный чанк.
func (p *progressBar) ChunkDone() {
	p.mu.Lock()
	p.sentChunks++
	p.mu.Unlock()
	p.render(false, "")
}

func (p *progressBar) AddBytes(n int64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.sentBytes += n
	p.mu.Unlock()
	p.render(false, "")
}

// render перерисовывает строку не чаще progressRenderPeriod, если не force.
func (p *progressBar) render(force bool, suffix string) {
	p.mu.Lock()
	now := time.Now()
	if !force && (p.finished || now.Sub(p.lastRender) < progressRenderPeriod) {
		p.mu.Unlock()
		return
	}
	p.lastRender = now
	p.drawLocked(suffix, "")
	p.mu.Unlock()
}

func (p *progressBar) Finish() {
	p.complete(nil)
}

func (p *progressBar) Fail(err error) {
	p.complete(err)
}

func (p *progressBar) complete(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true

	mark := " ✓"
	if err != nil {
		mark = fmt.Sprintf(" ✗ %v", err)
	}
	p.drawLocked(mark, "\n")
}

// drawLocked выводит строку поверх предыдущей и затирает её хвост пробелами.
func (p *progressBar) drawLocked(suffix, end string) {
	line := p.lineLocked() + suffix
	tail := max(p.lastLineWidth-len(line), 0)
	p.lastLineWidth = len(line)
	fmt.Fprintf(p.out, "\r%s%*s%s", line, tail, "", end)
}

// lineLocked формирует строку вида "prefix [====    ]  50% 1.0 KB/2.0 KB chunks 1/2".
func (p *progressBar) lineLocked() string {
	ratio := float64(1)
	if p.totalBytes > 0 {
		ratio = min(float64(p.sentBytes)/float64(p.totalBytes), 1)
	}
	filled := min(int(ratio*progressBarWidth+0.5), progressBarWidth)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", progressBarWidth-filled)

	return fmt.Sprintf("%s [%s] %3d%% %s/%s chunks %d/%d",
		p.prefix, bar, int(ratio*100+0.5),
		humanBytes(p.sentBytes), humanBytes(p.totalBytes),
		p.sentChunks, p.totalChunks)
}

// progressWriter считает байты, прошедшие через TeeReader.
type progressWriter struct {
	bar *progressBar
}

func (w progressWriter) Write(p []byte) (int, error) {
	if len(p) > 0 && w.bar != nil {
		w.bar.AddBytes(int64(len(p)))
	}
	return len(p), nil
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
