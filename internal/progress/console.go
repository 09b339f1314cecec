package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// FormatLine renders m as "HH:MM:SS UTC - text".
func FormatLine(m Message) string {
	return fmt.Sprintf("%s UTC - %s", m.Time.UTC().Format("15:04:05"), strings.TrimRight(m.Text, "\r\n"))
}

// Console writes each message as a line. Timestamps are dimmed when the
// writer is a terminal.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole renders to w, detecting colour support when w is a file.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	color := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &Console{w: w, color: color}
}

// Consume implements Consumer.
func (c *Console) Consume(_ context.Context, batch []Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	for _, m := range batch {
		line := FormatLine(m)
		if c.color {
			stamp, rest, _ := strings.Cut(line, " - ")
			line = ansiDim + stamp + ansiReset + " - " + rest
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

// Recorder keeps every delivered message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Consume implements Consumer.
func (r *Recorder) Consume(_ context.Context, batch []Message) error {
	r.mu.Lock()
	r.messages = append(r.messages, batch...)
	r.mu.Unlock()
	return nil
}

// Log implements Sink so a Recorder can stand in for a Queue directly.
func (r *Recorder) Log(message string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Text: message})
	r.mu.Unlock()
}

// Texts returns the recorded message bodies in delivery order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Text
	}
	return out
}

// Contains reports whether any recorded message contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, text := range r.Texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

// Tee fans each batch out to every consumer, returning the first error after
// all consumers have run.
func Tee(consumers ...Consumer) Consumer {
	return ConsumerFunc(func(ctx context.Context, batch []Message) error {
		var first error
		for _, c := range consumers {
			if c == nil {
				continue
			}
			if err := c.Consume(ctx, batch); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
