// Package transcript accumulates final transcript lines for a session.
package transcript

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Line is one finalized transcript segment.
type Line struct {
	At         time.Time `json:"at"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
}

// Render formats the line the way the CLI prints it.
func (l Line) Render() string {
	return fmt.Sprintf("[%s] %s (Confidence: %.2f)", l.At.Format("15:04:05"), l.Text, l.Confidence)
}

// Builder collects final lines in arrival order. Safe for concurrent
// use; the result listener appends while the status server reads.
type Builder struct {
	mu    sync.RWMutex
	lines []Line
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Append records a finalized segment.
func (b *Builder) Append(at time.Time, text string, confidence float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, Line{At: at, Text: text, Confidence: confidence})
}

// Lines returns a copy of the collected lines.
func (b *Builder) Lines() []Line {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Line{}, b.lines...)
}

// Len returns the number of collected lines.
func (b *Builder) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Text returns the accumulated transcript as a single string, the
// running concatenation the original demos kept.
func (b *Builder) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}

// Render returns all lines in printed form, one per row.
func (b *Builder) Render() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(l.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Save writes the rendered transcript to a file.
func (b *Builder) Save(path string) error {
	return os.WriteFile(path, []byte(b.Render()), 0o644)
}
