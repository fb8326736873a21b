// Package term is the terminal front end: a notes.Prompt reading answers
// from a line-oriented reader, a notes.Navigator that logs route changes,
// and colored list formatting.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/notes"
)

var (
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

// Prompt asks yes/no questions on out and reads answers from in.
type Prompt struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

var _ notes.Prompt = (*Prompt)(nil)

// NewPrompt creates a prompt over the given streams.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm prints message with a [y/N] suffix. Only "y" or "yes" confirm.
func (p *Prompt) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s %s ", message, faint("[y/N]"))
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Alert prints a red error line.
func (p *Prompt) Alert(_ context.Context, title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, Error(title+": "+message))
}

// Navigator logs navigation requests; the terminal has a single screen.
type Navigator struct {
	Logger *slog.Logger
}

var _ notes.Navigator = Navigator{}

func (n Navigator) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n Navigator) GoBack(context.Context) error {
	n.logger().Debug("navigate back")
	return nil
}

func (n Navigator) GoTo(_ context.Context, route string, params map[string]string) error {
	attrs := []any{slog.String("route", route)}
	for k, v := range params {
		attrs = append(attrs, slog.String(k, v))
	}
	n.logger().Debug("navigate", attrs...)
	return nil
}

// FormatNote renders one list entry.
func FormatNote(n models.Note) string {
	var sb strings.Builder
	id := n.ID
	if len(id) > 8 {
		id = id[:8]
	}
	sb.WriteString(fmt.Sprintf("  %s  %s\n", faint(id), bold(n.Description)))
	sb.WriteString(fmt.Sprintf("            %s %s\n", faint("Date:"), faint(n.Date.Local().Format("2006-01-02 15:04"))))
	if n.PhotoURL != "" {
		sb.WriteString(fmt.Sprintf("            %s %s\n", faint("Photo:"), cyan(n.PhotoURL)))
	}
	if n.AudioURL != "" {
		sb.WriteString(fmt.Sprintf("            %s %s\n", faint("Audio:"), cyan(n.AudioURL)))
	}
	return sb.String()
}

// FormatList renders a whole list, or a placeholder when it is empty.
func FormatList(list []models.Note) string {
	if len(list) == 0 {
		return faint("  (no notes)") + "\n"
	}
	var sb strings.Builder
	for _, n := range list {
		sb.WriteString(FormatNote(n))
	}
	return sb.String()
}

// Success prefixes msg with a green check mark.
func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

// Error prefixes msg with a red cross.
func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}
