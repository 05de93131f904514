// Package output provides terminal output and logging for jaspr.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	tipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Splog provides structured logging and output
type Splog struct {
	writer  io.Writer
	debug   io.Writer
	color   bool
	verbose bool
}

// NewSplog creates a new splog instance writing to stdout. Color is enabled
// only for terminals that support it.
func NewSplog() *Splog {
	color := isatty.IsTerminal(os.Stdout.Fd()) &&
		termenv.NewOutput(os.Stdout).Profile != termenv.Ascii
	return &Splog{writer: os.Stdout, color: color}
}

// NewTestSplog creates a splog instance writing to the given writer with
// color disabled, for use in tests.
func NewTestSplog(w io.Writer) *Splog {
	return &Splog{writer: w, debug: io.Discard}
}

// EnableVerbose turns on debug output, mirrored to a rotating log file.
func (s *Splog) EnableVerbose(logPath string) {
	s.verbose = true
	s.debug = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}
}

// Info writes an info message
func (s *Splog) Info(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Line writes a preformatted line without styling
func (s *Splog) Line(line string) {
	fmt.Fprintln(s.writer, line)
}

// Newline writes a newline
func (s *Splog) Newline() {
	fmt.Fprintln(s.writer)
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...interface{}) {
	s.styled(warnStyle, "⚠️  "+format, args...)
}

// Error writes an error message
func (s *Splog) Error(format string, args ...interface{}) {
	s.styled(errStyle, "❌ "+format, args...)
}

// Tip writes a tip message
func (s *Splog) Tip(format string, args ...interface{}) {
	s.styled(tipStyle, "💡 "+format, args...)
}

// Debug writes a debug message, shown on the terminal and mirrored to the
// log file only in verbose mode.
func (s *Splog) Debug(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	fmt.Fprintf(s.writer, format+"\n", args...)
	if s.debug != nil {
		fmt.Fprintf(s.debug, format+"\n", args...)
	}
}

func (s *Splog) styled(style lipgloss.Style, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.color {
		msg = style.Render(msg)
	}
	fmt.Fprintln(s.writer, msg)
}
