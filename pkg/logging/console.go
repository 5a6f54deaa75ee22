package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Verbosity controls how much a Console prints.
type Verbosity int

const (
	// VerbosityQuiet shows only warnings, errors and the final status line
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows run progress (default)
	VerbosityNormal
	// VerbosityVerbose adds per-entry details
	VerbosityVerbose
	// VerbosityDebug adds internal details
	VerbosityDebug
)

// ParseVerbosity maps a config value to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return VerbosityQuiet, nil
	case "", "normal":
		return VerbosityNormal, nil
	case "verbose":
		return VerbosityVerbose, nil
	case "debug":
		return VerbosityDebug, nil
	default:
		return VerbosityNormal, fmt.Errorf("invalid verbosity %q", s)
	}
}

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	amber      = lipgloss.Color("#FCD34D")
	mutedGray  = lipgloss.Color("#6B7280")
	coralRed   = lipgloss.Color("#F87171")
)

type consoleStyles struct {
	header  lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	detail  lipgloss.Style
	label   lipgloss.Style
}

// Console prints user-facing progress for a sync run. Colors are used only
// when the writer is a terminal.
type Console struct {
	level  Verbosity
	writer io.Writer
	styles consoleStyles
}

func NewConsole(w io.Writer, level Verbosity) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		level:  level,
		writer: w,
		styles: consoleStyles{
			header:  r.NewStyle().Foreground(salmonPink).Bold(true),
			success: r.NewStyle().Foreground(mintGreen).Bold(true),
			info:    r.NewStyle().Foreground(salmonPink),
			warn:    r.NewStyle().Foreground(amber),
			err:     r.NewStyle().Foreground(coralRed).Bold(true),
			detail:  r.NewStyle().Foreground(mutedGray),
			label:   r.NewStyle().Foreground(mutedGray).Bold(true),
		},
	}
}

// Level returns the console verbosity.
func (c *Console) Level() Verbosity { return c.level }

func (c *Console) println(style lipgloss.Style, s string) {
	fmt.Fprintln(c.writer, style.Render(s))
}

// Header prints a title line
func (c *Console) Header(message string) {
	if c.level >= VerbosityNormal {
		c.println(c.styles.header, "▶ "+message)
	}
}

// Successf prints a success line. It is shown even in quiet mode.
func (c *Console) Successf(format string, args ...interface{}) {
	c.println(c.styles.success, "✓ "+fmt.Sprintf(format, args...))
}

// Infof prints a progress line
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= VerbosityNormal {
		c.println(c.styles.info, fmt.Sprintf(format, args...))
	}
}

// Warningf prints a warning line
func (c *Console) Warningf(format string, args ...interface{}) {
	c.println(c.styles.warn, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error line
func (c *Console) Errorf(format string, args ...interface{}) {
	c.println(c.styles.err, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detail shown from verbose level up
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= VerbosityVerbose {
		c.println(c.styles.detail, "→ "+fmt.Sprintf(format, args...))
	}
}

// Debugf prints internals shown only at debug level
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level >= VerbosityDebug {
		c.println(c.styles.detail, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

// Field prints an indented "label: value" pair
func (c *Console) Field(label string, value interface{}) {
	if c.level >= VerbosityNormal {
		fmt.Fprintf(c.writer, "  %s %v\n", c.styles.label.Render(label+":"), value)
	}
}
