// Package debug is the leveled console logger shared by the CLI and the
// control loop.
package debug

import (
	"io"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Command summaries, run ids
	LevelLive    = 2 // Per-command progress
	LevelVerbose = 3 // Controller setup, stage lists, results
	LevelTrace   = 4 // Every control tick
)

var (
	level  int
	logger *log.Logger

	infoTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Render("[INFO]")
	liveTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("[LIVE]")
	verboseTag = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render("[VERBOSE]")
	traceTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("[TRACE]")
	errorTag   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render("[ERROR]")
)

// Init sets the level (0-4) and writes to stderr.
func Init(debugLevel int) {
	level = debugLevel
	SetOutput(os.Stderr)
}

// SetOutput redirects log output, e.g. to a buffer in tests.
func SetOutput(w io.Writer) {
	if level > LevelOff {
		logger = log.New(w, "[drivectl] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		logger = nil
	}
}

func Level() int {
	return level
}

// IsEnabled reports whether messages at minLevel are printed.
func IsEnabled(minLevel int) bool {
	return level >= minLevel && logger != nil
}

func Info(format string, args ...any) {
	if IsEnabled(LevelInfo) {
		logger.Printf(infoTag+" "+format, args...)
	}
}

func Live(format string, args ...any) {
	if IsEnabled(LevelLive) {
		logger.Printf(liveTag+" "+format, args...)
	}
}

func Verbose(format string, args ...any) {
	if IsEnabled(LevelVerbose) {
		logger.Printf(verboseTag+" "+format, args...)
	}
}

func Trace(format string, args ...any) {
	if IsEnabled(LevelTrace) {
		logger.Printf(traceTag+" "+format, args...)
	}
}

// Section prints a separator with a title (level 3).
func Section(name string) {
	if IsEnabled(LevelVerbose) {
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Printf("  %s", name)
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Value prints a named value (level 1).
func Value(name string, value any) {
	if IsEnabled(LevelInfo) {
		logger.Printf("%s   %s = %v", infoTag, name, value)
	}
}

// Error prints an error (level 1+).
func Error(err error) {
	if IsEnabled(LevelInfo) {
		logger.Printf("%s %v", errorTag, err)
	}
}
