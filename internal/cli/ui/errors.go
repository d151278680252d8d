package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ CONFIGURATION ERROR [CFG103]
//	   package example.com/net: conflicting pins ../a and ../b
//
//	   → Show merged packages: foundry query packages
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Context)
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	// Tool output and the members of a clean failure
	if len(opts.Details) > 0 {
		b.WriteString("\n")
		for _, d := range opts.Details {
			for _, line := range strings.Split(strings.TrimRight(d, "\n"), "\n") {
				fmt.Fprintf(&b, "   %s\n", line)
			}
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// ErrorFor builds the message for an error returned by a foundry operation.
// The header names the error kind and code, and the phase and device when the
// error came out of a phase hook.
func ErrorFor(err error, noColor bool) ErrorOptions {
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Problem: err.Error(),
		NoColor: noColor,
	}

	var clean *ferrors.CleanError
	if errors.As(err, &clean) {
		opts.Context = "CLEAN FAILED"
		opts.Problem = fmt.Sprintf("%d devices could not be cleaned", len(clean.Errors()))
		for _, e := range clean.Errors() {
			opts.Details = append(opts.Details, e.Error())
		}
		opts.HelpCommands = []string{"Stop at the first failure: clean_policy: stop-on-first in foundry.yml"}
		return opts
	}

	var phase *ferrors.PhaseError
	where := ""
	if errors.As(err, &phase) {
		where = fmt.Sprintf(" (%s of %s)", phase.Phase, phase.Node)
		opts.Problem = phase.Err.Error()
	}

	var fe *ferrors.Error
	if errors.As(err, &fe) {
		opts.Context = kindTitle(fe.Kind)
		if fe.Code != "" {
			opts.Context += " [" + fe.Code + "]"
			opts.Problem = strings.TrimPrefix(opts.Problem, "["+fe.Code+"] ")
		}
		opts.Context += where
		if fe.Detail != "" {
			opts.Details = []string{fe.Detail}
		}
		switch fe.Kind {
		case ferrors.KindConfig:
			opts.HelpCommands = []string{
				"Show keys and packages: foundry query name; foundry query packages",
				"Get help: foundry --help",
			}
		case ferrors.KindExternalTool:
			opts.HelpCommands = []string{"Inspect the generated sources in the build directory"}
		}
		return opts
	}

	if where != "" {
		opts.Context = "PHASE FAILED" + where
	}
	return opts
}

func kindTitle(k ferrors.Kind) string {
	switch k {
	case ferrors.KindConfig:
		return "CONFIGURATION ERROR"
	case ferrors.KindIO:
		return "I/O ERROR"
	case ferrors.KindExternalTool:
		return "EXTERNAL TOOL FAILED"
	}
	return "ERROR"
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// Warning creates a standardized warning message
func Warning(message string, suggestions []string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	}
	return FormatError(opts)
}
