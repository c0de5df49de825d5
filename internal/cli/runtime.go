package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/briandowns/spinner"
	"github.com/mitchellh/go-homedir"

	"github.com/crimson-sun/preflight/internal/connector"
	"github.com/crimson-sun/preflight/internal/credential"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
	"github.com/crimson-sun/preflight/internal/output/console"
	"github.com/crimson-sun/preflight/internal/output/file"
	"github.com/crimson-sun/preflight/internal/output/multi"
	"github.com/crimson-sun/preflight/internal/output/stdout"
	"github.com/crimson-sun/preflight/internal/output/webhook"
)

var hintStyle = lipgloss.NewStyle().Faint(true)

// connectors builds every registered connector with the configured timeout.
func (a *app) connectors() map[model.Service]connector.Connector {
	return connector.Build(connector.Options{
		Timeout: a.cfg.HTTP.Timeout,
		Logger:  a.logger,
	})
}

func (a *app) resolver() *credential.Resolver {
	return credential.NewResolver(a.cfg)
}

// newOutput returns the report sink for the configured format, fanned out
// to the history file and webhook when configured. Structured formats go to
// stdout; unless quiet, the console rendering is echoed to stderr next to
// them.
func (a *app) newOutput() (output.Output, error) {
	var sinks []output.Output
	if a.cfg.Output.Format == "console" {
		if a.flags.jq != "" {
			return nil, usageError{errors.New("--jq requires json or yaml output")}
		}
		sinks = append(sinks, console.New(a.stdout))
	} else {
		structured, err := stdout.New(a.stdout, stdout.Format(a.cfg.Output.Format), a.flags.jq)
		if err != nil {
			return nil, usageError{err}
		}
		sinks = append(sinks, structured)
		if !a.flags.quiet {
			sinks = append(sinks, console.New(a.stderr))
		}
	}

	if path := a.cfg.Output.HistoryFile; path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, usageError{err}
		}
		history, err := file.New(expanded, file.WithMaxSize(a.cfg.Output.HistoryMaxSize))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, history)
	}
	if a.cfg.Output.WebhookURL != "" {
		sinks = append(sinks, webhook.New(a.cfg.Output.WebhookURL,
			webhook.WithHeaders(a.cfg.Output.WebhookHeaders),
			webhook.WithTimeout(a.cfg.HTTP.Timeout),
			webhook.WithLogger(a.logger),
		))
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return multi.New(sinks...), nil
}

// closeOutput closes out and joins a close failure into *err. Buffered sinks
// only report write errors here.
func closeOutput(out output.Output, err *error) {
	if cerr := out.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("close output: %w", cerr))
	}
}

// spin starts a progress spinner on an interactive stderr and returns the
// function that stops it.
func (a *app) spin(suffix string) (stop func()) {
	f, ok := a.stderr.(*os.File)
	if a.flags.quiet || !ok {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

// hint prints closing guidance below a console report.
func (a *app) hint(lines ...string) {
	if a.flags.quiet || a.cfg.Output.Format != "console" {
		return
	}
	for _, line := range lines {
		lipgloss.Fprintln(a.stdout, hintStyle.Render(line))
	}
}
