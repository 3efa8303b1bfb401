package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/askdata/internal"
	"github.com/iksnae/askdata/internal/export"
)

// clientSession bundles everything a command needs to talk to the backend
type clientSession struct {
	client *internal.Client
	orch   *internal.Orchestrator
	charts *internal.ChartFetcher
}

func newClientSession() (*clientSession, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	client, err := cfg.NewClient()
	if err != nil {
		return nil, err
	}
	charts, err := internal.NewChartFetcher(client.BaseURL(), client, internal.DefaultChartCacheSize)
	if err != nil {
		return nil, err
	}
	return &clientSession{
		client: client,
		orch:   internal.NewOrchestrator(client),
		charts: charts,
	}, nil
}

// upload validates and sends path, rendering the dataset on success. Errors
// are rendered inline and returned marked as reported so callers can decide
// whether to stop without printing them again.
func (s *clientSession) upload(ctx context.Context, out, errOut io.Writer, path string) (*internal.DatasetSession, error) {
	h, err := internal.OpenLocalFile(path)
	if err != nil {
		internal.PrintError(errOut, err.Error())
		return nil, &reportedError{err: err}
	}

	var ds *internal.DatasetSession
	err = internal.ShowProgress(ctx, fmt.Sprintf("Uploading %s", h.Name()), func(ctx context.Context) error {
		var uerr error
		ds, uerr = s.orch.Upload(ctx, h)
		return uerr
	})
	if err != nil {
		internal.PrintError(errOut, internal.UserMessage(err))
		return nil, &reportedError{err: err}
	}

	renderDataset(out, ds)
	return ds, nil
}

// ask dispatches one question and renders the resulting pair of entries
func (s *clientSession) ask(ctx context.Context, out io.Writer, question string) (internal.MessageEntry, error) {
	var entry internal.MessageEntry
	err := internal.ShowProgress(ctx, "Thinking…", func(ctx context.Context) error {
		var aerr error
		entry, aerr = s.orch.Ask(ctx, question)
		return aerr
	})
	if err != nil {
		return entry, err
	}
	s.renderLastExchange(out)
	return entry, nil
}

// renderLastExchange prints the final user/bot pair of the conversation
func (s *clientSession) renderLastExchange(out io.Writer) {
	msgs := s.orch.Messages()
	start := len(msgs) - 2
	if start < 0 {
		start = 0
	}
	for i := start; i < len(msgs); i++ {
		renderEntry(out, i+1, len(msgs), msgs[i], chartResolver(s.client.BaseURL()))
	}
}

// saveCharts downloads the charts of every bot entry into dir
func (s *clientSession) saveCharts(ctx context.Context, out io.Writer, dir string) error {
	var firstErr error
	for i, m := range s.orch.Messages() {
		if len(m.Charts) == 0 {
			continue
		}
		saved, err := s.charts.SaveAll(ctx, m, dir, fmt.Sprintf("message-%d-chart", i+1))
		for _, p := range saved {
			internal.PrintSuccess(out, "Saved "+p)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// exportTo writes the current transcript to path, inferring the format
func (s *clientSession) exportTo(ctx context.Context, out io.Writer, path, format string) error {
	t := s.orch.Transcript()
	if err := export.ToFile(ctx, t, strings.ToLower(format), path); err != nil {
		return err
	}
	internal.PrintSuccess(out, fmt.Sprintf("Exported %d message(s) to %s", len(t.Messages), path))
	return nil
}
