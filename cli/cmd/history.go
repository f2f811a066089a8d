package cmd

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/adapter"
	"github.com/justapithecus/peerdialog/cli/config"
	"github.com/justapithecus/peerdialog/cli/render"
	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/lode"
)

// HistoryCommand returns the history command, which lists journaled dialogs.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent dialogs from the journal",
		Flags: append(OutputFlags(),
			ConfigFlag,
			JournalFlag,
			&cli.StringFlag{
				Name:  "app",
				Usage: "Only dialogs shown for this app name",
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only dialogs with this outcome: selected, canceled, failed",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Only dialogs of this mode: openfile, openfiles, savefile, pickdir",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: 20,
				Usage: "Maximum number of entries (0 for all)",
			},
		),
		Action: historyAction,
	}
}

// HistoryEntry is one journaled dialog.
type HistoryEntry struct {
	Time     string   `json:"ts" yaml:"ts"`
	App      string   `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Mode     string   `json:"mode" yaml:"mode"`
	Outcome  string   `json:"outcome" yaml:"outcome"`
	Paths    []string `json:"paths" yaml:"paths"`
	Fallback bool     `json:"fallback" yaml:"fallback"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// HistoryList is the rendered result of the history command.
type HistoryList []HistoryEntry

// Lines implements render.Liner.
func (l HistoryList) Lines() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = strings.Join([]string{e.Time, e.Outcome, e.Mode, strings.Join(e.Paths, " ")}, "\t")
	}
	return out
}

func historyAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outcome := c.String("outcome")
	switch outcome {
	case "", adapter.OutcomeSelected, adapter.OutcomeCanceled, adapter.OutcomeFailed:
	default:
		return cli.Exit("--outcome must be selected, canceled or failed", exitUsage)
	}
	if c.Int("limit") < 0 {
		return cli.Exit("--limit must be >= 0", exitUsage)
	}

	sc := cfg.Journal
	sc.Path = resolveString(c, "journal", sc.Path)
	if sc.Path == "" {
		return cli.Exit("history: no journal configured (--journal or journal.path)", exitUsage)
	}
	j, err := openJournal(c.Context, sc)
	if err != nil {
		return cli.Exit("history: "+err.Error(), exitUsage)
	}
	defer iox.DiscardClose(j)

	events, err := j.Recent(c.Context, lode.Query{
		App:     c.String("app"),
		Outcome: outcome,
		Mode:    c.String("mode"),
		Limit:   c.Int("limit"),
	})
	if err != nil {
		return cli.Exit("history: "+err.Error(), 1)
	}

	list := make(HistoryList, 0, len(events))
	for _, e := range events {
		list = append(list, HistoryEntry{
			Time:     e.Timestamp,
			App:      e.AppName,
			Mode:     e.Mode,
			Outcome:  e.Outcome,
			Paths:    e.Paths,
			Fallback: e.Fallback,
			Error:    e.Error,
		})
	}
	return r.Render(list)
}

// openJournal opens the journal in the store sc names.
func openJournal(ctx context.Context, sc config.StoreConfig) (*lode.Journal, error) {
	factory, err := lode.NewStoreFactory(ctx, lode.StoreConfig{
		Backend:      sc.Backend,
		Path:         sc.Path,
		Region:       sc.Region,
		Endpoint:     sc.Endpoint,
		UsePathStyle: sc.S3PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return lode.NewJournal(factory)
}
