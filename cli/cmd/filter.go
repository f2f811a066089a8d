package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/render"
	"github.com/justapithecus/peerdialog/filter"
)

// FilterCommand returns the filter command. With no arguments it lists the
// presets; otherwise it shows how each argument parses.
func FilterCommand() *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "List filter presets or describe filter specs",
		ArgsUsage: "[preset | name:ext1,ext2 ...]",
		Flags:     OutputFlags(),
		Action:    filterAction,
	}
}

// FilterResponse describes one filter.
type FilterResponse struct {
	Key              string `json:"key,omitempty" yaml:"key,omitempty"`
	Description      string `json:"description" yaml:"description"`
	DefaultExtension string `json:"default_extension" yaml:"default_extension"`
	Pattern          string `json:"pattern" yaml:"pattern"`
}

// FilterList is the rendered result of the filter command.
type FilterList []FilterResponse

// Lines implements render.Liner.
func (l FilterList) Lines() []string {
	out := make([]string, len(l))
	for i, f := range l {
		out[i] = f.Description
		if f.Key != "" {
			out[i] = f.Key + "\t" + f.Description
		}
	}
	return out
}

func describeFilter(key string, f *filter.Filter) FilterResponse {
	return FilterResponse{
		Key:              key,
		Description:      f.Description(),
		DefaultExtension: f.DefaultExtension(),
		Pattern:          f.Pattern(),
	}
}

func filterAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	var list FilterList
	if c.NArg() == 0 {
		for _, key := range filter.PresetNames() {
			f, _ := filter.Preset(key)
			list = append(list, describeFilter(key, f))
		}
		return r.Render(list)
	}

	filters, err := filter.ParseAll(c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	for _, f := range filters {
		list = append(list, describeFilter("", f))
	}
	return r.Render(list)
}
