package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/render"
	"github.com/justapithecus/peerdialog/types"
)

// VersionResponse is the response for the version command.
// The controller and the peer share one version.
type VersionResponse struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
	Commit   string `json:"commit"`
}

// Lines implements render.Liner.
func (v VersionResponse) Lines() []string { return []string{v.Version} }

// VersionCommand returns the version command. It must not start the peer.
func VersionCommand(_, commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  OutputFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		return r.Render(VersionResponse{
			Version:  types.Version,
			Protocol: types.ProtocolVersion,
			Commit:   commit,
		})
	}
}
