package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/config"
	"github.com/justapithecus/peerdialog/cli/render"
	"github.com/justapithecus/peerdialog/install"
	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/lode"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
)

// InstallCommand returns the install command. It extracts the peer assets
// ahead of the first dialog and reports where the peer resolves to.
func InstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install the peer program from its asset manifest",
		Flags: append(OutputFlags(),
			ConfigFlag,
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Path to the asset manifest (YAML)",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Base directory for installed assets",
			},
			&cli.StringFlag{
				Name:  "source-backend",
				Usage: "Asset store backend: fs or s3",
			},
			&cli.StringFlag{
				Name:  "source-path",
				Usage: "Asset store path (fs: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "source-region",
				Usage: "AWS region for the s3 backend",
			},
			&cli.StringFlag{
				Name:  "source-endpoint",
				Usage: "Custom S3 endpoint (MinIO, R2)",
			},
			&cli.BoolFlag{
				Name:  "source-path-style",
				Usage: "Force S3 path-style addressing",
			},
		),
		Action: installAction,
	}
}

// InstallResponse is the rendered result of the install command.
type InstallResponse struct {
	Peer   string          `json:"peer" yaml:"peer"`
	Dir    string          `json:"dir,omitempty" yaml:"dir,omitempty"`
	Assets []InstalledFile `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// InstalledFile is one installed asset.
type InstalledFile struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Lines implements render.Liner.
func (r InstallResponse) Lines() []string { return []string{r.Peer} }

func installAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ic := cfg.Install
	ic.Manifest = resolveString(c, "manifest", ic.Manifest)
	ic.CacheDir = resolveString(c, "cache-dir", ic.CacheDir)
	ic.Source.Backend = resolveString(c, "source-backend", ic.Source.Backend)
	ic.Source.Path = resolveString(c, "source-path", ic.Source.Path)
	ic.Source.Region = resolveString(c, "source-region", ic.Source.Region)
	ic.Source.Endpoint = resolveString(c, "source-endpoint", ic.Source.Endpoint)
	ic.Source.S3PathStyle = resolveBool(c, "source-path-style", ic.Source.S3PathStyle)
	if ic.Manifest == "" {
		return cli.Exit("install: no manifest configured (--manifest or install.manifest)", exitUsage)
	}

	logger := log.NewLogger(log.Meta{App: cfg.AppName, TraceLevel: 1}).WithOutput(c.App.ErrWriter)
	defer iox.DiscardErr(logger.Sync)

	installer, err := newInstaller(c.Context, ic, logger, nil)
	if err != nil {
		return err
	}
	paths, err := installer.Ensure(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("install: %v", err), 1)
	}
	logger.Sugar().Infof("installed %d assets into %s", len(paths), installer.Dir())

	resolver := &install.Resolver{Path: cfg.Peer.Path, Installer: installer}
	peerPath, err := resolver.Resolve(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("install: %v", err), 1)
	}

	resp := InstallResponse{Peer: peerPath, Dir: installer.Dir()}
	for name, p := range paths {
		resp.Assets = append(resp.Assets, InstalledFile{Name: name, Path: p})
	}
	sort.Slice(resp.Assets, func(i, j int) bool { return resp.Assets[i].Name < resp.Assets[j].Name })
	return r.Render(resp)
}

// buildResolver locates the peer: an explicit path, else the manifest
// installer when configured, else a sibling or $PATH lookup.
func buildResolver(ctx context.Context, peerPath string, ic config.InstallConfig, logger *log.Logger, collector *metrics.Collector) (*install.Resolver, error) {
	r := &install.Resolver{Path: peerPath}
	if peerPath != "" || ic.Manifest == "" {
		return r, nil
	}
	installer, err := newInstaller(ctx, ic, logger, collector)
	if err != nil {
		return nil, err
	}
	r.Installer = installer
	return r, nil
}

// newInstaller loads the manifest and its asset store. The store defaults
// to the manifest's directory on the local filesystem.
func newInstaller(ctx context.Context, ic config.InstallConfig, logger *log.Logger, collector *metrics.Collector) (*install.Installer, error) {
	manifest, err := install.LoadManifest(ic.Manifest)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("install: %v", err), exitUsage)
	}

	src := lode.StoreConfig{
		Backend:      ic.Source.Backend,
		Path:         ic.Source.Path,
		Region:       ic.Source.Region,
		Endpoint:     ic.Source.Endpoint,
		UsePathStyle: ic.Source.S3PathStyle,
	}
	if src.Path == "" && (src.Backend == "" || src.Backend == lode.BackendFS) {
		src.Path = filepath.Dir(ic.Manifest)
	}
	factory, err := lode.NewStoreFactory(ctx, src)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("install: %v", err), exitUsage)
	}

	opts := []install.Option{install.WithLogger(logger), install.WithMetrics(collector)}
	if ic.CacheDir != "" {
		opts = append(opts, install.WithCacheDir(ic.CacheDir))
	}
	return install.NewInstaller(manifest, factory, opts...), nil
}
