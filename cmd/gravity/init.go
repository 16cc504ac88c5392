package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/config"
	"github.com/cooptacular/gravity/internal/errors"
)

func initCmd(g *globalFlags) *cobra.Command {
	var (
		clientDir string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a gravity.json with default settings",
		Long: `Write a gravity.json into dir (the current directory by default).

The defaults expect an Astro server build in dist/: the manifest at
dist/server/manifest.json and client files under dist/client. Use
--manifest to point at another file or an s3://bucket/key object.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.ConfigFileName)

			if config.Exists(dir) && !force {
				return errors.New("G106").
					WithDetail(path + " already exists.").
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New("G105").Wrap(err)
			}

			cfg := config.New()
			if g.manifest != "" {
				cfg.Manifest = g.manifest
			}
			if clientDir != "" {
				cfg.ClientDir = clientDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			success(w, "Created %s", path)
			info(w, "Manifest:   %s", cfg.Manifest)
			info(w, "Client dir: %s", cfg.ClientDir)
			info(w, "Run 'gravity routes' to check the manifest loads.")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientDir, "client-dir", "", "Directory holding the client build output")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing gravity.json")

	return cmd
}
