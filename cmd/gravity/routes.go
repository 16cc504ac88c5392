package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/pkg/manifest"
	"github.com/cooptacular/gravity/pkg/routing"
)

func routesCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON   bool
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the manifest's routes",
		Long: `List every route in declaration order, which is also match order.

With --validate, each route's pattern is checked against the path its
segments generate, which catches manifests edited by hand or produced by
mismatched build tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, m, err := g.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if validate {
				if err := m.Validate(); err != nil {
					return errors.New("G205").Wrap(err)
				}
			}

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(m.SerializeRoutes())
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ROUTE\tTYPE\tRENDER\tTARGET")
			for _, info := range m.Routes() {
				rd := info.RouteData
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rd.Route, rd.Type, renderMode(rd), routeTarget(rd))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if validate {
				success(w, "%d routes valid", len(m.Routes()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print routes in manifest form")
	cmd.Flags().BoolVar(&validate, "validate", false, "Check every pattern against its segments")

	return cmd
}

func renderMode(rd *manifest.RouteData) string {
	if rd.Prerender {
		return "static"
	}
	return "server"
}

func routeTarget(rd *manifest.RouteData) string {
	if rd.Type == routing.RouteTypeRedirect {
		switch {
		case rd.RedirectRoute != nil:
			return "→ " + rd.RedirectRoute.Route
		case rd.Redirect != nil:
			return "→ " + rd.Redirect.Destination
		}
	}
	return rd.Component
}
