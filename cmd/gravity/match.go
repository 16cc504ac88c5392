package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/pkg/routepath"
)

// matchResult is the --json form of a match.
type matchResult struct {
	Path      string            `json:"path"`
	Route     string            `json:"route"`
	Type      string            `json:"type"`
	Component string            `json:"component,omitempty"`
	Prerender bool              `json:"prerender"`
	Params    map[string]string `json:"params"`
}

func matchCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Resolve a request path to its route",
		Long: `Resolve a request path the way the server does: canonicalize it under
the manifest's trailing-slash policy, percent-decode it, and return the
first route whose pattern matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, m, err := g.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			canon, err := routepath.Canonicalize(args[0], m.TrailingSlash())
			if err != nil {
				return errors.New("G301").Wrap(err).WithDetail(fmt.Sprintf("Path %q cannot be canonicalized.", args[0]))
			}
			path, err := routepath.Decode(canon.Path)
			if err != nil {
				return errors.New("G301").Wrap(err)
			}

			match, ok := m.Match(path)
			if !ok {
				return errors.New("G208").WithDetail(fmt.Sprintf("No route pattern matches %q.", path))
			}

			res := matchResult{
				Path:      path,
				Route:     match.Route.Route,
				Type:      string(match.Route.Type),
				Component: match.Route.Component,
				Prerender: match.Route.Prerender,
				Params:    match.Params,
			}
			if res.Params == nil {
				res.Params = map[string]string{}
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if canon.Changed {
				warn(w, "canonical path is %s", canon.Path)
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "route\t%s\n", res.Route)
			fmt.Fprintf(tw, "type\t%s\n", res.Type)
			if res.Component != "" {
				fmt.Fprintf(tw, "component\t%s\n", res.Component)
			}
			fmt.Fprintf(tw, "render\t%s\n", renderMode(match.Route))
			names := make([]string, 0, len(res.Params))
			for name := range res.Params {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(tw, "param\t%s=%s\n", name, res.Params[name])
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")

	return cmd
}
