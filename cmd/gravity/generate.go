package main

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cooptacular/gravity/internal/errors"
	"github.com/cooptacular/gravity/pkg/manifest"
	"github.com/cooptacular/gravity/pkg/routing"
)

func generateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <route> [name=value...]",
		Short: "Build a concrete path from a route template",
		Long: `Build a concrete path for a route template using its compiled generator.

Parameter values are normalized to NFC and '#' and '?' are escaped.
Spread parameters may contain slashes and may be omitted.

Examples:
  gravity generate /categories/[category] category=travel
  gravity generate '/blog/[...slug]' slug=2024/hello-world`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			_, _, m, err := g.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			path, err := m.Generate(args[0], params)
			switch {
			case err == nil:
			case stderrors.Is(err, manifest.ErrRouteNotFound):
				return errors.New("G206").Wrap(err).
					WithSuggestion("Run 'gravity routes' to list the available templates")
			case stderrors.Is(err, routing.ErrMissingParameter):
				return errors.New("G207").Wrap(err).
					WithSuggestion("Pass every named parameter as name=value")
			default:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	return cmd
}

// parseParams turns name=value arguments into generator params.
func parseParams(args []string) (routing.Params, error) {
	params := make(routing.Params, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimPrefix(name, routing.SpreadPrefix)
		if !ok || name == "" {
			return nil, errors.New("G301").
				WithDetail(fmt.Sprintf("Parameter %q is not of the form name=value.", arg))
		}
		params[name] = value
	}
	return params, nil
}
