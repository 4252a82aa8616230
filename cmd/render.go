package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/tokentip/internal/limiter"
	"github.com/oakwood-commons/tokentip/pkg/host"
	"github.com/oakwood-commons/tokentip/pkg/layout"
	"github.com/oakwood-commons/tokentip/pkg/render"
	"github.com/oakwood-commons/tokentip/pkg/settings"
	"github.com/oakwood-commons/tokentip/pkg/tooltip"
)

const (
	formatText = "text"
	formatHTML = "html"
)

var (
	renderFormat string
	renderWidth  int
	renderConfig string
	renderWindow limiter.Config
)

var renderCmd = &cobra.Command{
	Use:   "render SCENE [TOKEN...]",
	Short: "Preview tooltips for tokens in a scene fixture",
	Long: `Render hovers each token (all tokens when none are named) and prints the
tooltip the viewing user would see, or why none is shown.`,
	Example: `  tokentip render scene.yaml t-goblin
  tokentip render scene.yaml --format html --config tooltip-config.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch renderFormat {
		case formatText, formatHTML:
		default:
			return fmt.Errorf("invalid --format %q (expected %s or %s)", renderFormat, formatText, formatHTML)
		}
		if err := renderWindow.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		run := runFrom(cmd)
		b, err := openBoard(ctx, run, args[0])
		if err != nil {
			return err
		}
		defer b.close()

		if renderConfig != "" {
			if err := importConfig(ctx, b, renderConfig); err != nil {
				return err
			}
		}

		ids := args[1:]
		if len(ids) == 0 {
			ids = b.scene.TokenIDs()
		}
		ids = limiter.Apply(renderWindow, ids)
		text := render.TextRenderer{Width: renderWidth, NoColor: run.NoColor}
		for _, id := range ids {
			if err := renderToken(ctx, cmd.OutOrStdout(), b, text, id); err != nil {
				return err
			}
		}
		return nil
	},
}

func renderToken(ctx context.Context, w io.Writer, b *board, text render.TextRenderer, id string) error {
	tok := b.scene.Token(id)
	if tok == nil {
		return fmt.Errorf("token %q is not in the scene", id)
	}
	toggles, err := b.app.Settings().Toggles(ctx)
	if err != nil {
		return err
	}
	if reason := b.app.Session().Guard(tok, toggles); reason != tooltip.ReasonNone {
		_, err := fmt.Fprintf(w, "%s: no tooltip (%s)\n", id, reason)
		return err
	}
	if err := b.app.HoverToken(ctx, tok, true); err != nil {
		return err
	}
	defer b.app.HoverToken(ctx, tok, false) //nolint:errcheck

	if renderFormat == formatHTML {
		markup, _ := b.doc.Element(tooltip.ElementID)
		_, err := fmt.Fprintln(w, markup)
		return err
	}
	out, err := textPreview(ctx, b, text, tok)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	return err
}

// textPreview renders the same content the session wrote, through the
// terminal renderer.
func textPreview(ctx context.Context, b *board, text render.TextRenderer, tok *host.Token) (string, error) {
	cfg, err := layout.Load(ctx, b.app.Settings())
	if err != nil {
		return "", err
	}
	pills, rows, err := tooltip.Content(ctx, cfg, tok, b.app.Env())
	if err != nil {
		return "", err
	}
	x, y := tooltip.Position(tok)
	return text.Render(ctx, render.Data{
		ID:          tooltip.ElementID,
		ModuleID:    settings.ModuleID,
		ActiveClass: tooltip.ActiveClass,
		PosX:        x,
		PosY:        y,
		Header:      tok.Name(),
		Pills:       pills,
		Rows:        rows,
		ColumnCount: cfg.Columns,
	})
}

func init() { //nolint:gochecknoinits
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", formatText, "output format: text|html")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "panel width for text output (default: terminal width)")
	renderCmd.Flags().StringVarP(&renderConfig, "config", "c", "", "tooltip configuration file to apply before rendering")
	renderCmd.Flags().IntVar(&renderWindow.Limit, "limit", 0, "render at most N tokens")
	renderCmd.Flags().IntVar(&renderWindow.Offset, "offset", 0, "skip the first N tokens")
	renderCmd.Flags().IntVar(&renderWindow.Tail, "tail", 0, "render only the last N tokens (exclusive with --limit)")
}
