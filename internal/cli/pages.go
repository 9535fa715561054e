package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/prototypyside/prototypyside/pkg/config"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// newPagesCmd creates the pages command, a dry run of pagination that
// prints which instance lands in which slot without rendering anything.
func newPagesCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "pages [template...]",
		Short: "Preview how a layout paginates its datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := config.LoadDefault()
			if err != nil {
				return err
			}
			p, err := loadProject(logger, args, csvPath)
			if err != nil {
				return err
			}

			for _, layout := range p.layouts {
				mgr, err := p.manager(layout, cfg.LockAt)
				if err != nil {
					return err
				}
				count, err := mgr.PageCount()
				if err != nil {
					return err
				}

				fmt.Println(StyleTitle.Render(fmt.Sprintf("%s — %d page(s), %s policy",
					layout.Name(), count, layout.Policy())))

				var rows [][]string
				for i := 0; i < count; i++ {
					page, err := mgr.GetPage(i)
					if err != nil {
						return err
					}
					for _, pl := range page.Placements {
						rows = append(rows, []string{
							strconv.Itoa(i + 1),
							fmt.Sprintf("%d,%d", pl.Slot.Row(), pl.Slot.Col()),
							slotTemplateName(pl.Slot),
							placementSummary(pl.Instance),
						})
					}
				}

				headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
				t := table.New().
					Border(lipgloss.RoundedBorder()).
					BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
					Headers("Page", "Slot", "Template", "Content").
					Rows(rows...).
					StyleFunc(func(row, col int) lipgloss.Style {
						if row == -1 {
							return headerStyle
						}
						return lipgloss.NewStyle()
					})
				fmt.Println(t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file overriding the templates' datasets")
	return cmd
}

func slotTemplateName(slot *model.LayoutSlot) string {
	if tpl := slot.Template(); tpl != nil {
		return tpl.Name()
	}
	return "—"
}

// placementSummary condenses an instance to its bound field values, or a
// marker for static and empty slots.
func placementSummary(inst *model.ComponentInstance) string {
	if inst == nil {
		return "—"
	}
	if len(inst.Row()) == 0 {
		return "static"
	}
	summary := ""
	for _, el := range inst.Elements() {
		if !el.IsBound() || el.Content() == "" {
			continue
		}
		if summary != "" {
			summary += ", "
		}
		summary += el.Content()
		if r := []rune(summary); len(r) > 40 {
			return string(r[:40]) + "…"
		}
	}
	if summary == "" {
		return "(empty row)"
	}
	return summary
}
