package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prototypyside/prototypyside/pkg/model"
)

// newInspectCmd creates the inspect command, which summarizes template
// files without rendering them.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [template...]",
		Short: "Summarize template files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, path := range args {
				if i > 0 {
					fmt.Println()
				}
				tpl, err := model.LoadTemplateFile(path)
				if err != nil {
					return err
				}
				switch t := tpl.(type) {
				case *model.ComponentTemplate:
					inspectComponent(path, t)
				case *model.LayoutTemplate:
					inspectLayout(path, t)
				}
			}
			return nil
		},
	}
}

func inspectComponent(path string, tpl *model.ComponentTemplate) {
	fmt.Println(StyleTitle.Render(tpl.Name()))
	printKeyValue("file", path)
	printKeyValue("pid", tpl.PID())
	printKeyValue("kind", "component template")
	printKeyValue("size", geometryString(tpl))
	printKeyValue("elements", strconv.Itoa(len(tpl.Elements())))
	if fields := tpl.BoundFields(); len(fields) > 0 {
		printKeyValue("bound", fmt.Sprintf("%v", fields))
	} else {
		printKeyValue("bound", "none (static)")
	}
	if tpl.CSVPath() != "" {
		printKeyValue("csv", tpl.CSVPath())
	}
	if tpl.Copies() > 1 {
		printKeyValue("copies", strconv.Itoa(tpl.Copies()))
	}

	for _, el := range tpl.Elements() {
		printDetail("%s %q z=%d", elementKind(el), el.Name(), el.Z())
	}
}

func inspectLayout(path string, tpl *model.LayoutTemplate) {
	fmt.Println(StyleTitle.Render(tpl.Name()))
	printKeyValue("file", path)
	printKeyValue("pid", tpl.PID())
	printKeyValue("kind", "layout template")
	printKeyValue("page", tpl.PageSizeName())
	printKeyValue("grid", fmt.Sprintf("%d×%d", tpl.Rows(), tpl.Cols()))
	printKeyValue("policy", tpl.Policy())

	for _, slot := range tpl.Slots() {
		ref := slot.TemplateRef()
		if ref == "" {
			ref = "unassigned"
		}
		printDetail("slot %d,%d %s", slot.Row(), slot.Col(), ref)
	}
}

func geometryString(tpl *model.ComponentTemplate) string {
	g := tpl.Geometry()
	return fmt.Sprintf("%s × %s", g.Width(), g.Height())
}

func elementKind(el model.Element) string {
	switch el.(type) {
	case *model.TextElement:
		return "text"
	case *model.ImageElement:
		return "image"
	case *model.VectorElement:
		return "vector"
	}
	return "element"
}
