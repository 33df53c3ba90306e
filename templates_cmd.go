package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/templates"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the notification template table",
	}

	var locale string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate every template and print a preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime()
			if err != nil {
				return err
			}
			tmpl, err := loadTemplates(cfg)
			if err != nil {
				return err
			}
			if err := tmpl.Check(models.AllTypes); err != nil {
				return err
			}

			locales := tmpl.Locales()
			if locale != "" {
				locales = []string{locale}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "templates v%d, locales %v\n", models.TypesVersion, tmpl.Locales())
			for _, loc := range locales {
				fmt.Fprintf(out, "\n[%s]\n", loc)
				for _, typ := range models.AllTypes {
					msg, err := tmpl.Render(typ, loc, templates.Preview())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%-50s %s\n", typ, msg)
				}
			}
			return nil
		},
	}
	check.Flags().StringVar(&locale, "locale", "", "only preview this locale")

	cmd.AddCommand(check)
	return cmd
}
