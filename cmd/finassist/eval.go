package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loft/finassist/evaluation"
)

func newEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the routing and data-collection evaluation suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("cases")

			cases := evaluation.DefaultCases()
			if path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				cases, err = evaluation.LoadCases(f)
				_ = f.Close()
				if err != nil {
					return err
				}
			}

			rt, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer rt.close()

			app, err := rt.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := evaluation.NewSuite(app.Runner(), rt.logger).Run(cmd.Context(), cases)
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout()); err != nil {
				return err
			}

			if report.Failed() > 0 {
				return fmt.Errorf("%d of %d cases failed", report.Failed(), report.Total)
			}
			return nil
		},
	}

	cmd.Flags().String("cases", "", "YAML file with a test_cases list (defaults to the built-in cases)")

	return cmd
}
