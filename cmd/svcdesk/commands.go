package main

import (
	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic raw ticket dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Generate()
			if err != nil {
				return err
			}
			renderGenerate(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Validate and clean the raw dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Clean()
			if err != nil {
				return err
			}
			renderClean(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newEngineerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engineer",
		Short: "Derive analytical features and report KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Engineer()
			if err != nil {
				return err
			}
			renderEngineer(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Run the four exploratory reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Explore()
			if err != nil {
				return err
			}
			renderExplore(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newForecastCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Project ticket volume four weeks ahead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Forecast()
			if err != nil {
				return err
			}
			renderForecast(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newRootCauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rootcause",
		Short: "Report recurring issues and escalation hotspots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.RootCause()
			if err != nil {
				return err
			}
			renderRootCause(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newPowerBICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "powerbi",
		Short: "Export the flattened Power BI dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.PowerBI()
			if err != nil {
				return err
			}
			renderPowerBI(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newChartsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "Render the business charts from the exploratory reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Charts()
			if err != nil {
				return err
			}
			renderCharts(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Assemble every report into one Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Report()
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Bulk-load the engineered dataset into the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newConnectedApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Load(cmd.Context())
			if err != nil {
				return err
			}
			renderLoad(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the latest KPI snapshot to the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newConnectedApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Publish(cmd.Context())
			if err != nil {
				return err
			}
			renderPublish(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline end to end",
		Long: `Run executes every stage in order: generate, clean, engineer,
explore, forecast, rootcause, powerbi, charts and report. The warehouse
load and KPI snapshot publish run as well when their connections are
configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newConnectedApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			renderRun(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
