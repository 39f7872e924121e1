package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/profilewizard/catalog"
	"github.com/kbukum/profilewizard/httpclient"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/version"
)

var technologiesCmd = &cobra.Command{
	Use:     "technologies",
	Aliases: []string{"tech"},
	Short:   "List the technology catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := httpclient.New(cfg.API,
			httpclient.WithTokenSource(tokenSource(cfg)),
			httpclient.WithLogger(logger.Get("httpclient")),
		)
		if err != nil {
			return err
		}
		techs, err := catalog.New(client).ListTechnologies(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
		for _, t := range techs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Category)
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), serviceName, version.Get())
	},
}

func init() {
	rootCmd.AddCommand(technologiesCmd)
	rootCmd.AddCommand(versionCmd)
}
