package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"factory-sim/internal/profile"
)

var profilesShow string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List machine behavior profiles",
	Long:  "profiles lists the built-in profiles, or prints one as YAML to use as a starting point for a custom profile.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if profilesShow != "" {
			p, err := profile.Resolve(profilesShow)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		}
		builtin := profile.BuiltIn()
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSTATUSES\tDESCRIPTION")
		for _, name := range profile.Names() {
			p := builtin[name]
			fmt.Fprintf(tw, "%s\t%d\t%s\n", name, len(p.Statuses), p.Description)
		}
		return tw.Flush()
	},
}

func init() {
	profilesCmd.Flags().StringVar(&profilesShow, "show", "", "Print the named profile as YAML")
}
