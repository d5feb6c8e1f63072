// Package cmd provides the CLI commands for Gatehouse.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/config"
)

var cfgFile string
var serverHost string
var serverPort int

var rootCmd = &cobra.Command{
	Use:   "gatehouse",
	Short: "Gatehouse - centralized ABAC policy decision point",
	Long: `Gatehouse is a centralized policy decision point and policy
information point for attribute-based access control.

It stores targets, actors, roles, groups, and policy rules, and answers
ALLOW/DENY questions from policy enforcement points over a small RPC
surface.

Quick start:
  1. Start a server: gatehouse serve
  2. Manage the policy graph: gatehouse targets add db1 --typestr database
  3. Ask a question: gatehouse check --actor alice --actor-type user \
       --target db1 --target-type database --action read

Configuration:
  Config is loaded from gatehouse.yaml in the current directory,
  $HOME/.gatehouse/, or /etc/gatehouse/.

  Environment variables override config values with the GATEHOUSE_ prefix;
  GATEPORT overrides the listen address directly.

Commands:
  serve       Start the RPC server
  targets     Manage targets
  actors      Manage actors
  roles       Manage roles
  groups      Manage groups
  policies    Manage policy rules
  check       Ask an ALLOW/DENY question
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./gatehouse.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "localhost", "gatehouse server host, for CLI subcommands")
	rootCmd.PersistentFlags().IntVar(&serverPort, "port", 6174, "gatehouse server port, for CLI subcommands")
}

func initConfig() {
	config.InitViper(cfgFile)
}

func serverTarget() string {
	return fmt.Sprintf("%s:%d", serverHost, serverPort)
}
