package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/wrtsync/internal/config"
)

var addPasswordEnv string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAddCmd)

	configAddCmd.Flags().StringVar(&addPasswordEnv, "password-env", "", "Environment variable holding the router password")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the wrtsync config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.CreateDefaultConfig(path); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(reg.Redacted())
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <name> <host>",
	Short: "Add or update a router",
	Example: `  wrtsync config add office 192.168.1.1 --password-env OFFICE_ROUTER_PASSWORD`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		rt := reg.EnsureRouter(args[0])
		rt.Host = args[1]
		if routerUser != "" {
			rt.Username = routerUser
		}
		if addPasswordEnv != "" {
			rt.PasswordEnv = addPasswordEnv
		}
		reg.ApplyDefaults()
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := reg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Router %q saved\n", args[0])
		return nil
	},
}
