/*
Copyright © 2026 Super2Brain
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored backend token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the backend bearer token",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		st, err := initStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()

		if err := st.SetToken(args[0]); err != nil {
			log.Fatalf("Failed to store token: %v", err)
		}
		fmt.Println("Token stored.")
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored backend token",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		st, err := initStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()

		token, err := st.GetToken()
		if err != nil {
			log.Fatalf("Failed to read token: %v", err)
		}
		if token == "" {
			fmt.Println("No token stored.")
			return
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
}
