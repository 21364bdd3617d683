package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin <job-id>",
	Short: "Pin a job so it stays highlighted across refreshes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		defer m.Close()
		m.Pin(args[0])
		fmt.Printf("pinned %s\n", args[0])
		return nil
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <job-id>",
	Short: "Remove a job's pin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		defer m.Close()
		m.Unpin(args[0])
		fmt.Printf("unpinned %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(unpinCmd)
}
