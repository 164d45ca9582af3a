package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func rmCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm [customer-id]",
		Short: "Delete a customer and all their interaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, st, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("rm: %w", err)
			}
			defer func() { _ = gw.Close() }()

			c, err := st.FindCustomer(args[0])
			if err != nil {
				fmt.Printf("Customer %s not found; nothing to delete\n", args[0])
				return nil
			}

			if !yes {
				fmt.Printf("Delete %s and all their interaction history? [y/N] ", c.Name)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := svc.DeleteCustomer(c.ID); err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("rm: %w", syncErr)
				}
			}

			fmt.Printf("Deleted customer %s\n", c.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
