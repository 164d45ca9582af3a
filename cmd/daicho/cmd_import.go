package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import customers and interaction history from a JSON export",
		Long: `Import merges a JSON export into the ledger. Records keep their IDs, so
re-importing the same file overwrites rather than duplicates. Records
without an ID get a fresh one; zero timestamps are back-filled.

Use - as the file path to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			var r io.Reader
			if filePath == "" || filePath == "-" {
				r = os.Stdin
			} else {
				f, openErr := os.Open(filePath)
				if openErr != nil {
					return fmt.Errorf("import: opening file: %w", openErr)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			var doc exportDocument
			if decErr := json.NewDecoder(r).Decode(&doc); decErr != nil {
				return fmt.Errorf("import: decoding JSON: %w", decErr)
			}

			gw, st, _, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer func() { _ = gw.Close() }()

			now := time.Now()
			var customers, skipped int
			for i := range doc.Customers {
				c := &doc.Customers[i]
				c.Name = strings.TrimSpace(c.Name)
				if c.Name == "" {
					skipped++
					continue
				}
				if c.ID == "" {
					c.ID = uuid.NewString()
				}
				if c.CreatedAt.IsZero() {
					c.CreatedAt = now
				}
				if c.UpdatedAt.IsZero() {
					c.UpdatedAt = c.CreatedAt
				}
				st.UpsertCustomer(*c)
				customers++
			}

			var interactions int
			for i := range doc.History {
				h := &doc.History[i]
				if strings.TrimSpace(h.Subject) == "" || h.CustomerID == "" {
					skipped++
					continue
				}
				if h.ID == "" {
					h.ID = uuid.NewString()
				}
				if h.CreatedAt.IsZero() {
					h.CreatedAt = now
				}
				if h.Date.IsZero() {
					h.Date = h.CreatedAt
				}
				st.UpsertHistory(*h)
				interactions++
			}

			if syncErr := st.Sync(); syncErr != nil {
				return fmt.Errorf("import: saving ledger: %w", syncErr)
			}

			fmt.Printf("Imported %d customers and %d interactions (%d skipped)\n", customers, interactions, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "-", "path to input file (- for stdin)")
	return cmd
}
