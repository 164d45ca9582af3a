package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/models"
)

// exportDocument is the JSON export shape; import reads the same shape.
type exportDocument struct {
	Customers []models.Customer      `json:"customers"`
	History   []models.HistoryRecord `json:"history"`
}

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export customers and interaction history to JSON or CSV",
		Long: `Export writes the whole ledger. The JSON format carries both collections
and round-trips through import; the CSV format covers customers only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, st, _, _, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			defer func() { _ = gw.Close() }()

			doc := exportDocument{
				Customers: st.Customers(),
				History:   st.History(),
			}

			var w *os.File
			if output == "" || output == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("export: creating output file: %w", err)
				}
				defer func() { _ = w.Close() }()
			}

			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(doc); encErr != nil {
					return fmt.Errorf("export: encoding JSON: %w", encErr)
				}
			case "csv":
				cw := csv.NewWriter(w)
				headers := []string{"id", "name", "name_kana", "company", "department", "position", "phone", "mobile", "email", "address", "status", "rank", "notes", "created_at", "updated_at"}
				if writeErr := cw.Write(headers); writeErr != nil {
					return fmt.Errorf("export: writing CSV header: %w", writeErr)
				}
				for _, c := range doc.Customers {
					row := []string{
						c.ID, c.Name, c.NameKana, c.CompanyName, c.Department, c.Position,
						c.Phone, c.Mobile, c.Email, c.Address,
						string(c.Status), string(c.Rank), c.Notes,
						c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
						c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
					}
					if writeErr := cw.Write(row); writeErr != nil {
						return fmt.Errorf("export: writing CSV row: %w", writeErr)
					}
				}
				cw.Flush()
				if flushErr := cw.Error(); flushErr != nil {
					return fmt.Errorf("export: flushing CSV: %w", flushErr)
				}
			default:
				return fmt.Errorf("export: unsupported format %q (use json or csv)", format)
			}

			if output != "" && output != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d customers and %d interactions to %s\n",
					len(doc.Customers), len(doc.History), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	return cmd
}
