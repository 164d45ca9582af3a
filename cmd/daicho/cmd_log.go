package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/models"
)

func logCmd() *cobra.Command {
	var (
		in       crm.HistoryInput
		itype    string
		dateSpec string
	)

	cmd := &cobra.Command{
		Use:   "log [customer-id] [subject]",
		Short: "Log an interaction with a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			in.CustomerID = args[0]
			in.Subject = args[1]
			in.Type = models.InteractionType(itype)
			if dateSpec != "" {
				d, parseErr := time.ParseInLocation("2006-01-02", dateSpec, time.Local)
				if parseErr != nil {
					return fmt.Errorf("log: parsing --date: %w", parseErr)
				}
				in.Date = d
			}

			gw, _, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("log: %w", err)
			}
			defer func() { _ = gw.Close() }()

			record, err := svc.CreateHistory(in)
			if err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("log: %w", syncErr)
				}
			}

			fmt.Printf("Logged interaction %s [%s] %s\n", record.ID, record.Type.Label(), record.Subject)
			return nil
		},
	}

	cmd.Flags().StringVar(&itype, "type", "other", "interaction type ("+validTypesString()+")")
	cmd.Flags().StringVar(&dateSpec, "date", "", "interaction date as YYYY-MM-DD (defaults to now)")
	cmd.Flags().StringVar(&in.Content, "content", "", "what was discussed")
	cmd.Flags().StringVar(&in.Result, "result", "", "outcome or follow-up")

	cmd.AddCommand(logEditCmd(), logRmCmd())
	return cmd
}

func logEditCmd() *cobra.Command {
	var (
		itype    string
		dateSpec string
		subject  string
		content  string
		result   string
	)

	cmd := &cobra.Command{
		Use:   "edit [history-id]",
		Short: "Edit a logged interaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, st, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("log edit: %w", err)
			}
			defer func() { _ = gw.Close() }()

			existing, err := st.FindHistory(args[0])
			if err != nil {
				return fmt.Errorf("log edit: %w", err)
			}

			in := crm.HistoryInput{
				CustomerID: existing.CustomerID,
				Date:       existing.Date,
				Type:       existing.Type,
				Subject:    existing.Subject,
				Content:    existing.Content,
				Result:     existing.Result,
			}
			if cmd.Flags().Changed("type") {
				in.Type = models.InteractionType(itype)
			}
			if cmd.Flags().Changed("date") {
				d, parseErr := time.ParseInLocation("2006-01-02", dateSpec, time.Local)
				if parseErr != nil {
					return fmt.Errorf("log edit: parsing --date: %w", parseErr)
				}
				in.Date = d
			}
			if cmd.Flags().Changed("subject") {
				in.Subject = subject
			}
			if cmd.Flags().Changed("content") {
				in.Content = content
			}
			if cmd.Flags().Changed("result") {
				in.Result = result
			}

			record, err := svc.UpdateHistory(existing.ID, in)
			if err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("log edit: %w", syncErr)
				}
			}

			fmt.Printf("Updated interaction %s\n", record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&itype, "type", "", "interaction type ("+validTypesString()+")")
	cmd.Flags().StringVar(&dateSpec, "date", "", "interaction date as YYYY-MM-DD")
	cmd.Flags().StringVar(&subject, "subject", "", "subject line")
	cmd.Flags().StringVar(&content, "content", "", "what was discussed")
	cmd.Flags().StringVar(&result, "result", "", "outcome or follow-up")
	return cmd
}

func logRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [history-id]",
		Short: "Delete a logged interaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, _, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("log rm: %w", err)
			}
			defer func() { _ = gw.Close() }()

			if err := svc.DeleteHistory(args[0]); err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("log rm: %w", syncErr)
				}
			}

			fmt.Printf("Deleted interaction %s\n", args[0])
			return nil
		},
	}
	return cmd
}
