package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/models"
)

func editCmd() *cobra.Command {
	var flags crm.CustomerInput
	var status, rank string

	cmd := &cobra.Command{
		Use:   "edit [customer-id]",
		Short: "Edit a customer record",
		Long: `Edit replaces the whole customer record: fields not given as flags keep
their current values, then the full record is written back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			gw, st, _, svc, err := openLedger(logger)
			if err != nil {
				return fmt.Errorf("edit: %w", err)
			}
			defer func() { _ = gw.Close() }()

			existing, err := st.FindCustomer(args[0])
			if err != nil {
				return fmt.Errorf("edit: %w", err)
			}

			in := crm.CustomerInput{
				Name:        existing.Name,
				NameKana:    existing.NameKana,
				CompanyName: existing.CompanyName,
				Department:  existing.Department,
				Position:    existing.Position,
				Phone:       existing.Phone,
				Mobile:      existing.Mobile,
				Email:       existing.Email,
				Address:     existing.Address,
				Status:      existing.Status,
				Rank:        existing.Rank,
				Notes:       existing.Notes,
			}

			// Apply provided flag values.
			if cmd.Flags().Changed("name") {
				in.Name = flags.Name
			}
			if cmd.Flags().Changed("kana") {
				in.NameKana = flags.NameKana
			}
			if cmd.Flags().Changed("company") {
				in.CompanyName = flags.CompanyName
			}
			if cmd.Flags().Changed("department") {
				in.Department = flags.Department
			}
			if cmd.Flags().Changed("position") {
				in.Position = flags.Position
			}
			if cmd.Flags().Changed("phone") {
				in.Phone = flags.Phone
			}
			if cmd.Flags().Changed("mobile") {
				in.Mobile = flags.Mobile
			}
			if cmd.Flags().Changed("email") {
				in.Email = flags.Email
			}
			if cmd.Flags().Changed("address") {
				in.Address = flags.Address
			}
			if cmd.Flags().Changed("status") {
				in.Status = models.CustomerStatus(status)
			}
			if cmd.Flags().Changed("rank") {
				in.Rank = models.CustomerRank(rank)
			}
			if cmd.Flags().Changed("notes") {
				in.Notes = flags.Notes
			}

			customer, err := svc.UpdateCustomer(existing.ID, in)
			if err != nil {
				if syncErr := reportSync(err); syncErr != nil {
					return fmt.Errorf("edit: %w", syncErr)
				}
			}

			fmt.Printf("Updated customer %s\n", customer.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Name, "name", "", "full name")
	cmd.Flags().StringVar(&flags.NameKana, "kana", "", "name reading (フリガナ)")
	cmd.Flags().StringVar(&flags.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&flags.Department, "department", "", "department")
	cmd.Flags().StringVar(&flags.Position, "position", "", "job position")
	cmd.Flags().StringVar(&flags.Phone, "phone", "", "primary phone number")
	cmd.Flags().StringVar(&flags.Mobile, "mobile", "", "mobile phone number")
	cmd.Flags().StringVar(&flags.Email, "email", "", "email address")
	cmd.Flags().StringVar(&flags.Address, "address", "", "full address")
	cmd.Flags().StringVar(&status, "status", "", "status ("+validStatusesString()+")")
	cmd.Flags().StringVar(&rank, "rank", "", "rank ("+validRanksString()+")")
	cmd.Flags().StringVar(&flags.Notes, "notes", "", "additional notes")
	return cmd
}
