package main

import (
	"fmt"
	"io"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/verify-service/internal/command"
	"github.com/fincoach/fincoach/verify-service/internal/query"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List curated domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			links, err := a.links()
			if err != nil {
				return err
			}
			all, err := command.NewLinkCommandService(links).ListLinks(cmd.Context())
			if err != nil {
				return err
			}
			renderLinks(cmd.OutOrStdout(), all)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var status, institution, notes string
	cmd := &cobra.Command{
		Use:   "add <domain>",
		Short: "Add or update a curated domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			links, err := a.links()
			if err != nil {
				return err
			}
			saved, err := command.NewLinkCommandService(links).UpsertLink(cmd.Context(), cqrs.UpsertLoanLinkCommand{
				Domain:          args[0],
				Status:          status,
				InstitutionName: institution,
				Notes:           notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%s)\n", saved.Domain, saved.Status, saved.InstitutionName)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", models.LinkWhitelisted, "Whitelisted or Blacklisted")
	cmd.Flags().StringVar(&institution, "institution", "", "institution the domain belongs to or impersonates")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("institution")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <domain>",
		Short: "Remove a curated domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			links, err := a.links()
			if err != nil {
				return err
			}
			if err := command.NewLinkCommandService(links).RemoveLink(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Run the full two-tier verification for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			links, err := a.links()
			if err != nil {
				return err
			}
			gen, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			result, err := query.NewLinkVerifier(links, gen, a.cfg.AITimeout).
				VerifyLink(cmd.Context(), cqrs.VerifyLinkQuery{URL: args[0]})
			if err != nil {
				return err
			}
			renderVerdict(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func renderLinks(w io.Writer, links []models.LoanLink) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Domain", "Status", "Institution", "Notes", "Updated"})
	for _, l := range links {
		table.Append([]string{l.Domain, l.Status, l.InstitutionName, l.Notes, l.UpdatedAt.Format("2006-01-02")})
	}
	table.Render()
}

func renderVerdict(w io.Writer, r *models.VerificationResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Risk", "Reason"})
	table.Append([]string{r.Status, fmt.Sprintf("%d", r.RiskScore), r.Reason})
	table.Render()
}
