package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	catalogadapter "github.com/rafaeldtinoco-dev/investfolio/internal/adapters/render/catalog"
	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

func newCatalogCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and manage investment options",
	}

	cmd.AddCommand(
		newCatalogListCmd(app),
		newCatalogAddCmd(app),
		newCatalogEditCmd(app),
		newCatalogRemoveCmd(app),
	)

	return cmd
}

func newCatalogListCmd(app *app) *cobra.Command {
	var asJSON, cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List investment options",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				options []domain.InvestmentOption
				err     error
			)

			if cached {
				options, err = app.store.LoadSnapshot(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				err = runCatalogFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching investment options...", func(ctx context.Context) error {
					var listErr error
					options, listErr = app.store.List(ctx)
					return listErr
				})
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(options)
			}

			rendered, err := app.renderer(application.CardViews(options), catalogadapter.RenderOptions{Stale: cached})
			if err != nil {
				return fmt.Errorf("render catalog: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	cmd.Flags().BoolVar(&cached, "cached", false, "Read from the local snapshot instead of the remote store")

	return cmd
}

type optionForm struct {
	Name           string
	Description    string
	Risk           string
	ExpectedReturn string
	MinInvestment  string
	MaxInvestment  string
	Expiration     string
}

func newCatalogAddCmd(app *app) *cobra.Command {
	var form optionForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an investment option",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Name == "" {
				if err := promptOptionForm(&form); err != nil {
					return err
				}
			}

			draft, err := form.toDraft()
			if err != nil {
				return err
			}

			if err := app.store.Create(cmd.Context(), draft); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %q\n", draft.Name)
			return nil
		},
	}

	bindOptionFlags(cmd, &form)

	return cmd
}

func newCatalogEditCmd(app *app) *cobra.Command {
	var form optionForm

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an investment option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.OptionID(args[0])

			patch, err := form.toPatch(cmd)
			if err != nil {
				return err
			}
			if patch.Empty() {
				// No field flags: fetch the record and edit it in a
				// prefilled form instead.
				patch, err = promptEditPatch(cmd, app, id)
				if err != nil {
					return err
				}
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to change")
			}

			if err := app.store.Update(cmd.Context(), id, patch); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id)
			return nil
		},
	}

	bindOptionFlags(cmd, &form)

	return cmd
}

func newCatalogRemoveCmd(app *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an investment option",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.OptionID(args[0])

			if !yes {
				confirmed, err := confirmRemoval(id)
				if err != nil {
					return err
				}
				if !confirmed {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := app.store.Delete(cmd.Context(), id); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func bindOptionFlags(cmd *cobra.Command, form *optionForm) {
	cmd.Flags().StringVar(&form.Name, "name", "", "Option name")
	cmd.Flags().StringVar(&form.Description, "description", "", "Option description")
	cmd.Flags().StringVar(&form.Risk, "risk", "", "Risk level: low, medium, or high")
	cmd.Flags().StringVar(&form.ExpectedReturn, "expected-return", "", "Expected return, free form (e.g. \"8% a.a.\")")
	cmd.Flags().StringVar(&form.MinInvestment, "min", "", "Minimum investment amount")
	cmd.Flags().StringVar(&form.MaxInvestment, "max", "", "Maximum investment amount")
	cmd.Flags().StringVar(&form.Expiration, "expires", "", "Expiration period, free form (e.g. \"2 years\")")
}

func promptOptionForm(form *optionForm) error {
	f := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&form.Name),
		huh.NewInput().
			Title("Description").
			Value(&form.Description),
		huh.NewSelect[string]().
			Title("Risk level").
			Options(
				huh.NewOption("low", "low"),
				huh.NewOption("medium", "medium"),
				huh.NewOption("high", "high"),
			).
			Value(&form.Risk),
		huh.NewInput().
			Title("Expected return").
			Placeholder("8% a.a.").
			Value(&form.ExpectedReturn),
		huh.NewInput().
			Title("Minimum investment").
			Placeholder("100").
			Value(&form.MinInvestment),
		huh.NewInput().
			Title("Maximum investment").
			Placeholder("50000").
			Value(&form.MaxInvestment),
		huh.NewInput().
			Title("Expiration period").
			Placeholder("2 years").
			Value(&form.Expiration),
	))

	if err := f.Run(); err != nil {
		return fmt.Errorf("prompt option details: %w", err)
	}
	if form.Name == "" {
		return fmt.Errorf("name is required")
	}

	return nil
}

// promptEditPatch fetches the current record and opens it in a prefilled
// form, then reduces the edits to a partial update.
func promptEditPatch(cmd *cobra.Command, app *app, id domain.OptionID) (domain.OptionPatch, error) {
	if _, err := app.store.List(cmd.Context()); err != nil {
		return domain.OptionPatch{}, err
	}
	current, err := app.store.Get(id)
	if err != nil {
		return domain.OptionPatch{}, err
	}

	form := optionFormFromOption(current)
	if err := promptOptionForm(&form); err != nil {
		return domain.OptionPatch{}, err
	}

	return form.diff(current)
}

func optionFormFromOption(option domain.InvestmentOption) optionForm {
	return optionForm{
		Name:           option.Name,
		Description:    option.Description,
		Risk:           string(option.RiskLevel),
		ExpectedReturn: option.ExpectedReturn,
		MinInvestment:  formatAmount(option.MinInvestment),
		MaxInvestment:  formatAmount(option.MaxInvestment),
		Expiration:     option.ExpirationPeriod,
	}
}

// diff keeps only the fields that differ from the stored record.
func (f optionForm) diff(current domain.InvestmentOption) (domain.OptionPatch, error) {
	var patch domain.OptionPatch

	if f.Name != current.Name {
		patch.Name = &f.Name
	}
	if f.Description != current.Description {
		patch.Description = &f.Description
	}
	if level := domain.ParseRiskLevel(f.Risk); level != current.RiskLevel {
		patch.RiskLevel = &level
	}
	if f.ExpectedReturn != current.ExpectedReturn {
		patch.ExpectedReturn = &f.ExpectedReturn
	}
	if amount, err := parseAmount(f.MinInvestment); err != nil {
		return domain.OptionPatch{}, fmt.Errorf("parse min investment: %w", err)
	} else if amount != current.MinInvestment {
		patch.MinInvestment = &amount
	}
	if amount, err := parseAmount(f.MaxInvestment); err != nil {
		return domain.OptionPatch{}, fmt.Errorf("parse max investment: %w", err)
	} else if amount != current.MaxInvestment {
		patch.MaxInvestment = &amount
	}
	if f.Expiration != current.ExpirationPeriod {
		patch.ExpirationPeriod = &f.Expiration
	}

	return patch, nil
}

func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func confirmRemoval(id domain.OptionID) (bool, error) {
	confirmed := false

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Remove investment option %s?", id)).
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt confirmation: %w", err)
	}

	return confirmed, nil
}

func (f optionForm) toDraft() (domain.OptionDraft, error) {
	draft := domain.OptionDraft{
		Name:             f.Name,
		Description:      f.Description,
		RiskLevel:        domain.ParseRiskLevel(f.Risk),
		ExpectedReturn:   f.ExpectedReturn,
		ExpirationPeriod: f.Expiration,
	}
	if draft.Name == "" {
		return domain.OptionDraft{}, fmt.Errorf("name is required")
	}

	var err error
	if draft.MinInvestment, err = parseAmount(f.MinInvestment); err != nil {
		return domain.OptionDraft{}, fmt.Errorf("parse min investment: %w", err)
	}
	if draft.MaxInvestment, err = parseAmount(f.MaxInvestment); err != nil {
		return domain.OptionDraft{}, fmt.Errorf("parse max investment: %w", err)
	}

	return draft, nil
}

// toPatch builds a partial update from the flags that were explicitly set,
// so clearing a field with an empty value stays possible.
func (f optionForm) toPatch(cmd *cobra.Command) (domain.OptionPatch, error) {
	var patch domain.OptionPatch

	if cmd.Flags().Changed("name") {
		patch.Name = &f.Name
	}
	if cmd.Flags().Changed("description") {
		patch.Description = &f.Description
	}
	if cmd.Flags().Changed("risk") {
		level := domain.ParseRiskLevel(f.Risk)
		patch.RiskLevel = &level
	}
	if cmd.Flags().Changed("expected-return") {
		patch.ExpectedReturn = &f.ExpectedReturn
	}
	if cmd.Flags().Changed("min") {
		amount, err := parseAmount(f.MinInvestment)
		if err != nil {
			return domain.OptionPatch{}, fmt.Errorf("parse min investment: %w", err)
		}
		patch.MinInvestment = &amount
	}
	if cmd.Flags().Changed("max") {
		amount, err := parseAmount(f.MaxInvestment)
		if err != nil {
			return domain.OptionPatch{}, fmt.Errorf("parse max investment: %w", err)
		}
		patch.MaxInvestment = &amount
	}
	if cmd.Flags().Changed("expires") {
		patch.ExpirationPeriod = &f.Expiration
	}

	return patch, nil
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
