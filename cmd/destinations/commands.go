package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/destinations/internal/destination"
	"github.com/neexbeast/destinations/internal/store"
)

const (
	FlagSearch      = "search"
	FlagRelated     = "related"
	FlagName        = "name"
	FlagCountry     = "country"
	FlagDescription = "description"
	FlagDuration    = "duration"
	FlagDifficulty  = "difficulty"
	FlagPrice       = "price"
	FlagHighlight   = "highlight"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List destinations, optionally filtered by name or country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, err := cmd.Flags().GetString(FlagSearch)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagSearch, err)
			}

			a, err := newApp(cmd, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			if err := a.tracker.Do(cmd.Context(), store.FetchAll()); err != nil {
				return fmt.Errorf("loading destinations: %w", err)
			}
			a.store.SetSearchFilter(search)

			items := a.store.Filtered()
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No destinations found.")
				return nil
			}
			return printTable(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().String(FlagSearch, "", "(optional) case-insensitive name or country filter")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			related, err := cmd.Flags().GetBool(FlagRelated)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagRelated, err)
			}

			a, err := newApp(cmd, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			// The detail record and, if asked, the collection load concurrently.
			g, gCtx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return a.tracker.Do(gCtx, store.FetchByID(id))
			})
			if related {
				g.Go(func() error {
					return a.tracker.Do(gCtx, store.FetchAll())
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("loading destination %s: %w", id, err)
			}

			d := a.store.Selected()
			printDetails(cmd.OutOrStdout(), *d)

			if related {
				printRelated(cmd.OutOrStdout(), *d, a.store.Destinations())
			}
			return nil
		},
	}
	cmd.Flags().Bool(FlagRelated, false, "(optional) also list other destinations in the same country")
	return cmd
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := destination.NewDraft()
			if err := applyDraftFlags(cmd, &draft); err != nil {
				return err
			}
			d, err := draft.Submission()
			if err != nil {
				return err
			}

			a, err := newApp(cmd, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			if err := a.tracker.Do(cmd.Context(), store.Create(d)); err != nil {
				return fmt.Errorf("failed to add destination, please try again: %w", err)
			}

			all := a.store.Destinations()
			fmt.Fprintln(cmd.OutOrStdout(), "Destination added successfully!")
			printDetails(cmd.OutOrStdout(), all[len(all)-1])
			return nil
		},
	}
	addDraftFlags(cmd)
	return cmd
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing destination; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			a, err := newApp(cmd, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			if err := a.tracker.Do(cmd.Context(), store.FetchByID(id)); err != nil {
				return fmt.Errorf("loading destination %s: %w", id, err)
			}

			draft := destination.DraftFrom(*a.store.Selected())
			if err := applyDraftFlags(cmd, &draft); err != nil {
				return err
			}
			d, err := draft.Submission()
			if err != nil {
				return err
			}

			if err := a.tracker.Do(cmd.Context(), store.Update(id, d)); err != nil {
				return fmt.Errorf("updating destination %s: %w", id, err)
			}
			if err := a.tracker.Do(cmd.Context(), store.FetchByID(id)); err != nil {
				return fmt.Errorf("reloading destination %s: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Destination updated successfully!")
			printDetails(cmd.OutOrStdout(), *a.store.Selected())
			return nil
		},
	}
	addDraftFlags(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			if err := a.tracker.Do(cmd.Context(), store.Delete(args[0])); err != nil {
				return fmt.Errorf("deleting destination %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Destination Deleted Successfully.")
			return nil
		},
	}
}

// ---- draft flags ----

func addDraftFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagName, "", "destination name")
	cmd.Flags().String(FlagCountry, "", "country")
	cmd.Flags().String(FlagDescription, "", "(optional) description")
	cmd.Flags().Int(FlagDuration, 0, "duration in days")
	cmd.Flags().String(FlagDifficulty, string(destination.Easy), "Easy, Medium or Hard")
	cmd.Flags().Float64(FlagPrice, 0, "price")
	cmd.Flags().StringArray(FlagHighlight, nil, "(optional, repeatable) highlight")
}

// applyDraftFlags copies every flag the user set onto draft.
func applyDraftFlags(cmd *cobra.Command, draft *destination.Draft) error {
	flags := cmd.Flags()

	for name, dst := range map[string]*string{
		FlagName:        &draft.Name,
		FlagCountry:     &draft.Country,
		FlagDescription: &draft.Description,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("%s flag: %w", name, err)
		}
		*dst = v
	}

	if flags.Changed(FlagDuration) {
		v, err := flags.GetInt(FlagDuration)
		if err != nil {
			return fmt.Errorf("%s flag: %w", FlagDuration, err)
		}
		draft.Details.Duration = v
	}
	if flags.Changed(FlagDifficulty) {
		v, err := flags.GetString(FlagDifficulty)
		if err != nil {
			return fmt.Errorf("%s flag: %w", FlagDifficulty, err)
		}
		difficulty, err := destination.ParseDifficulty(v)
		if err != nil {
			return err
		}
		draft.Details.Difficulty = difficulty
	}
	if flags.Changed(FlagPrice) {
		v, err := flags.GetFloat64(FlagPrice)
		if err != nil {
			return fmt.Errorf("%s flag: %w", FlagPrice, err)
		}
		draft.Details.Price = v
	}
	if flags.Changed(FlagHighlight) {
		v, err := flags.GetStringArray(FlagHighlight)
		if err != nil {
			return fmt.Errorf("%s flag: %w", FlagHighlight, err)
		}
		draft.Highlights = v
	}

	return nil
}

// ---- output ----

func printTable(w io.Writer, items []destination.Destination) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTRY\tDAYS\tDIFFICULTY\tPRICE")
	for _, d := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.2f\n",
			d.ID, d.Name, d.Country, d.Details.Duration, d.Details.Difficulty, d.Details.Price)
	}
	return tw.Flush()
}

func printDetails(w io.Writer, d destination.Destination) {
	fmt.Fprintf(w, "%s, %s (%s)\n", d.Name, d.Country, d.ID)
	if d.Description != "" {
		fmt.Fprintf(w, "  %s\n", d.Description)
	}
	fmt.Fprintf(w, "  Duration:   %d days\n", d.Details.Duration)
	fmt.Fprintf(w, "  Difficulty: %s\n", d.Details.Difficulty)
	fmt.Fprintf(w, "  Price:      %.2f\n", d.Details.Price)
	if len(d.Highlights) > 0 {
		fmt.Fprintln(w, "  Highlights:")
		for _, h := range d.Highlights {
			fmt.Fprintf(w, "    - %s\n", h)
		}
	}
}

func printRelated(w io.Writer, d destination.Destination, all []destination.Destination) {
	var names []string
	for _, other := range store.Filter(all, d.Country) {
		if other.ID == d.ID || !strings.EqualFold(other.Country, d.Country) {
			continue
		}
		names = append(names, other.Name)
	}
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "More in %s: %s\n", d.Country, strings.Join(names, ", "))
}
