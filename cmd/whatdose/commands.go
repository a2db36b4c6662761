package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"whatdose/internal/core"
	"whatdose/internal/platform/config"
	"whatdose/internal/templates"
	"whatdose/pkg/domain"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "whatdose",
		Short: "Build personalised supplement stacks",
		Long: `whatdose turns a user profile and selected goals into a deduplicated,
dosed and scheduled supplement stack.

Storage, archive and logging are configured through WHATDOSE_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newCatalogCmd(), newProfileCmd(), newGenerateCmd(), newStackCmd(), newTemplatesCmd())
	return root
}

func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close storage: %w", cerr)
			}
		}()
		return fn(cmd, a, args)
	}
}

func newCatalogCmd() *cobra.Command {
	catalog := &cobra.Command{Use: "catalog", Short: "Manage catalog records"}
	catalog.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Upsert catalog records from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			var records []domain.CatalogRecord
			if err := readJSON(args[0], &records); err != nil {
				return err
			}
			n, err := a.store.ImportRecords(cmd.Context(), records)
			if err != nil {
				return fmt.Errorf("import records: %w", err)
			}
			a.log.Info("catalog imported", "records", n, "file", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d catalog records\n", n)
			return nil
		}),
	})
	return catalog
}

func newProfileCmd() *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Manage user profiles"}
	profile.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Create or replace profiles from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			var profiles []domain.UserProfile
			if err := readJSON(args[0], &profiles); err != nil {
				return err
			}
			for _, p := range profiles {
				if err := a.store.PutProfile(cmd.Context(), p); err != nil {
					return fmt.Errorf("put profile %s: %w", p.ID, err)
				}
			}
			a.log.Info("profiles imported", "profiles", len(profiles), "file", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d profiles\n", len(profiles))
			return nil
		}),
	})
	return profile
}

func newGenerateCmd() *cobra.Command {
	var (
		userID  string
		goals   []string
		noBasic bool
		dryRun  bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store a stack for a user",
		Long: `Generate a stack from the user's profile.

Goals default to the profile's selected goals. Use --goal goal=sub,sub to pick
subcategories; repeat the flag for several goals.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			gen, err := a.svc.GenerateStack(cmd.Context(), core.GenerateRequest{
				UserID:          userID,
				Goals:           templates.ParseSelections(goals),
				SkipBasicHealth: noBasic,
				DryRun:          dryRun,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), gen)
			}
			return printGeneration(cmd.OutOrStdout(), gen)
		}),
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringArrayVar(&goals, "goal", nil, "goal selection (goal or goal=sub,sub)")
	cmd.Flags().BoolVar(&noBasic, "no-basic", false, "omit the Basic Health group")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without storing or archiving")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the generation as JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStackCmd() *cobra.Command {
	stack := &cobra.Command{Use: "stack", Short: "Inspect stored stacks"}
	var userID string
	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored stack for a user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			st, err := a.store.GetStack(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation %s saved %s\n", st.GenerationID, st.SavedAt.Format("2006-01-02 15:04:05"))
			return printItems(cmd.OutOrStdout(), st.Items)
		}),
	}
	show.Flags().StringVar(&userID, "user", "", "user id")
	show.Flags().BoolVar(&asJSON, "json", false, "print the stack as JSON")
	_ = show.MarkFlagRequired("user")
	stack.AddCommand(show)
	return stack
}

func newTemplatesCmd() *cobra.Command {
	tpl := &cobra.Command{Use: "templates", Short: "Inspect goal templates"}
	tpl.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List goals and their subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			repo := templates.Default()
			if cfg.TemplatesPath != "" {
				loaded, err := templates.LoadFile(cfg.TemplatesPath)
				if err != nil {
					return err
				}
				repo = loaded
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GOAL\tDEFAULT\tSUBCATEGORIES")
			for _, g := range repo.Goals() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", g.Goal, g.Default, strings.Join(g.Subcategories, ", "))
			}
			return w.Flush()
		},
	})
	return tpl
}

func printGeneration(w io.Writer, gen core.Generation) error {
	fmt.Fprintf(w, "generation %s for %s\n", gen.ID, gen.UserID)
	if err := printItems(w, gen.Stack.Items); err != nil {
		return err
	}
	for _, warn := range gen.Result.Warnings {
		fmt.Fprintf(w, "[%s] %s\n", warn.Severity, warn.Message)
	}
	return nil
}

func printItems(w io.Writer, items []domain.StackItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BLOCK\tSUPPLEMENT\tDOSE\tSOURCES")
	for _, item := range items {
		dose := "-"
		if item.Dose != nil {
			dose = fmt.Sprintf("%g %s", *item.Dose, item.Unit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ScheduleBlock, item.Name, dose, strings.Join(item.Sources, ", "))
	}
	return tw.Flush()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
