package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/explaineval/pkg/eval"
	"github.com/orneryd/explaineval/pkg/storage"
)

var errNoStore = errors.New("no run archive configured (use --store or storage.dir)")

func (a *app) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List archived runs, or show one run as JSON",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: history takes at most one run id", errUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Dir == "" {
				return errNoStore
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return a.showRun(store, args[0])
			}
			return a.listRuns(store, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 = all)")
	return cmd
}

func (a *app) listRuns(store *storage.RunStore, limit int) error {
	runs, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "No archived runs.")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tMAX_AT\tENTITIES\tRATIOS\tINPUTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s %s\n",
			r.Timestamp.Local().Format(time.DateTime),
			r.ID,
			r.MaxAt,
			r.Entities,
			eval.FormatVector(r.Ratios()),
			r.PredictionsPath,
			r.AnnotationsPath,
		)
	}
	return w.Flush()
}

func (a *app) showRun(store *storage.RunStore, id string) error {
	rec, err := store.Get(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("run %s: %w", id, err)
		}
		return err
	}

	out := struct {
		*storage.RunRecord
		Ratios []eval.Ratio `json:"ratios"`
	}{rec, rec.Ratios()}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
