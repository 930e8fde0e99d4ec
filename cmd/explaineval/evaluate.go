package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orneryd/explaineval/pkg/config"
	"github.com/orneryd/explaineval/pkg/eval"
	"github.com/orneryd/explaineval/pkg/storage"
)

func (a *app) runEvaluate(cmd *cobra.Command, args []string) error {
	maxAt, err := parseMaxAt(args[2])
	if err != nil {
		return err
	}

	ev := eval.NewEvaluator(eval.Options{
		PredictionsPath: args[0],
		AnnotationsPath: args[1],
		MaxAt:           maxAt,
		Logger:          a.logger,
	})
	result, err := ev.Run(cmd.Context())
	if err != nil {
		return err
	}

	reporter := eval.NewReporter(a.stdout)
	switch a.cfg.Output.Format {
	case config.FormatSummary:
		reporter.PrintSummary(result)
	case config.FormatCompact:
		reporter.PrintCompact(result)
	case config.FormatJSON:
		if err := reporter.PrintJSON(result); err != nil {
			return err
		}
	default:
		reporter.PrintVector(result)
	}

	if path := a.cfg.Output.SavePath; path != "" {
		if err := reporter.SaveJSON(result, path); err != nil {
			a.logger.Warn("failed to save results", zap.String("path", path), zap.Error(err))
		} else {
			a.logger.Info("results saved", zap.String("path", path))
		}
	}

	if a.cfg.Storage.Dir != "" {
		a.archive(result)
	}
	return nil
}

// archive records result in the run store. Failures are logged, not returned:
// the report has already been printed.
func (a *app) archive(result *eval.EvalResult) {
	log := a.logger.With(zap.String("store", a.cfg.Storage.Dir))

	fingerprint, err := storage.Fingerprint(result.PredictionsPath, result.AnnotationsPath, result.Curve.MaxAt)
	if err != nil {
		log.Warn("failed to fingerprint inputs", zap.Error(err))
		return
	}

	store, err := a.openStore()
	if err != nil {
		log.Warn("failed to open run archive", zap.Error(err))
		return
	}
	defer store.Close()

	if prev, err := store.FindByFingerprint(fingerprint); err == nil {
		log.Info("identical inputs evaluated before",
			zap.String("previous_run", prev.ID),
			zap.Time("previous_timestamp", prev.Timestamp))
	} else if !storage.IsNotFound(err) {
		log.Warn("fingerprint lookup failed", zap.Error(err))
	}

	rec := storage.NewRunRecord(result, fingerprint)
	if err := store.Save(&rec); err != nil {
		log.Warn("failed to archive run", zap.Error(err))
		return
	}
	log.Info("run archived", zap.String("run", rec.ID))
}

func (a *app) openStore() (*storage.RunStore, error) {
	return storage.OpenWithOptions(storage.Options{
		Dir:        a.cfg.Storage.Dir,
		SyncWrites: a.cfg.Storage.SyncWrites,
		Logger:     a.logger,
	})
}
