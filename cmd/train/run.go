package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/score"
	"github.com/agglutrain/latticecore/training"
)

func newRunCmd() *cobra.Command {
	var configPath, dictPath, metricsPath, dataPath string
	var epochs int
	var beamSize int
	var featureExponent uint
	var learningRate float32

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a training pass over a partial-example dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *training.TrainerFullConfig
			if configPath != "" {
				var err error
				cfg, err = training.LoadConfig(configPath)
				if err != nil {
					return err
				}
			} else {
				cfg = &training.TrainerFullConfig{
					DataPath: dataPath,
					Training: training.TrainingConfig{
						BeamSize:              beamSize,
						FeatureNumberExponent: featureExponent,
						LearningRate:          learningRate,
					},
				}
			}
			if cfg.DataPath == "" {
				return fmt.Errorf("no dataset path: pass --data or set data_path in --config")
			}

			dict, err := loadDictionaryCSV(dictPath)
			if err != nil {
				return err
			}

			var store *training.MetricsStore
			if metricsPath != "" {
				store, err = training.OpenMetricsStore(metricsPath)
				if err != nil {
					return err
				}
				defer store.Close()
			}
			session := training.NewSession(store)

			table := score.NewWeightTable(cfg.Training.FeatureNumberExponent)
			calc := feature.NewCalculator(feature.DefaultTemplates())
			sdef := &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}
			updater := training.NewSimpleUpdater(cfg.Training.LearningRate)

			analyzer := analysis.NewDictAnalyzer(dict, cfg.Training.BeamSize)
			if gb := cfg.Training.GlobalBeam; gb != nil {
				analyzer.SetGlobalBeam(gb.LeftBeam, gb.RightCheck, gb.RightBeam)
			}
			trainer := training.NewTrainer(analyzer, calc, table.Mask())

			reader := training.NewPartialExampleReader(dict.Spec())
			if err := reader.OpenFile(cfg.DataPath); err != nil {
				return err
			}
			defer reader.Close()

			for epoch := 0; epoch < epochs; epoch++ {
				step := 0
				var losses []float64
				for {
					ex, done, err := reader.ReadExample()
					if err != nil {
						return err
					}
					if ex != nil {
						trainer.SetExample(ex)
						if err := trainer.Prepare(); err != nil {
							return err
						}
						if err := trainer.Compute(sdef); err != nil {
							return err
						}
						loss := trainer.LossValue()
						if err := updater.Update(table, trainer.FeatureDiff(), loss); err != nil {
							return err
						}
						if err := session.RecordStep(epoch, step, loss, len(trainer.FeatureDiff())); err != nil {
							return err
						}
						losses = append(losses, float64(loss))
						step++
					}
					if done {
						break
					}
				}
				mean, stddev := session.EpochSummary(losses)
				log.Printf("epoch %d: %d steps, mean loss %.6f, stddev %.6f", epoch, step, mean, stddev)
			}

			if cfg.CheckpointPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "checkpoint persistence is not implemented; weights held only in memory\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML training config (overrides the flags below)")
	cmd.Flags().StringVar(&dictPath, "dict", "", "CSV dictionary: surface,POS,subPOS,baseForm")
	cmd.Flags().StringVar(&dataPath, "data", "", "partial-example dataset path (ignored if --config is set)")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "SQLite path to record per-step metrics")
	cmd.Flags().IntVar(&epochs, "epochs", 1, "number of passes over the dataset")
	cmd.Flags().IntVar(&beamSize, "beam-size", 8, "beam width (ignored if --config is set)")
	cmd.Flags().UintVar(&featureExponent, "feature-bits", 20, "log2 of the weight table size (ignored if --config is set)")
	cmd.Flags().Float32Var(&learningRate, "learning-rate", 0.1, "SimpleUpdater learning rate (ignored if --config is set)")
	cmd.MarkFlagRequired("dict")

	return cmd
}
