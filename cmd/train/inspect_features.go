package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/path"
	"github.com/agglutrain/latticecore/score"
	"github.com/agglutrain/latticecore/training"
)

func newInspectFeaturesCmd() *cobra.Command {
	var configPath, dictPath, surface string
	var beamSize int
	var featureExponent uint

	cmd := &cobra.Command{
		Use:   "inspect-features",
		Short: "Decode one surface with an untrained scorer and print its top-1 path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if surface == "" {
				return fmt.Errorf("--surface is required")
			}
			if configPath != "" {
				cfg, err := training.LoadConfig(configPath)
				if err != nil {
					return err
				}
				beamSize = cfg.Training.BeamSize
				featureExponent = cfg.Training.FeatureNumberExponent
			}

			dict, err := loadDictionaryCSV(dictPath)
			if err != nil {
				return err
			}

			table := score.NewWeightTable(featureExponent)
			calc := feature.NewCalculator(feature.DefaultTemplates())
			sdef := &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}

			analyzer := analysis.NewDictAnalyzer(dict, beamSize)
			tr := training.NewTrainer(analyzer, calc, table.Mask())
			tr.SetExample(&training.PartialExample{Surface: surface})
			if err := tr.Prepare(); err != nil {
				return err
			}
			if err := tr.Compute(sdef); err != nil {
				return err
			}

			lat := tr.Lattice()
			w := path.New()
			if err := w.FillIn(lat); err != nil {
				return err
			}

			var nodes []lattice.ConnectionPtr
			cur := w.Head()
			for cur.Boundary > 1 {
				nodes = append([]lattice.ConnectionPtr{cur}, nodes...)
				cur = lat.Arena().Get(cur.Previous)
			}
			for _, n := range nodes {
				row := lat.EntryAt(n.LatticeNodePtr())
				info := lat.NodeInfoAt(n.LatticeNodePtr())
				fmt.Fprintf(cmd.OutOrStdout(), "boundary=%d len=%d pos=%d surface_id=%d\n",
					n.Boundary, info.NumCodepoints, row[feature.FieldPOS], row[feature.FieldSurface])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML training config (overrides the flags below)")
	cmd.Flags().StringVar(&dictPath, "dict", "", "CSV dictionary: surface,POS,subPOS,baseForm")
	cmd.Flags().StringVar(&surface, "surface", "", "input surface to decode")
	cmd.Flags().IntVar(&beamSize, "beam-size", 8, "beam width (ignored if --config is set)")
	cmd.Flags().UintVar(&featureExponent, "feature-bits", 20, "log2 of the weight table size (ignored if --config is set)")
	cmd.MarkFlagRequired("dict")
	cmd.MarkFlagRequired("surface")

	return cmd
}
