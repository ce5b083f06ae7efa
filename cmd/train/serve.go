package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/agglutrain/latticecore/training"
)

type stepResponse struct {
	Epoch       int     `json:"epoch"`
	Step        int     `json:"step"`
	Loss        float64 `json:"loss"`
	NumFeatures int     `json:"num_features"`
}

func handleRecentSteps(store *training.MetricsStore, sessionID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "GET required", http.StatusMethodNotAllowed)
			return
		}
		recs, err := store.RecentSteps(sessionID, 100)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]stepResponse, len(recs))
		for i, r := range recs {
			out[i] = stepResponse{Epoch: r.Epoch, Step: r.Step, Loss: r.Loss, NumFeatures: r.NumFeatures}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Printf("encode error: %v", err)
		}
	}
}

func newServeCmd() *cobra.Command {
	var metricsPath, addr, sessionIDFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose a metrics store's recent training steps over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := training.OpenMetricsStore(metricsPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sessionID, err := uuid.Parse(sessionIDFlag)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/api/steps", handleRecentSteps(store, sessionID))

			handler := cors.New(cors.Options{AllowedMethods: []string{http.MethodGet}}).Handler(mux)

			log.Printf("listening on %s", addr)
			return http.ListenAndServe(addr, handler)
		},
	}

	cmd.Flags().StringVar(&metricsPath, "metrics", "", "SQLite metrics store path")
	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&sessionIDFlag, "session", "", "session UUID to serve steps for")
	cmd.MarkFlagRequired("metrics")
	cmd.MarkFlagRequired("session")

	return cmd
}
