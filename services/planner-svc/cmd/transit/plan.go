package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"transit/services/planner-svc/internal/engine"
	"transit/services/planner-svc/internal/service"
)

// planOpts holds the flags shared by the plan subcommands.
type planOpts struct {
	file          string
	maxIterations int64
}

// load reads the network file, registers it with a throwaway planner and
// returns the service together with the assigned network ID.
func (o *planOpts) load(ctx context.Context) (*service.PlannerService, string, error) {
	in, err := readNetworkFile(o.file)
	if err != nil {
		return nil, "", err
	}

	svc := service.NewPlannerService(version, nil, nil, engine.Options{
		MaxIterations: o.maxIterations,
	})

	out, err := svc.CreateNetwork(ctx, in)
	if err != nil {
		return nil, "", err
	}
	return svc, out.NetworkID, nil
}

func newPlanCmd() *cobra.Command {
	opts := &planOpts{}

	plan := &cobra.Command{
		Use:   "plan",
		Short: "Run planning queries over a network file",
		Long:  `Plan loads a station network from a YAML or JSON file and answers a single planning query. The file lists stations (id, name, occupancy) and tracks (id, from, to, capacity, cost).`,
	}

	plan.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "network file (YAML or JSON)")
	plan.PersistentFlags().Int64Var(&opts.maxIterations, "max-iterations", 0, "cap on augmenting paths per flow query (0 = unlimited)")
	_ = plan.MarkPersistentFlagRequired("file")

	plan.AddCommand(newMaxFlowCmd(opts))
	plan.AddCommand(newBestNetworkCmd(opts))

	return plan
}

func newMaxFlowCmd(opts *planOpts) *cobra.Command {
	var from, to int64

	cmd := &cobra.Command{
		Use:   "maxflow",
		Short: "Compute the maximum passenger flow between two stations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, networkID, err := opts.load(ctx)
			if err != nil {
				return err
			}

			res, err := svc.MaxFlow(ctx, networkID, from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "source station ID")
	cmd.Flags().Int64Var(&to, "to", 0, "sink station ID")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newBestNetworkCmd(opts *planOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "best-network",
		Short: "Select the best spanning subset of tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, networkID, err := opts.load(ctx)
			if err != nil {
				return err
			}

			res, err := svc.BestNetwork(ctx, networkID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// readNetworkFile parses a network description. The format is picked by
// file extension: .yaml/.yml is YAML, everything else is treated as JSON.
func readNetworkFile(path string) (*service.CreateNetworkInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}

	var in service.CreateNetworkInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("parse network file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("parse network file: %w", err)
		}
	}
	return &in, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
