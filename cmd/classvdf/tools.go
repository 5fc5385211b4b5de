package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/korthochain/classvdf/pkg/accumulator"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/config"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/spf13/cobra"
)

func discriminantCommand(configPath *string) *cobra.Command {
	var bits int
	cmd := &cobra.Command{
		Use:   "discriminant <seed>",
		Short: "Prints the discriminant derived from seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if bits == 0 {
				bits = cfg.VDFCfg.DiscriminantBits
			}
			d, err := classgroup.CreateDiscriminant([]byte(args[0]), bits)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(d.Bytes()))
			return nil
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 0, "discriminant size, defaults to vdfcfg.discriminantbits")
	return cmd
}

func hashCommand(configPath *string) *cobra.Command {
	var disc string
	cmd := &cobra.Command{
		Use:   "hash <seed>",
		Short: "Hashes seed to an element of the class group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			raw, err := hex.DecodeString(disc)
			if err != nil {
				return fmt.Errorf("discriminant: %w", err)
			}
			d, err := classgroup.NewDiscriminant(raw)
			if err != nil {
				return err
			}
			h, err := hashtogroup.NewHasher(classgroup.New(), cfg.VDFCfg.Hash)
			if err != nil {
				return err
			}
			x, err := h.Hash([]byte(args[0]), d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(x))
			return nil
		},
	}
	cmd.Flags().StringVar(&disc, "discriminant", "", "hex discriminant magnitude")
	_ = cmd.MarkFlagRequired("discriminant")
	return cmd
}

func accumulateCommand(configPath *string) *cobra.Command {
	var (
		seed       string
		count      int
		iterations uint64
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "accumulate",
		Short: "Hashes, evaluates, accumulates and verifies a batch of elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if iterations == 0 {
				iterations = cfg.VDFCfg.Iterations
			}
			if workers == 0 {
				workers = cfg.VDFCfg.Workers
			}
			return accumulate(cmd, cfg.VDFCfg, seed, count, iterations, workers)
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "classvdf", "seed of the discriminant and of every element")
	cmd.Flags().IntVar(&count, "count", 4, "number of elements")
	cmd.Flags().Uint64Var(&iterations, "iterations", 0, "squarings per element, defaults to vdfcfg.iterations")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations, defaults to vdfcfg.workers")
	return cmd
}

func accumulate(cmd *cobra.Command, cfg *config.VDFConfig, seed string, count int, iterations uint64, workers int) error {
	out := cmd.OutOrStdout()
	engine := classgroup.New()
	d, err := classgroup.CreateDiscriminant([]byte(seed), cfg.DiscriminantBits)
	if err != nil {
		return err
	}
	h, err := hashtogroup.NewHasher(engine, cfg.Hash)
	if err != nil {
		return err
	}

	start := time.Now()
	xs := make([][]byte, count)
	for i := range xs {
		if xs[i], err = h.Hash([]byte(fmt.Sprintf("%s/%d", seed, i)), d); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "hashed %d elements in %s\n", count, time.Since(start).Round(time.Millisecond))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	acc := accumulator.New(accumulator.Config{Engine: engine, Discriminant: d})
	start = time.Now()
	st, proof, err := acc.Accumulate(ctx, xs, iterations, workers)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "evaluated and folded in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "accx  %s\naccy  %s\nproof %s\n", hex.EncodeToString(st.X), hex.EncodeToString(st.Y), hex.EncodeToString(proof))

	if !acc.Verify(st, proof, iterations) {
		return fmt.Errorf("aggregate proof rejected")
	}
	fmt.Fprintln(out, "verified")
	return nil
}
