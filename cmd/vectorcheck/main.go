// Package main implements vectorcheck, a maintenance CLI that inspects the
// stored part vectors the legacy backend scans.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eecar/partsearch/internal/config"
	dbRedis "github.com/eecar/partsearch/internal/db/redis"
	logpkg "github.com/eecar/partsearch/internal/logger"
	"github.com/eecar/partsearch/internal/repository/catalog"
	"github.com/eecar/partsearch/internal/repository/vectorstore"
	"github.com/eecar/partsearch/internal/version"
)

var (
	env         string
	concurrency int
	expectedDim int
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vectorcheck",
	Short:   "Inspect stored part vectors",
	Version: version.String(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (local, prod)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 16, "parallel vector reads")
	dimsCmd.Flags().IntVar(&expectedDim, "expected-dim", 0, "expected dimension (default: embedding.dimensions)")
	rootCmd.AddCommand(dimsCmd)
	rootCmd.AddCommand(missingCmd)
}

// dimsCmd prints a histogram of vector dimensions.
var dimsCmd = &cobra.Command{
	Use:   "dims",
	Short: "Histogram of stored vector dimensions",
	Long: `Load every stored part vector and count them by dimension.

A vector whose dimension differs from the query embedding makes a legacy
(brute-force) search fail with a dimension mismatch error, so every Legacy
request fails until the vector is re-embedded. This command lists them.`,
	RunE: runDims,
}

// missingCmd lists catalog parts without a stored vector.
var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List catalog parts that have no stored vector",
	RunE:  runMissing,
}

type deps struct {
	cfg     config.Config
	store   *dbRedis.Store
	vectors *vectorstore.Repo
	logger  *zap.Logger
}

func connect(ctx context.Context) (*deps, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := store.WaitForReady(ctx, config.Seconds(cfg.Database.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return &deps{
		cfg:     cfg,
		store:   store,
		vectors: vectorstore.New(store, cfg.Storage.KeyPrefix),
		logger:  logger,
	}, nil
}

func runDims(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	d, err := connect(ctx)
	if err != nil {
		return err
	}
	defer d.store.Close()

	want := expectedDim
	if want <= 0 {
		want = d.cfg.Embedding.Dimensions
	}

	start := time.Now()
	keys, err := d.vectors.ListKeys(ctx, vectorstore.KeyPrefix)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	dims := make([]int, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		g.Go(func() error {
			v, err := d.vectors.GetVector(gctx, key)
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}
			dims[i] = len(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	hist := map[int]int{}
	var off []string
	for i, n := range dims {
		hist[n]++
		if n != want {
			off = append(off, vectorstore.PartID(keys[i]))
		}
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tVECTORS")
	for _, n := range sortedKeys(hist) {
		label := fmt.Sprint(n)
		if n == 0 {
			label = "missing"
		}
		fmt.Fprintf(tw, "%s\t%d\n", label, hist[n])
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\n%d vectors in %s, %d not %d-dimensional\n",
		len(keys), time.Since(start).Round(time.Millisecond), len(off), want)
	for _, id := range off {
		fmt.Fprintln(out, "  "+id)
	}
	return nil
}

func runMissing(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	d, err := connect(ctx)
	if err != nil {
		return err
	}
	defer d.store.Close()

	parts, err := catalog.New(d.store, d.cfg.Storage.KeyPrefix, d.logger).List(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	keys, err := d.vectors.ListKeys(ctx, vectorstore.KeyPrefix)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	have := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		have[vectorstore.PartID(k)] = struct{}{}
	}

	out := cmd.OutOrStdout()
	missing := 0
	for _, p := range parts {
		if _, ok := have[p.ID]; ok {
			continue
		}
		missing++
		fmt.Fprintf(out, "%s\t%s\n", p.ID, p.Name)
	}
	fmt.Fprintf(out, "\n%d of %d parts have no vector\n", missing, len(parts))
	return nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
