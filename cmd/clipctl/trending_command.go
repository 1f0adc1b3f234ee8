package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"clip_service/internal/trending/app"
	"clip_service/internal/trending/domain"
	"clip_service/internal/trending/repository"
	"clip_service/pkg/database"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Inspect or recompute trending scores",
	}

	cmd.AddCommand(newTrendingRunCommand(ctx))
	cmd.AddCommand(newTrendingShowCommand(ctx))
	cmd.AddCommand(newTrendingReportsCommand(ctx))
	return cmd
}

func newTrendingRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Recompute trending scores once, honoring the single-flight lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}

			pool, err := database.NewDatabaseConnection(database.Connection{
				ConnectStr:    cfg.PostgreSQL.DSN(),
				RetryCount:    cfg.PostgreSQL.RetryCount,
				RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()
			host, _ := os.Hostname()
			locker := database.NewRedisLocker(rdb, "clip:lock:", fmt.Sprintf("clipctl-%s-%s", host, uuid.NewString()[:8]))

			reports, closeReports, err := openReports(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeReports()

			engine := app.NewEngine(repository.NewScoreRepo(pool), reports, locker, cfg.LockTTL)
			res := engine.Run(cmd.Context(), domain.TriggerManual)

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Success", "Skipped", "Items", "Duration (ms)", "Error"},
				[][]string{{
					strconv.FormatBool(res.Success),
					strconv.FormatBool(res.Skipped),
					strconv.Itoa(res.ItemCount),
					strconv.FormatInt(res.DurationMs, 10),
					res.Error,
				}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			if !res.Success && !res.Skipped {
				return fmt.Errorf("trending run failed: %s", res.Error)
			}
			return nil
		},
	}
}

func newTrendingShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}

			pool, err := database.NewDatabaseConnection(database.Connection{
				ConnectStr:    cfg.PostgreSQL.DSN(),
				RetryCount:    cfg.PostgreSQL.RetryCount,
				RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			scores, err := repository.NewScoreRepo(pool).ListScores(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(scores) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No trending scores yet")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderScores(scores))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of rows")
	return cmd
}

func newTrendingReportsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Print the most recent trending run reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, closeReports, err := openReports(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer closeReports()

			list, err := reports.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No run reports (is mongo configured?)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReports(list))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of reports")
	return cmd
}

// openReports mongo report repo when configured, nop otherwise
func openReports(c context.Context, ctx *commandContext) (repository.ReportRepo, func(), error) {
	cfg, err := ctx.config()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mongo.URI == "" {
		return repository.NewNopReportRepo(), func() {}, nil
	}

	mdb, err := database.NewMongoDB(c, database.Connection{
		ConnectStr:    cfg.Mongo.URI,
		RetryCount:    cfg.Mongo.RetryCount,
		RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
	}, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewMongoReportRepo(mdb.Database), func() { _ = mdb.Close(context.Background()) }, nil
}
