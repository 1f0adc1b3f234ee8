package main

import (
	"fmt"
	"time"

	"clip_service/internal/pipeline/app"
	"clip_service/internal/pipeline/domain"
	"clip_service/pkg/database"

	"github.com/spf13/cobra"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var job domain.ProcessingJob

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a processing job for an uploaded item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := job.Validate(); err != nil {
				return err
			}

			cfg, err := ctx.config()
			if err != nil {
				return err
			}

			conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
				ConnectStr:    cfg.RabbitMQ.URL(),
				RetryCount:    cfg.RabbitMQ.RetryCount,
				RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
			if err != nil {
				return err
			}
			defer ch.Close()

			queues := domain.NewQueueNames(cfg.RabbitMQ.Queue)
			if err := app.DeclareTopology(ch, queues); err != nil {
				return err
			}

			if err := app.NewEnqueuer(database.NewRabbitRepository(ch), queues.Work).Enqueue(job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s on %s\n", job.ID(), queues.Work)
			return nil
		},
	}

	cmd.Flags().StringVar(&job.ItemID, "item", "", "Item id")
	cmd.Flags().StringVar(&job.StorageKey, "key", "", "Object key of the uploaded original")
	cmd.Flags().StringVar(&job.OriginalFilename, "filename", "", "Original filename, decides the extension")
	cmd.Flags().StringVar(&job.ThumbnailURL, "thumbnail-url", "", "Cover image url")
	cmd.Flags().StringVar(&job.SourceURL, "source-url", "", "Source page url for thumbnail extraction")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
