package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/repository"
	"alcyxob/movement-program/internal/repository/mongo"
	"alcyxob/movement-program/internal/storage"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	target  string
	replace bool
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed [bundle.yaml...]",
		Short: "Publish corpus bundles to MongoDB or the object store",
		Example: `  plangen seed --target mongo ./bundles/2.0.0.yaml
  plangen seed --target mongo --replace=false ./bundles/2.1.0.yaml
  plangen seed --target s3 ./bundles/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.target, "target", config.CorpusMongo, "mongo or s3")
	cmd.Flags().BoolVar(&opts.replace, "replace", true, "replace a version that already exists; with --replace=false an existing version is an error (mongo only)")
	return cmd
}

func runSeed(cmd *cobra.Command, root *rootOptions, opts *seedOptions, paths []string) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()

	switch opts.target {
	case config.CorpusMongo:
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer mongo.DisconnectDB(client)

		db := client.Database(cfg.Database.Name)
		if err := mongo.EnsureTemplateIndexes(ctx, db); err != nil {
			return err
		}
		repo := mongo.NewMongoTemplateRepository(db)

		for _, path := range paths {
			bundle, err := readBundle(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			n, err := seedVersion(ctx, repo, bundle, opts.replace, log)
			if err != nil {
				return fmt.Errorf("seed %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d templates into version %s\n", path, n, bundle.ScoringVersion)
		}
		return nil

	case config.CorpusS3:
		if cfg.S3.BucketName == "" {
			return errors.New("s3.bucket_name is required")
		}
		store, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			return err
		}
		for _, path := range paths {
			// Validate with the fallback check before uploading the raw document.
			if _, err := readBundle(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			bundle, err := storage.PublishBundle(ctx, store, cfg.S3.CorpusPrefix, raw)
			if err != nil {
				return fmt.Errorf("publish %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s as %s\n", path, storage.BundleKey(cfg.S3.CorpusPrefix, bundle.ScoringVersion))
		}
		return nil

	default:
		return fmt.Errorf("unknown seed target %q", opts.target)
	}
}

// seedVersion writes a bundle as the complete template set of its version. An
// existing version is dropped first when replace is set and rejected otherwise.
func seedVersion(ctx context.Context, repo repository.TemplateRepository, bundle *corpus.Bundle, replace bool, log *logger.Logger) (int, error) {
	versions, err := repo.Versions(ctx)
	if err != nil {
		return 0, err
	}
	if slices.Contains(versions, bundle.ScoringVersion) {
		if !replace {
			return 0, fmt.Errorf("version %s already exists", bundle.ScoringVersion)
		}
		deleted, err := repo.DeleteVersion(ctx, bundle.ScoringVersion)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("drop version %s: %w", bundle.ScoringVersion, err)
		}
		log.Info("Dropped templates", "scoring_version", bundle.ScoringVersion, "count", deleted)
	}
	return repo.UpsertMany(ctx, bundle.Templates)
}
