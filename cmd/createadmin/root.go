package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	userstore "github.com/dalemusser/organigram/internal/app/store/users"
	"github.com/dalemusser/organigram/internal/app/system/indexes"
	"github.com/dalemusser/organigram/internal/app/system/timeouts"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		mongoURI string
		database string
	)

	cmd := &cobra.Command{
		Use:           "createadmin",
		Short:         "Create or promote the organigram admin account",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Error("load env file failed", zap.String("file", envFile), zap.Error(err))
				return err
			}
			if mongoURI == "" {
				mongoURI = envOr("ORGANIGRAM_MONGO_URI", "mongodb://localhost:27017")
			}
			if database == "" {
				database = envOr("ORGANIGRAM_MONGO_DATABASE", "organigram")
			}

			in, err := adminFromEnv(os.Getenv)
			if err != nil {
				logger.Error("create-admin failed", zap.Error(err))
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
			defer cancel()

			client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
			if err != nil {
				logger.Error("MongoDB connect failed", zap.Error(err))
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			db := client.Database(database)
			if err := indexes.EnsureAll(ctx, db); err != nil {
				logger.Error("ensure indexes failed", zap.Error(err))
				return err
			}

			res, err := upsertAdmin(ctx, userstore.New(db), in)
			if err != nil {
				logger.Error("create-admin failed", zap.Error(err))
				return err
			}
			logger.Info("admin "+res.Action,
				zap.String("id", res.ID),
				zap.String("email", res.Email),
				zap.String("username", res.Username))
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading ADMIN_* variables")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (default $ORGANIGRAM_MONGO_URI or mongodb://localhost:27017)")
	cmd.Flags().StringVar(&database, "database", "", "MongoDB database (default $ORGANIGRAM_MONGO_DATABASE or organigram)")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(getenv func(string) string, key string) (string, error) {
	v := getenv(key)
	if v == "" {
		return "", fmt.Errorf("missing required env: %s", key)
	}
	return v, nil
}
