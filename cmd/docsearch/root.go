package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docsearch-gateway/config"
	"docsearch-gateway/content/gemini"
	"docsearch-gateway/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Documentation search gateway",
	Long: `docsearch indexa markdown num banco vetorial SQLite e serve
POST /api/search.json atrás da validação de origem e do rate limit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "SQLite database path")

	v := viper.GetViper()
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(serveCmd, indexCmd, searchCmd, statsCmd)
}

// loadConfig lê arquivo (se houver), ambiente e flags, e monta o logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	v := viper.GetViper()
	config.Configure(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}
	return cfg, logger, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gemini.Embedder, error) {
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return nil, errors.New("gemini.api_key is required (DOCSEARCH_GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	logger.Debug("gemini embedder configured",
		zap.String("model", cfg.Gemini.Model),
		zap.Int("dimensions", cfg.Gemini.Dimensions),
		zap.Float64("rps", cfg.Gemini.RPS),
		zap.String("api_key", logging.MaskSecret(cfg.Gemini.APIKey)),
	)
	return gemini.NewEmbedder(client,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithRate(cfg.Gemini.RPS),
	), nil
}
