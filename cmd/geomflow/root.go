package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/geomflow/history"
	"github.com/BaSui01/geomflow/internal/fsutil"
	"github.com/BaSui01/geomflow/mesh"
	"github.com/BaSui01/geomflow/pipeline"
	"github.com/BaSui01/geomflow/providers"
	"github.com/BaSui01/geomflow/providers/claude"
	"github.com/BaSui01/geomflow/providers/grok"
	"github.com/BaSui01/geomflow/providers/openai"
	"github.com/BaSui01/geomflow/retry"
	"github.com/BaSui01/geomflow/settings"
)

// fileConfig 是可选 YAML 配置文件的形状，覆盖内置默认值。
// API 密钥不放这里，由环境变量 / .env / settings 提供。
type fileConfig struct {
	AppDataDir string `yaml:"app_data_dir"`

	OpenAI struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`
	Grok struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"grok"`
	Claude struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"claude"`
	Meshy struct {
		BaseURL             string `yaml:"base_url"`
		Tier                string `yaml:"tier"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	} `yaml:"meshy"`
}

// app 汇集各命令共用的已装配组件。
type app struct {
	logger  *zap.Logger
	store   *settings.Store
	ledger  *history.Ledger
	mesher  *mesh.Orchestrator
	session *pipeline.Session
	llm     settings.LLMSettings
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "geomflow",
		Short: "AI-assisted 3D generation pipeline",
		Long: `geomflow drives LLM text-to-script generation and Meshy text/image
to-3D generation, with persistent history and live script parameters.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newMeshCmd(opts),
		newHistoryCmd(opts),
		newParamsCmd(opts),
	)
	return cmd
}

// buildApp 装配日志、配置、台账与会话。
func buildApp(opts *rootOptions) (*app, error) {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	var logger *zap.Logger
	var err error
	if opts.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var fc fileConfig
	if opts.configPath != "" {
		data, err := os.ReadFile(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	appData := fc.AppDataDir
	if appData == "" {
		appData = fsutil.DefaultAppData()
	}

	store := settings.Open(settings.DefaultPath(appData), logger)
	llm := store.LoadLLM()

	// 环境变量优先于 settings 文件
	overrideFromEnv(&llm)

	ledger := history.Open(store, logger)

	mesher := mesh.New(mesh.Config{
		APIKey:          llm.MeshyAPIKey,
		BaseURL:         fc.Meshy.BaseURL,
		AppDataDir:      appData,
		PollInterval:    time.Duration(fc.Meshy.PollIntervalSeconds) * time.Second,
		Tier:            mesh.Tier(fc.Meshy.Tier),
		TargetPolycount: llm.Polycount,
	}, logger)

	session := pipeline.New(mesher, ledger, nil, logger)
	policy := retry.DefaultPolicy()

	if llm.OpenAIAPIKey != "" {
		p := openai.New(openai.Config{
			APIKey:  llm.OpenAIAPIKey,
			BaseURL: fc.OpenAI.BaseURL,
			Model:   fc.OpenAI.Model,

			SystemPrompt: llm.SystemPrompt,
			Temperature:  llm.Temperature,
			MaxTokens:    llm.MaxTokens,
		}, logger)
		session.Register(providers.WithRetry(p, policy, logger))
	}
	if llm.GrokAPIKey != "" {
		p := grok.New(grok.Config{
			APIKey:  llm.GrokAPIKey,
			BaseURL: fc.Grok.BaseURL,
			Model:   fc.Grok.Model,

			SystemPrompt: llm.SystemPrompt,
			Temperature:  llm.Temperature,
			MaxTokens:    llm.MaxTokens,
		}, logger)
		session.Register(providers.WithRetry(p, policy, logger))
	}
	if llm.ClaudeAPIKey != "" {
		p := claude.New(claude.Config{
			APIKey:       llm.ClaudeAPIKey,
			BaseURL:      fc.Claude.BaseURL,
			Model:        fc.Claude.Model,
			SystemPrompt: llm.SystemPrompt,
			Temperature:  llm.Temperature,
			MaxTokens:    llm.MaxTokens,
		}, logger)
		session.Register(providers.WithRetry(p, policy, logger))
	}

	return &app{
		logger:  logger,
		store:   store,
		ledger:  ledger,
		mesher:  mesher,
		session: session,
		llm:     llm,
	}, nil
}

func overrideFromEnv(llm *settings.LLMSettings) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		llm.OpenAIAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		llm.ClaudeAPIKey = v
	}
	if v := os.Getenv("GROK_API_KEY"); v != "" {
		llm.GrokAPIKey = v
	}
	if v := os.Getenv("MESHY_API_KEY"); v != "" {
		llm.MeshyAPIKey = v
	}
	if v := os.Getenv("GEOMFLOW_PROVIDER"); v != "" {
		llm.ActiveProvider = v
	}
}

// shortID 截取 UUID 前 8 位用于列表展示。
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
