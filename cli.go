package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	analystx "github.com/tanpawarit/fintech-research-agents/agent/agents/analyst"
	orchestratorx "github.com/tanpawarit/fintech-research-agents/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	llmx "github.com/tanpawarit/fintech-research-agents/agent/llm"
	promptx "github.com/tanpawarit/fintech-research-agents/agent/prompt"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
	configx "github.com/tanpawarit/fintech-research-agents/pkg/config"
	logx "github.com/tanpawarit/fintech-research-agents/pkg/logger"
	qstashx "github.com/tanpawarit/fintech-research-agents/pkg/qstash"
)

const (
	persistNone     = "none"
	persistUpstash  = "upstash"
	persistPostgres = "postgres"
)

func setupCLI(rootCmd *cobra.Command) {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [company]",
		Short: "Research one company and write the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(cmd); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(ctx, cmd, strings.Join(args, " "))
		},
	}
	analyzeCmd.Flags().String("output", ".", "directory for the analysis_<company>.json file")
	analyzeCmd.Flags().String("roster", "", "YAML file overriding the embedded agent roster")
	analyzeCmd.Flags().String("publish", "", "QStash destination URL or topic to publish the result to")

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a stored workflow result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(cmd); err != nil {
				return err
			}
			return withStore(cmd.Context(), cmd, func(store contractx.ResultStore) error {
				res, err := store.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run-id]",
		Short: "Remove a stored workflow result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(cmd); err != nil {
				return err
			}
			return withStore(cmd.Context(), cmd, func(store contractx.ResultStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
				return nil
			})
		},
	}

	rootCmd.AddCommand(analyzeCmd, showCmd, deleteCmd)
}

// loadEnv applies --env and re-initializes logging from the loaded values.
func loadEnv(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env")
	if err != nil {
		return err
	}
	configx.SetEnvFile(envFile)

	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return err
	}
	logx.Init(*logCfg)
	return nil
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, company string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	rosterPath, _ := cmd.Flags().GetString("roster")
	destination, _ := cmd.Flags().GetString("publish")

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return err
	}
	orchestratorCfg, err := configx.New[orchestratorx.Config]("ORCHESTRATOR")
	if err != nil {
		return err
	}

	prompts, err := promptx.LoadPromptSet()
	if err != nil {
		return err
	}
	roster := prompts.Roster
	if strings.TrimSpace(rosterPath) != "" {
		if roster, err = promptx.LoadRosterFile(rosterPath); err != nil {
			return err
		}
	}

	models, err := analystx.NewModelRegistry(ctx, *llmCfg, prompts.System)
	if err != nil {
		return err
	}
	orchestrator, err := orchestratorx.New(models, roster, *orchestratorCfg)
	if err != nil {
		return err
	}

	res, err := orchestrator.RunWorkflow(ctx, company)
	if err != nil {
		return err
	}

	path, err := writeResultFile(outputDir, res)
	if err != nil {
		return err
	}

	if err := withStore(ctx, cmd, func(store contractx.ResultStore) error {
		return store.Save(ctx, res)
	}); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	if strings.TrimSpace(destination) != "" {
		if err := publishResult(ctx, destination, res); err != nil {
			return err
		}
	}

	printSummary(cmd, res, path)
	return nil
}

// outputFileName keeps the name inside the output directory: whitespace and
// path separators become underscores.
func outputFileName(company string) string {
	name := strings.Join(strings.Fields(company), "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator || r == 0 {
			return '_'
		}
		return r
	}, name)
	return filepath.Base(fmt.Sprintf("analysis_%s.json", name))
}

func writeResultFile(dir string, res *contractx.WorkflowResult) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(dir, outputFileName(res.CompanyName))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

// withStore opens the store selected by --persist. "none" is a no-op.
func withStore(ctx context.Context, cmd *cobra.Command, fn func(contractx.ResultStore) error) error {
	kind, err := cmd.Flags().GetString("persist")
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", persistNone:
		if cmd.Name() == "analyze" {
			return nil
		}
		return errors.New("--persist must name a store (upstash or postgres)")
	case persistUpstash:
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return err
		}
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			return err
		}
		return fn(store)
	case persistPostgres:
		cfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return err
		}
		store, err := statex.NewPostgresStore(*cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		return fn(store)
	default:
		return fmt.Errorf("unsupported --persist value %q", kind)
	}
}

func publishResult(ctx context.Context, destination string, res *contractx.WorkflowResult) error {
	cfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return err
	}
	client, err := qstashx.NewClient(*cfg)
	if err != nil {
		return err
	}
	messageID, err := client.PublishJSON(ctx, destination, res)
	if err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	log.Info().Str("run_id", res.RunID).Str("message_id", messageID).Msg("published result")
	return nil
}

func printSummary(cmd *cobra.Command, res *contractx.WorkflowResult, path string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analysis complete for %s (run %s)\n", res.CompanyName, res.RunID)
	fmt.Fprintf(out, "Results saved to: %s\n", path)
	fmt.Fprintf(out, "Total execution time: %.2fs\n", res.Summary.TotalExecutionTime)
	fmt.Fprintf(out, "  - Agents executed: %d\n", len(res.ExecutionLogs))
	fmt.Fprintf(out, "  - Sections completed: %d\n", len(res.Summary.SectionsCompleted))
	fmt.Fprintf(out, "  - Tools used: %s\n", strings.Join(res.Summary.ToolsUsed, ", "))
	fmt.Fprintf(out, "  - Parallel executions: %d\n", res.Summary.ParallelExecutions)
	if res.Summary.FinancialHealth != "" {
		fmt.Fprintf(out, "  - Financial health: %s\n", res.Summary.FinancialHealth)
	}
	if res.Summary.Degraded {
		fmt.Fprintln(out, "  - Some agents failed; see execution_logs for details")
	}
}
