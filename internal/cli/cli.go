package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkforge/contentflow/internal/config"
	internal_http "github.com/inkforge/contentflow/internal/http"
	"github.com/inkforge/contentflow/internal/log"
	"github.com/inkforge/contentflow/internal/stages"
	internal_storage "github.com/inkforge/contentflow/internal/storage"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/service"
	"github.com/inkforge/contentflow/pkg/stage"
	"github.com/inkforge/contentflow/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (overrides DATABASE_URL; empty selects the in-memory store)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the workflow HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()

			registry, err := stages.NewRegistry(cfg, log.GetLogger())
			if err != nil {
				log.GetLogger().Errorf("Failed to build stage registry: %v", err)
				os.Exit(1)
			}
			svc := service.NewWorkflowService(store, registry, log.GetLogger())
			server := internal_http.NewServer(svc, cfg, log.GetLogger())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.Start(ctx); err != nil {
				log.GetLogger().Errorf("Server error: %v", err)
				os.Exit(1)
			}
		},
	}

	createCmd := &cobra.Command{
		Use:   "create [request.json]",
		Short: "Create a workflow from a JSON request file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()

			registry, err := stages.NewRegistry(cfg, log.GetLogger())
			if err != nil {
				log.GetLogger().Errorf("Failed to build stage registry: %v", err)
				os.Exit(1)
			}
			svc := service.NewWorkflowService(store, registry, log.GetLogger())

			raw, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to read request file: %v\n", err)
				os.Exit(1)
			}
			var req models.WorkflowRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid request file: %v\n", err)
				os.Exit(1)
			}
			createWorkflow(svc, req)
		},
	}

	executeCmd := &cobra.Command{
		Use:   "execute [workflow-id]",
		Short: "Execute a pending workflow",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()

			registry, err := stages.NewRegistry(cfg, log.GetLogger())
			if err != nil {
				log.GetLogger().Errorf("Failed to build stage registry: %v", err)
				os.Exit(1)
			}
			svc := service.NewWorkflowService(store, registry, log.GetLogger())

			state, err := svc.ExecuteWorkflow(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to execute workflow: %v\n", err)
				os.Exit(1)
			}
			printWorkflow(state)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status [workflow-id]",
		Short: "Show a workflow's status",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()
			svc := service.NewWorkflowService(store, stage.NewRegistry(), log.GetLogger())

			state, err := svc.GetWorkflowStatus(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to get workflow status: %v\n", err)
				os.Exit(1)
			}
			printWorkflow(state)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()
			svc := service.NewWorkflowService(store, stage.NewRegistry(), log.GetLogger())
			listWorkflows(svc)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update [workflow-id] [pause|resume|cancel|rerun]",
		Short: "Apply a lifecycle action to a workflow",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()
			svc := service.NewWorkflowService(store, stage.NewRegistry(), log.GetLogger())

			state, err := svc.UpdateWorkflow(models.WorkflowUpdateRequest{
				WorkflowID: args[0],
				Action:     models.WorkflowAction(args[1]),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to update workflow: %v\n", err)
				os.Exit(1)
			}
			printWorkflow(state)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup [workflow-id]",
		Short: "Delete a workflow and its state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(cmd, cfg)
			defer store.Close()
			svc := service.NewWorkflowService(store, stage.NewRegistry(), log.GetLogger())

			if err := svc.CleanupWorkflow(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to clean up workflow: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Deleted workflow %s\n", args[0])
		},
	}

	rootCmd.AddCommand(serveCmd, createCmd, executeCmd, statusCmd, listCmd, updateCmd, cleanupCmd)
}

func createWorkflow(svc *service.WorkflowService, req models.WorkflowRequest) {
	state, err := svc.CreateWorkflow(req)
	if err != nil {
		log.GetLogger().Errorf("Failed to create workflow: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to create workflow: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Created workflow '%s' with ID %s\n", state.WorkflowName, state.WorkflowID)
}

func listWorkflows(svc *service.WorkflowService) {
	workflows, err := svc.ListWorkflows()
	if err != nil {
		log.GetLogger().Errorf("Failed to list workflows: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list workflows: %v\n", err)
		os.Exit(1)
	}
	if len(workflows) == 0 {
		fmt.Fprintf(os.Stdout, "No workflows found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Workflows:\n")
	for _, wf := range workflows {
		fmt.Fprintf(os.Stdout, "- ID: %s, Name: %s, Status: %s, Progress: %.1f%%, Created: %s\n",
			wf.WorkflowID, wf.WorkflowName, wf.Status, wf.Progress, wf.CreatedAt.Format(time.RFC3339))
	}
}

func printWorkflow(state models.WorkflowState) {
	fmt.Fprintf(os.Stdout, "Workflow %s (%s)\n", state.WorkflowID, state.WorkflowName)
	fmt.Fprintf(os.Stdout, "  Status: %s, Progress: %.1f%%\n", state.Status, state.Progress)
	for _, step := range state.Steps {
		fmt.Fprintf(os.Stdout, "  - %s [%s] %s\n", step.StepID, step.StepType, step.Status)
	}
	if state.ErrorMessage != "" {
		fmt.Fprintf(os.Stdout, "  Error: %s\n", state.ErrorMessage)
	}
}

func loadConfig() *config.Settings {
	cfg, err := config.Load()
	if err != nil {
		log.GetLogger().Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	return cfg
}

func initStore(cmd *cobra.Command, cfg *config.Settings) storage.Store {
	connStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	if connStr == "" {
		connStr = cfg.DatabaseURL
	}
	if connStr == "" {
		log.GetLogger().Debugf("No database configured, using in-memory store")
		return storage.NewMemoryStore()
	}
	store, err := internal_storage.NewPostgresStore(connStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
