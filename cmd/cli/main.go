package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeovahfialho/relatorio-vendas/internal/bootstrap"
	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/ingestion"
	"github.com/jeovahfialho/relatorio-vendas/internal/queue"
	pkglogger "github.com/jeovahfialho/relatorio-vendas/pkg/logger"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "relatorio-vendas",
		Short: "CLI do pipeline de relatórios de vendas",
		Long: `CLI para o data lake de vendas.
Envia arquivos CSV para raw/, gera relatórios de receita por região em
relatorios/ e consome eventos da fila de processamento.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return pkglogger.Init(cfg.LogLevel, true)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			pkglogger.Close()
		},
	}

	// Comando upload
	var uploadCmd = &cobra.Command{
		Use:   "upload [files...]",
		Short: "Envia arquivos CSV para o data lake",
		Long: `Envia arquivos CSV locais para raw/ e dispara o processamento conforme
PIPELINE_TRIGGER. Aceita múltiplos arquivos e wildcards (ex: data/*.csv)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return uploadFiles(args)
		},
	}

	// Comando list
	var listCmd = &cobra.Command{
		Use:       "list [arquivos|relatorios]",
		Short:     "Lista arquivos brutos ou relatórios",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"arquivos", "relatorios"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "arquivos"
			if len(args) == 1 {
				what = args[0]
			}
			return listObjects(what)
		},
	}

	// Comando process
	var processCmd = &cobra.Command{
		Use:   "process [names...]",
		Short: "Gera (ou regera) relatórios",
		Long: `Executa o pipeline para os arquivos informados, ou para todos os
arquivos em raw/ com --all, usando WORKERS goroutines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) == 0 {
				return errors.New("informe ao menos um arquivo ou use --all")
			}
			return processFiles(args, all)
		},
	}

	processCmd.Flags().BoolP("all", "a", false, "Processa todos os arquivos de raw/")

	// Comando report
	var reportCmd = &cobra.Command{
		Use:   "report [name]",
		Short: "Mostra o relatório de um arquivo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("csv")
			return showReport(args[0], raw)
		},
	}

	reportCmd.Flags().Bool("csv", false, "Imprime o CSV armazenado sem formatação")

	// Comando delete
	var deleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Remove um arquivo bruto e seu relatório",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteFile(args[0])
		},
	}

	// Comando worker
	var workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Consome eventos da fila e gera os relatórios",
		Long: `Consome eventos de criação de objetos (publicados pela API com
PIPELINE_TRIGGER=queue ou enviados pelas notificações do bucket) e executa o
pipeline para cada arquivo em raw/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker()
		},
	}

	// Comando health
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifica saúde do sistema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	rootCmd.AddCommand(uploadCmd, listCmd, processCmd, reportCmd, deleteCmd, workerCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func connect(ctx context.Context, withQueue bool) (*bootstrap.Dependencies, error) {
	deps, err := bootstrap.Build(ctx, config.Load(), withQueue)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar: %w", err)
	}
	return deps, nil
}

// expandPaths resolves wildcards, keeping literal paths that match nothing.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("padrão inválido %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func uploadFiles(args []string) error {
	ctx := context.Background()

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	deps, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	fmt.Printf("📤 Enviando %d arquivo(s)...\n\n", len(paths))

	var failed int
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("❌ Erro ao ler %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := deps.Ingestion.Upload(ctx, filepath.Base(path), content)
		switch {
		case err != nil && result == nil:
			fmt.Printf("❌ Erro ao enviar %s: %v\n", path, err)
			failed++
		case err != nil:
			fmt.Printf("⚠️  %s armazenado em %s, mas não processado: %v\n", path, result.Key, err)
			failed++
		default:
			fmt.Printf("✅ %s → %s (%s, %s)\n", path, result.Key, formatBytes(result.Size), result.Status)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d de %d arquivo(s) com erro", failed, len(paths))
	}
	return nil
}

func listObjects(what string) error {
	ctx := context.Background()

	deps, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	var names []string
	switch what {
	case "relatorios":
		names, err = deps.Aggregation.ListReports(ctx)
	default:
		names, err = deps.Ingestion.ListFiles(ctx)
	}
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Printf("❌ Nenhum item em %s\n", what)
		return nil
	}

	fmt.Printf("📂 %d %s:\n", len(names), what)
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func processFiles(names []string, all bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	start := time.Now()

	var results []ingestion.JobResult
	if all {
		results, err = deps.Aggregation.ProcessAll(ctx, deps.Config.Workers)
		if err != nil {
			return err
		}
	} else {
		keys := make([]string, 0, len(names))
		for _, name := range names {
			key, err := domain.RawKey(name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			keys = append(keys, key)
		}
		results = ingestion.ProcessAll(ctx, deps.Config.Workers, deps.Aggregation, keys)
	}

	fmt.Printf("⚙️  Processando %d arquivo(s)...\n\n", len(results))

	var failed, rows int
	for _, result := range results {
		if result.Error != nil {
			fmt.Printf("❌ Erro em %s: %v\n", result.InputKey, result.Error)
			failed++
			continue
		}
		rows += result.Run.Rows
		fmt.Printf("✅ %s → %s (%d linhas, total_lucro %s)\n",
			result.InputKey,
			result.Run.OutputKey,
			result.Run.Rows,
			ingestion.FormatAmount(result.Run.Aggregation.Total))
	}

	fmt.Printf("\n📊 Total: %d linhas em %s\n", rows, time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d de %d arquivo(s) com erro", failed, len(results))
	}
	return nil
}

func showReport(name string, raw bool) error {
	ctx := context.Background()

	deps, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	if raw {
		content, err := deps.Aggregation.GetReport(ctx, name)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(content)
		return err
	}

	summary, err := deps.Aggregation.GetReportSummary(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("\n📊 Receita por região em %s:\n", name)
	for _, total := range summary.Totals() {
		fmt.Printf("├─ %-20s R$ %s\n", total.Regiao, ingestion.FormatAmount(total.TotalReceita))
	}
	fmt.Printf("└─ %-20s R$ %s\n", domain.ReportTotalLabel, ingestion.FormatAmount(summary.Total))

	return nil
}

func deleteFile(name string) error {
	ctx := context.Background()

	deps, err := connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	result, err := deps.Ingestion.Delete(ctx, name)
	if err != nil && result == nil {
		return err
	}

	fmt.Printf("🗑️  %s removido\n", result.RawKey)
	if result.ReportDeleted {
		fmt.Printf("🗑️  %s removido\n", result.ReportKey)
	}
	return err
}

func runWorker() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	consumer, err := queue.NewConsumer(deps.AMQP, deps.Config.AMQPQueue, deps.Config.Workers)
	if err != nil {
		return err
	}
	defer consumer.Close()

	fmt.Printf("👷 Worker aguardando eventos em %s (Ctrl+C para sair)\n", deps.Config.AMQPQueue)

	err = consumer.Run(ctx, func(ctx context.Context, key string) error {
		_, err := deps.Aggregation.Process(ctx, key)
		return err
	})
	if errors.Is(err, context.Canceled) {
		pkglogger.Info("worker encerrado")
		return nil
	}
	if err != nil {
		pkglogger.Error("worker interrompido", zap.Error(err))
	}
	return err
}

// checkHealth verifica a saúde do sistema
func checkHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("🏥 Verificando saúde do sistema...")
	fmt.Println()

	deps, err := connect(ctx, false)
	if err != nil {
		fmt.Printf("❌ Erro: %v\n", err)
		return err
	}
	defer deps.Close()

	var unhealthy int
	for _, check := range deps.HealthChecks() {
		fmt.Printf("%s: ", check.Name)
		if err := check.Check(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
			unhealthy++
			continue
		}
		fmt.Println("✅ OK")
	}

	if deps.DB == nil {
		fmt.Println("postgres: ⚪ não configurado")
	}
	if deps.Cache == nil {
		fmt.Println("redis: ⚪ não configurado")
	}

	if unhealthy > 0 {
		return fmt.Errorf("%d serviço(s) com problema", unhealthy)
	}

	fmt.Println("\n✅ Verificação concluída!")
	return nil
}

// formatBytes formata tamanho em bytes
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
