package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jeovahfialho/relatorio-vendas/internal/api"
	"github.com/jeovahfialho/relatorio-vendas/internal/bootstrap"
	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	pkglogger "github.com/jeovahfialho/relatorio-vendas/pkg/logger"
)

// @title Relatório de Vendas API
// @version 1.0
// @description API para envio de arquivos de vendas e consulta dos relatórios por região

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		log.Fatal("Erro ao inicializar logger:", err)
	}
	defer pkglogger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := bootstrap.Build(ctx, cfg, false)
	cancel()
	if err != nil {
		pkglogger.Fatal("erro ao inicializar dependências", zap.Error(err))
	}
	defer deps.Close()

	handler := api.NewHandler(deps.Ingestion, deps.Aggregation, deps.HealthChecks()...)
	app := api.NewApp(cfg, handler)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		pkglogger.Info("encerrando servidor")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			pkglogger.Error("erro ao encerrar servidor", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	pkglogger.Info("servidor iniciado",
		zap.String("addr", addr),
		zap.String("storage", cfg.StorageDriver),
		zap.String("trigger", cfg.PipelineTrigger))

	if err := app.Listen(addr); err != nil {
		pkglogger.Fatal("erro no servidor", zap.Error(err))
	}
}
