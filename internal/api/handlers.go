package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/service"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
	"go.uber.org/zap"
)

const version = "1.0.0"

// HealthCheck is a named dependency probed by /ready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	ingestionService   *service.IngestionService
	aggregationService *service.AggregationService
	checks             []HealthCheck
}

func NewHandler(
	ingestionService *service.IngestionService,
	aggregationService *service.AggregationService,
	checks ...HealthCheck,
) *Handler {
	return &Handler{
		ingestionService:   ingestionService,
		aggregationService: aggregationService,
		checks:             checks,
	}
}

func (h *Handler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, "arquivo é obrigatório (campo 'file')")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, "não foi possível ler o arquivo enviado")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return h.fail(c, fiber.StatusBadRequest, "não foi possível ler o arquivo enviado")
	}

	result, err := h.ingestionService.Upload(c.UserContext(), fileHeader.Filename, content)
	if err != nil && result == nil {
		return h.handleError(c, err, "")
	}
	if err != nil {
		// stored, but the report could not be generated or queued
		return c.Status(statusFor(err)).JSON(UploadResponse{
			Message: fmt.Sprintf("Arquivo %s armazenado, mas o relatório não foi gerado.", result.FileName),
			Upload:  result,
			Error:   publicMessage(err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		Message: fmt.Sprintf("Arquivo %s enviado para processamento.", result.FileName),
		Upload:  result,
	})
}

func (h *Handler) GetReport(c *fiber.Ctx) error {
	nome := c.Params("nome")

	content, err := h.aggregationService.GetReport(c.UserContext(), nome)
	if err != nil {
		return h.handleError(c, err, "Relatório não encontrado.")
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(nome + domain.ReportSuffix)
	return c.Send(content)
}

func (h *Handler) GetReportSummary(c *fiber.Ctx) error {
	summary, err := h.aggregationService.GetReportSummary(c.UserContext(), c.Params("nome"))
	if err != nil {
		return h.handleError(c, err, "Relatório não encontrado.")
	}
	return c.JSON(toSummary(summary))
}

func (h *Handler) ListReports(c *fiber.Ctx) error {
	names, err := h.aggregationService.ListReports(c.UserContext())
	if err != nil {
		return h.handleError(c, err, "")
	}
	return c.JSON(fiber.Map{"relatorios": names})
}

func (h *Handler) ListFiles(c *fiber.Ctx) error {
	names, err := h.ingestionService.ListFiles(c.UserContext())
	if err != nil {
		return h.handleError(c, err, "")
	}
	return c.JSON(fiber.Map{"arquivos": names})
}

func (h *Handler) DeleteFile(c *fiber.Ctx) error {
	nome := c.Params("nome")

	result, err := h.ingestionService.Delete(c.UserContext(), nome)
	if err != nil && result == nil {
		return h.handleError(c, err, "Arquivo não encontrado.")
	}
	if err != nil {
		logger.WithContext(c.UserContext()).Error("erro ao remover relatório",
			zap.String("arquivo", nome),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(DeleteResponse{
			Message: fmt.Sprintf("Arquivo %s deletado, mas o relatório não pôde ser removido.", nome),
			Result:  result,
			Error:   "falha no armazenamento",
		})
	}

	return c.JSON(DeleteResponse{
		Message: fmt.Sprintf("Arquivo %s deletado com sucesso.", nome),
		Result:  result,
	})
}

func (h *Handler) GetFileData(c *fiber.Ctx) error {
	rows, err := h.ingestionService.GetFileRows(c.UserContext(), c.Params("nome"))
	if err != nil {
		return h.handleError(c, err, "Arquivo CSV não encontrado.")
	}
	return c.JSON(fiber.Map{"dados": rows})
}

func (h *Handler) GetReportData(c *fiber.Ctx) error {
	rows, err := h.aggregationService.GetReportRows(c.UserContext(), c.Params("nome"))
	if err != nil {
		return h.handleError(c, err, "Relatório não encontrado.")
	}
	return c.JSON(fiber.Map{"dados": rows})
}

func (h *Handler) ProcessFile(c *fiber.Ctx) error {
	start := time.Now()

	run, err := h.aggregationService.ProcessFile(c.UserContext(), c.Params("nome"))
	if err != nil {
		return h.handleError(c, err, "Arquivo não encontrado.")
	}

	summary := toSummary(run.Aggregation)
	return c.JSON(ProcessResponse{
		Arquivo:        run.InputKey,
		Relatorio:      run.OutputKey,
		Linhas:         run.Rows,
		Regioes:        summary.Regioes,
		TotalLucro:     summary.TotalLucro,
		ProcessingTime: time.Since(start).String(),
	})
}

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	nome := c.Params("nome")

	history, err := h.aggregationService.History(c.UserContext(), nome, c.QueryInt("limit", 20))
	if err != nil {
		return h.handleError(c, err, "")
	}

	return c.JSON(HistoryResponse{
		Relatorio: nome,
		Historico: history,
	})
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   version,
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth, len(h.checks))
	status := "ready"

	for _, check := range h.checks {
		start := time.Now()
		if err := check.Check(ctx); err != nil {
			services[check.Name] = ServiceHealth{Status: "unhealthy", Error: err.Error()}
			status = "not_ready"
			continue
		}
		services[check.Name] = ServiceHealth{Status: "healthy", Latency: time.Since(start).String()}
	}

	response := HealthResponse{
		Status:    status,
		Version:   version,
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}
	return c.JSON(response)
}

// handleError maps the error taxonomy to HTTP: not found → 404, bad name or
// file → 400, bad CSV content → 422, anything else → 500.
func (h *Handler) handleError(c *fiber.Ctx, err error, notFoundMessage string) error {
	code := statusFor(err)

	message := publicMessage(err)
	if code == fiber.StatusNotFound && notFoundMessage != "" {
		message = notFoundMessage
	}
	if code >= fiber.StatusInternalServerError {
		logger.WithContext(c.UserContext()).Error("erro na requisição",
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	return h.fail(c, code, message)
}

func (h *Handler) fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidKey), errors.Is(err, domain.ErrInvalidFile):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrInvalidNumber):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrHistoryDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage hides backend details from 5xx responses.
func publicMessage(err error) string {
	switch statusFor(err) {
	case fiber.StatusInternalServerError:
		return "erro interno"
	default:
		return err.Error()
	}
}
