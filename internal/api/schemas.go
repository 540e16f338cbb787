package api

import (
	"time"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/ingestion"
	"github.com/jeovahfialho/relatorio-vendas/internal/service"
)

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type UploadResponse struct {
	Message string                `json:"message"`
	Upload  *service.UploadResult `json:"upload"`
	Error   string                `json:"error,omitempty"`
}

type DeleteResponse struct {
	Message string                `json:"message"`
	Result  *service.DeleteResult `json:"result"`
	Error   string                `json:"error,omitempty"`
}

type RegionTotalDTO struct {
	Regiao       string `json:"regiao"`
	TotalReceita string `json:"total_receita"`
}

type SummaryResponse struct {
	Regioes    []RegionTotalDTO `json:"regioes"`
	TotalLucro string           `json:"total_lucro"`
}

type ProcessResponse struct {
	Arquivo        string           `json:"arquivo"`
	Relatorio      string           `json:"relatorio"`
	Linhas         int              `json:"linhas"`
	Regioes        []RegionTotalDTO `json:"regioes"`
	TotalLucro     string           `json:"total_lucro"`
	ProcessingTime string           `json:"processing_time,omitempty"`
}

type HistoryResponse struct {
	Relatorio string                `json:"relatorio"`
	Historico []ingestion.RunRecord `json:"historico"`
}

func toSummary(result *domain.AggregationResult) SummaryResponse {
	regioes := make([]RegionTotalDTO, 0, result.Len())
	for _, t := range result.Totals() {
		regioes = append(regioes, RegionTotalDTO{
			Regiao:       t.Regiao,
			TotalReceita: ingestion.FormatAmount(t.TotalReceita),
		})
	}
	return SummaryResponse{
		Regioes:    regioes,
		TotalLucro: ingestion.FormatAmount(result.Total),
	}
}
