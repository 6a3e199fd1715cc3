package services

import (
	"context"
	"fmt"
	"strings"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/utils"

	"github.com/xuri/excelize/v2"
)

const (
	// TicketPrice is the cost of a single 7-number Dia de Sorte bet
	TicketPrice = 2.50

	exportSheetName  = "Palpites"
	rulesValidatedOK = "APROVADO"
)

var xlsxHeader = []any{
	"Jogo", "Jogo_Completo",
	"Dezena_1", "Dezena_2", "Dezena_3", "Dezena_4", "Dezena_5", "Dezena_6", "Dezena_7",
	"Mes_da_Sorte", "Mes_Abrev", "Forca", "Tentativas", "Distribuicao",
	"Finais_Iguais", "Sequencias", "Repeticoes_Ultimo", "Soma_Total", "Custo",
	"Validacao_5_Regras", "Metodo_Mes_Sorte", "Numeros_Gatilho_Usados",
}

// ExportService renders the last generated batch as downloadable files
type ExportService struct {
	batchStore interfaces.BatchStore
}

// NewExportService creates a new export service
func NewExportService(batchStore interfaces.BatchStore) *ExportService {
	return &ExportService{batchStore: batchStore}
}

// TXT returns the last batch in the one-line-per-ticket text format
func (s *ExportService) TXT(ctx context.Context) ([]byte, error) {
	result, err := s.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(FormatTXT(result)), nil
}

// XLSX returns the last batch as a spreadsheet
func (s *ExportService) XLSX(ctx context.Context) ([]byte, error) {
	result, err := s.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	return BuildWorkbook(result)
}

func (s *ExportService) lastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	result, err := s.batchStore.GetLastBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last batch: %w", err)
	}
	if result == nil || len(result.Tickets) == 0 {
		return nil, ErrNoBatch
	}
	return result, nil
}

// TicketLine formats a ticket as "01 02 03 04 05 06 07 Jan"
func TicketLine(t entities.Ticket) string {
	return utils.FormatNumbers(t.Numbers) + " " + monthAbbrev(t.LuckyMonth)
}

// FormatTXT renders a batch with a comment header and one commented block per ticket
func FormatTXT(result *entities.GenerationResult) string {
	var b strings.Builder
	b.WriteString("# PALPITES DIA DE SORTE - SISTEMA INTELIGENTE\n")
	b.WriteString("# Formato: Dezena1 Dezena2 Dezena3 Dezena4 Dezena5 Dezena6 Dezena7 MêsAbrev\n")
	b.WriteString("# 5 Regras Obrigatórias + Números Gatilho + Mês Estatístico\n")
	b.WriteString("\n")

	for i, t := range result.Tickets {
		fmt.Fprintf(&b, "# Jogo %02d: Força %d, %s, %d finais iguais\n",
			i+1, t.Strength, t.Details.Distribution, t.Details.EqualEndings)
		b.WriteString(TicketLine(t))
		b.WriteString("\n\n")
	}
	return b.String()
}

// BuildWorkbook writes a batch to a single-sheet workbook
func BuildWorkbook(result *entities.GenerationResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, xlsxHeader); err != nil {
		return nil, err
	}

	for i, t := range result.Tickets {
		row := []any{i + 1, TicketLine(t)}
		for _, n := range t.Numbers {
			row = append(row, n)
		}
		row = append(row,
			t.LuckyMonth,
			monthAbbrev(t.LuckyMonth),
			t.Strength,
			t.Attempts,
			t.Details.Distribution,
			t.Details.EqualEndings,
			t.Details.Sequences,
			t.Details.RepeatsLast,
			t.Details.Sum,
			TicketPrice,
			rulesValidatedOK,
			result.LuckyMonth.Method,
			triggersCell(t.Details.TriggersUsed),
		)
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func triggersCell(used []int) string {
	if len(used) == 0 {
		return "N/A"
	}
	return utils.FormatNumbers(used)
}

func monthAbbrev(name string) string {
	if m, ok := entities.ParseMonth(name); ok {
		return m.Abbrev()
	}
	if len([]rune(name)) > 3 {
		return string([]rune(name)[:3])
	}
	return name
}
