package echo

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sulpet/backoffice/store"
)

const msgSaleNotFound = "Venda não encontrada"

// saleCreatedAtLayout matches the millisecond ISO timestamps the front end
// has always received.
const saleCreatedAtLayout = "2006-01-02T15:04:05.000Z"

type saleSummary struct {
	ID            int64   `json:"id"`
	CreatedAtISO  string  `json:"createdAtISO"`
	ItemsCount    int     `json:"itemsCount"`
	Receita       float64 `json:"receita"`
	MargemBruta   float64 `json:"margemBruta"`
	MargemLiquida float64 `json:"margemLiquida"`
}

// ListSalesHandler returns newest-first summaries of the ledger.
func (a *BackOfficeAPI) ListSalesHandler(c echo.Context) error {
	records, err := a.sales().List()
	if err != nil {
		return a.persistenceError(c, err)
	}

	summaries := make([]saleSummary, 0, len(records))
	for _, rec := range records {
		id, _ := rec.ID()
		summaries = append(summaries, saleSummary{
			ID:            id,
			CreatedAtISO:  stringField(rec, "createdAtISO"),
			ItemsCount:    len(listField(rec, "items")),
			Receita:       nestedFloat(rec, "totals", "receita"),
			MargemBruta:   nestedFloat(rec, "margins", "brutaPct"),
			MargemLiquida: nestedFloat(rec, "margins", "liquidaPct"),
		})
	}

	// RFC 3339 timestamps sort lexically, newest first.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAtISO > summaries[j].CreatedAtISO
	})

	return c.JSON(http.StatusOK, summaries)
}

// GetSaleHandler returns one full ledger record.
func (a *BackOfficeAPI) GetSaleHandler(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgSaleNotFound})
	}

	record, err := a.sales().Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgSaleNotFound})
	}
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// CreateSaleHandler records a sale. Items are required; item, total and
// margin numbers are normalized to zero when absent or malformed so the
// ledger stays arithmetically usable. The creation timestamp is stamped
// server-side.
func (a *BackOfficeAPI) CreateSaleHandler(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Corpo JSON inválido"})
	}

	items := listField(body, "items")
	if len(items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Itens obrigatórios"})
	}

	fields := store.Record{
		"createdAtISO": time.Now().UTC().Format(saleCreatedAtLayout),
		"items":        normalizeSaleItems(items),
		"totals": map[string]any{
			"receita": zeroNumber(nestedValue(body, "totals", "receita")),
		},
		"margins": map[string]any{
			"brutaPct":   zeroNumber(nestedValue(body, "margins", "brutaPct")),
			"liquidaPct": zeroNumber(nestedValue(body, "margins", "liquidaPct")),
		},
		// Room for future metadata (customer, seller, notes).
		"meta": body["meta"],
	}

	record, err := a.sales().Create(fields)
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// DeleteSaleHandler removes a ledger record.
func (a *BackOfficeAPI) DeleteSaleHandler(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgSaleNotFound})
	}

	err := a.sales().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgSaleNotFound})
	}
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func normalizeSaleItems(items []any) []any {
	normalized := make([]any, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tier := stringValue(item["tier"])
		if tier == "" {
			tier = "A"
		}
		mode := stringValue(item["mode"])
		if mode == "" {
			mode = "vista"
		}
		normalized = append(normalized, map[string]any{
			"sku":           stringValue(item["sku"]),
			"nome":          stringValue(item["nome"]),
			"tier":          tier,
			"mode":          mode,
			"unitPrice":     zeroNumber(item["unitPrice"]),
			"quantity":      zeroNumber(item["quantity"]),
			"bonusQuantity": zeroNumber(item["bonusQuantity"]),
			"bonusCashBRL":  zeroNumber(item["bonusCashBRL"]),
		})
	}
	return normalized
}

// zeroNumber is store.Number with 0 instead of null for the ledger's
// always-numeric fields.
func zeroNumber(v any) any {
	if n := store.Number(v); n != nil {
		return n
	}
	return 0
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringField(rec store.Record, key string) string {
	return stringValue(rec[key])
}

func listField(rec store.Record, key string) []any {
	list, _ := rec[key].([]any)
	return list
}

func nestedValue(rec store.Record, outer, inner string) any {
	m, _ := rec[outer].(map[string]any)
	return m[inner]
}

func nestedFloat(rec store.Record, outer, inner string) float64 {
	return store.Float(nestedValue(rec, outer, inner))
}
