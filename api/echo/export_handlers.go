package echo

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

// csvColumns is the fixed export column order the sales team's spreadsheets
// expect.
var csvColumns = []string{
	"id", "sku", "nome", "peso", "custo",
	"preco_venda_A", "preco_venda_B", "preco_venda_C",
	"preco_venda_A_prazo", "preco_venda_B_prazo", "preco_venda_C_prazo",
	"bonificacao_unitaria",
}

// ExportProductsCSVHandler renders the catalog as a CSV attachment.
func (a *BackOfficeAPI) ExportProductsCSVHandler(c echo.Context) error {
	records, err := a.products().List()
	if err != nil {
		return a.persistenceError(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return a.persistenceError(c, err)
	}
	for _, rec := range records {
		row := make([]string, len(csvColumns))
		for i, col := range csvColumns {
			row[i] = cellString(rec[col])
		}
		if err := w.Write(row); err != nil {
			return a.persistenceError(c, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return a.persistenceError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="produtos.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

type productRow struct {
	ID    int64
	SKU   string
	Nome  string
	Peso  string
	Custo string
	AV    string
	AP    string
	BV    string
	BP    string
	CV    string
	CP    string
}

// ExportProductsHTMLHandler renders the catalog as the printable price
// table the sales team hands out.
func (a *BackOfficeAPI) ExportProductsHTMLHandler(c echo.Context) error {
	records, err := a.products().List()
	if err != nil {
		return a.persistenceError(c, err)
	}

	rows := make([]productRow, 0, len(records))
	for _, rec := range records {
		id, _ := rec.ID()
		rows = append(rows, productRow{
			ID:    id,
			SKU:   cellString(rec["sku"]),
			Nome:  cellString(rec["nome"]),
			Peso:  cellString(rec["peso"]),
			Custo: money(rec["custo"]),
			AV:    money(rec["preco_venda_A"]),
			AP:    money(rec["preco_venda_A_prazo"]),
			BV:    money(rec["preco_venda_B"]),
			BP:    money(rec["preco_venda_B_prazo"]),
			CV:    money(rec["preco_venda_C"]),
			CP:    money(rec["preco_venda_C_prazo"]),
		})
	}

	var buf bytes.Buffer
	if err := productTableTemplate.Execute(&buf, rows); err != nil {
		return a.persistenceError(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// money formats a price with two decimals, or passes the raw cell through
// when it is not numeric.
func money(v any) string {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return fmt.Sprintf("%.2f", f)
		}
	}
	return cellString(v)
}

var productTableTemplate = template.Must(template.New("products").Parse(`<!doctype html>
<html lang="pt-BR"><head><meta charset="utf-8"/>
<title>Catálogo de Produtos</title>
<style>
  body{font-family:system-ui,-apple-system,Segoe UI,Roboto; background:#0f172a; color:#e2e8f0; margin:24px;}
  .brand{display:flex;align-items:center;gap:12px;margin-bottom:16px}
  .brand img{width:40px;height:40px}
  h1{margin:0;font-size:20px}
  table{width:100%;border-collapse:separate;border-spacing:0 8px}
  th,td{padding:12px 14px;text-align:left}
  th{color:#94a3b8;font-weight:600}
  tr{background:#0b1220;border-radius:12px}
  tr td:first-child{border-top-left-radius:12px;border-bottom-left-radius:12px}
  tr td:last-child{border-top-right-radius:12px;border-bottom-right-radius:12px}
  .badge{display:inline-block;padding:2px 8px;border-radius:999px;font-size:12px}
  .custo{background:#1e40af33;color:#93c5fd}
  .av{background:#10b98133;color:#86efac}
  .bz{background:#ffffff22;color:#e2e8f0;border:1px solid #ffffff33}
  .cz{background:#f59e0b33;color:#fde68a}
</style></head>
<body>
  <div class="brand">
    <img src="/public/logo.png" alt="logo"/>
    <h1>Sulpet • Tabela de Produtos</h1>
  </div>
  <table>
    <thead>
      <tr>
        <th>ID</th><th>SKU</th><th>Nome</th><th>Peso</th>
        <th>Custo</th>
        <th>A (à vista)</th><th>A (prazo)</th>
        <th>B (à vista)</th><th>B (prazo)</th>
        <th>C (à vista)</th><th>C (prazo)</th>
      </tr>
    </thead>
    <tbody>
      {{range .}}
      <tr>
        <td>{{.ID}}</td>
        <td>{{.SKU}}</td>
        <td>{{.Nome}}</td>
        <td>{{.Peso}}</td>
        <td><span class="badge custo">R$ {{.Custo}}</span></td>
        <td><span class="badge av">R$ {{.AV}}</span></td>
        <td><span class="badge av">R$ {{.AP}}</span></td>
        <td><span class="badge bz">R$ {{.BV}}</span></td>
        <td><span class="badge bz">R$ {{.BP}}</span></td>
        <td><span class="badge cz">R$ {{.CV}}</span></td>
        <td><span class="badge cz">R$ {{.CP}}</span></td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body></html>`))
