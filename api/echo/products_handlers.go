package echo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sulpet/backoffice/store"
)

const msgProductNotFound = "Produto não encontrado"

// productNumericFields are sanitized on every write: empty strings and
// non-numeric values become null so the catalog never stores "12,5"-style
// garbage from the form.
var productNumericFields = []string{
	"peso", "custo", "bonificacao_unitaria",
	"preco_venda_A", "preco_venda_B", "preco_venda_C",
	"preco_venda_A_prazo", "preco_venda_B_prazo", "preco_venda_C_prazo",
}

// ListProductsHandler returns the full catalog.
func (a *BackOfficeAPI) ListProductsHandler(c echo.Context) error {
	records, err := a.products().List()
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateProductHandler appends a catalog record.
func (a *BackOfficeAPI) CreateProductHandler(c echo.Context) error {
	fields, err := bindRecord(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Corpo JSON inválido"})
	}

	record, err := a.products().Create(sanitizeProduct(fields))
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// UpdateProductHandler merges a patch over an existing record. The id in
// the path wins; an id inside the body is ignored.
func (a *BackOfficeAPI) UpdateProductHandler(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgProductNotFound})
	}

	patch, err := bindRecord(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Corpo JSON inválido"})
	}

	record, err := a.products().Update(id, sanitizeProduct(patch))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgProductNotFound})
	}
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// DeleteProductHandler removes a record.
func (a *BackOfficeAPI) DeleteProductHandler(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgProductNotFound})
	}

	err := a.products().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": msgProductNotFound})
	}
	if err != nil {
		return a.persistenceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func sanitizeProduct(fields store.Record) store.Record {
	out := fields.Clone()
	if out == nil {
		return store.Record{}
	}
	for _, k := range productNumericFields {
		if v, present := out[k]; present {
			out[k] = store.Number(v)
		}
	}
	for _, k := range []string{"sku", "nome"} {
		if s, isString := out[k].(string); isString {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out
}

// bindRecord decodes the request body into a Record with numeric fidelity
// preserved (json.Number instead of float64).
func bindRecord(c echo.Context) (store.Record, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()

	var rec store.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

// persistenceError answers a failed load/save. The error is logged with
// full detail; the response body never carries internals.
func (a *BackOfficeAPI) persistenceError(c echo.Context, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("persistence failure")
	return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false})
}
