package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-contractgen/pkg/model"
)

var fixedNow = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, WithClock(func() time.Time { return fixedNow })), mock
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`^CREATE TABLE IF NOT EXISTS "contractgen_templates"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`^CREATE TABLE IF NOT EXISTS "contractgen_contracts"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutTemplate(t *testing.T) {
	s, mock := newMockStore(t)
	tpl := model.Template{ID: "tpl-1", Name: "Paving", Content: "{{client.name}}", Version: "1.0", IsActive: true}

	mock.ExpectExec(`^INSERT INTO "contractgen_templates"`).
		WithArgs("tpl-1", pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.PutTemplate(context.Background(), tpl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTemplate(t *testing.T) {
	s, mock := newMockStore(t)
	tpl := model.Template{
		ID:      "tpl-1",
		Name:    "Paving",
		Type:    model.TemplateTypePaving,
		Content: "Client: {{client.name}}",
		RequiredFields: []model.FieldDescriptor{
			{FieldID: "client.name", Label: "Name", Type: model.FieldTypeText, Required: true},
		},
		Version:  "1.0",
		IsActive: true,
		Created:  fixedNow,
	}
	payload, err := json.Marshal(tpl)
	require.NoError(t, err)

	mock.ExpectQuery(`^SELECT payload FROM "contractgen_templates" WHERE id = \$1`).
		WithArgs("tpl-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, ok, err := s.GetTemplate(context.Background(), "tpl-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tpl.Name, got.Name)
	assert.Equal(t, tpl.RequiredFields, got.RequiredFields)
	assert.True(t, got.Created.Equal(fixedNow))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTemplateMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`^SELECT payload FROM "contractgen_templates"`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	_, ok, err := s.GetTemplate(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutContract(t *testing.T) {
	s, mock := newMockStore(t)
	contract := model.Contract{
		ID:          "c-1",
		TemplateID:  "tpl-1",
		Status:      model.StatusDraft,
		Version:     3,
		FieldValues: map[string]model.Value{"payment.total": model.CurrencyValue(1200)},
	}

	mock.ExpectExec(`^INSERT INTO "contractgen_contracts"`).
		WithArgs("c-1", "tpl-1", "draft", 3, pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.PutContract(context.Background(), contract))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListContracts(t *testing.T) {
	s, mock := newMockStore(t)
	first := model.Contract{
		ID:         "c-1",
		TemplateID: "tpl-1",
		Status:     model.StatusDraft,
		Version:    1,
		FieldValues: map[string]model.Value{
			"client.name":   model.TextValue("Acme"),
			"payment.total": model.CurrencyValue(1200),
		},
	}
	second := model.Contract{ID: "c-2", TemplateID: "tpl-1", Status: model.StatusSigned, Version: 4}
	rawFirst, err := json.Marshal(first)
	require.NoError(t, err)
	rawSecond, err := json.Marshal(second)
	require.NoError(t, err)

	mock.ExpectQuery(`^SELECT payload FROM "contractgen_contracts" ORDER BY seq`).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(rawFirst).AddRow(rawSecond))

	got, err := s.ListContracts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-1", got[0].ID)
	assert.Equal(t, "Acme", got[0].FieldValues["client.name"].Text())
	total, ok := got[0].FieldValues["payment.total"].Number()
	require.True(t, ok)
	assert.Equal(t, 1200.0, total)
	assert.Equal(t, model.FieldTypeCurrency, got[0].FieldValues["payment.total"].Kind())
	assert.Equal(t, model.StatusSigned, got[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTemplatesQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`^SELECT payload FROM "contractgen_templates"`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListTemplates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	s := New(mock, WithTables(Tables{Templates: "tpl"}), WithClock(func() time.Time { return fixedNow }))

	mock.ExpectExec(`^INSERT INTO "tpl"`).
		WithArgs("x", pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.PutTemplate(context.Background(), model.Template{ID: "x"}))
	assert.Equal(t, "contractgen_contracts", s.tables.Contracts)
	require.NoError(t, mock.ExpectationsWereMet())
}
