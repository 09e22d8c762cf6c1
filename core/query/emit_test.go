package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvednova/qtables/core/errs"
)

func TestGet_SingleTableFilter(t *testing.T) {
	q := New("person", []string{"id", "name", "age"}).Filter(Eq("id", 2))

	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Equal(t, "SELECT person.id, person.name, person.age FROM person WHERE person.id = 2", sql)
}

func TestGet_RangeFilterWithDates(t *testing.T) {
	q := New("company", []string{"id", "registration"}).
		Filter(BetweenValues("registration", "2021-02-20", "2021-04-20"))

	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE company.registration BETWEEN '2021-02-20' AND '2021-04-20'")
}

func TestGet_NestedJoinMapFieldsLength(t *testing.T) {
	companyAddr := New("address", []string{"id", "street", "city", "zip", "country"}).
		WithAlias("company_addr")

	company := New("company", []string{"id", "name", "registration"}).
		Filter(BetweenValues("registration", "2021-02-20", "2021-04-20")).
		Join(Join{Kind: Inner, Child: companyAddr, LeftKey: "id", RightKey: "address_id"})

	employees := New("employees", []string{"id", "person_id", "title", "salary", "department"}).
		Select("title", "salary").
		Join(Join{Kind: Inner, Child: company, LeftKey: "id", RightKey: "company_id"})

	address := New("address", []string{"id", "street", "city", "zip", "country"}).
		Select("id", "street", "city", "zip").
		Join(Join{Kind: Left, Child: employees, LeftKey: "person_id", RightKey: "id"})

	person := New("person", []string{"id", "name", "age"}).
		Filter(Eq("id", 2)).
		Join(Join{Kind: Inner, Child: address, LeftKey: "id", RightKey: "ref_address"})

	mapFields := person.MapFields()
	assert.Len(t, mapFields, 17)

	sql, err := person.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM person")
	assert.Contains(t, sql, "INNER JOIN address ON address.id = person.ref_address")
	assert.Contains(t, sql, "LEFT JOIN employees ON employees.person_id = address.id")
	assert.Contains(t, sql, "INNER JOIN company ON company.id = employees.company_id")
	assert.Contains(t, sql, "INNER JOIN address AS company_addr ON company_addr.id = company.address_id")
}

func TestGet_QuoteEscaping(t *testing.T) {
	q := New("users", []string{"id", "name"}).
		Filter(Eq("name", "1'; DROP TABLE users; --"))

	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "users.name = '1''; DROP TABLE users; --'")
}

func TestGet_RawBytesRejected(t *testing.T) {
	q := New("users", []string{"id", "blob"}).
		Filter(Eq("blob", []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	_, err := q.Get(DialectNetworkServer)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ValueConversion))
}

func TestGet_FromOmitsAliasWhenEqualToTable(t *testing.T) {
	q := New("person", []string{"id"})
	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Equal(t, "SELECT person.id FROM person", sql)
	assert.NotContains(t, sql, "FROM person AS person")
}

func TestGet_AliasedRootKeepsAS(t *testing.T) {
	q := New("person", []string{"id"}).WithAlias("p")
	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM person AS p")
}

func TestUpdate_RejectsJoins(t *testing.T) {
	child := New("address", []string{"id"})
	q := New("person", []string{"id"}).Join(Join{Kind: Inner, Child: child, LeftKey: "id", RightKey: "ref_address"})

	_, err := q.Update(DialectNetworkServer, []Assignment{{Column: "name", Value: "x"}})
	require.Error(t, err)
}

func TestInsert_RejectsMismatchedRowColumns(t *testing.T) {
	q := New("users", []string{"id", "name"})
	_, err := q.Insert(DialectNetworkServer, []Row{
		{{Column: "id", Value: 1}, {Column: "name", Value: "a"}},
		{{Column: "id", Value: 2}},
	})
	require.Error(t, err)
}

func TestExactWithListValueRejected(t *testing.T) {
	q := New("users", []string{"id"}).Filter(Predicate{Column: "id", Op: Exact, Value: []interface{}{1, 2}})
	_, err := q.Get(DialectNetworkServer)
	require.Error(t, err)
}

func TestInValues(t *testing.T) {
	q := New("users", []string{"id"}).Filter(InValues("id", 1, 2, 3))
	sql, err := q.Get(DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "users.id IN (1, 2, 3)")
}

func TestQueryIsImmutable(t *testing.T) {
	base := New("users", []string{"id", "name"})
	filtered := base.Filter(Eq("id", 1))

	baseSQL, err := base.Get(DialectNetworkServer)
	require.NoError(t, err)
	filteredSQL, err := filtered.Get(DialectNetworkServer)
	require.NoError(t, err)

	assert.NotContains(t, baseSQL, "WHERE")
	assert.Contains(t, filteredSQL, "WHERE")
}
