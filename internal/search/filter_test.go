package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	Name  string
	Email string
}

func recordFields(r record) []string { return []string{r.Name, r.Email} }

var records = []record{
	{Name: "Acme Ltd", Email: "billing@acme.test"},
	{Name: "Globex", Email: "ap@globex.test"},
	{Name: "Initech", Email: ""},
}

func TestFilterCaseInsensitive(t *testing.T) {
	got := Filter(records, "ACME", recordFields)
	assert.Equal(t, []record{records[0]}, got)

	got = Filter(records, "globex.TEST", recordFields)
	assert.Equal(t, []record{records[1]}, got)
}

func TestFilterBlankQueryReturnsList(t *testing.T) {
	assert.Equal(t, records, Filter(records, "", recordFields))
	assert.Equal(t, records, Filter(records, "   \t", recordFields))
}

func TestFilterIdempotent(t *testing.T) {
	for _, q := range []string{"e", "tech", "zzz", ".test"} {
		once := Filter(records, q, recordFields)
		twice := Filter(once, q, recordFields)
		assert.Equal(t, once, twice, q)
	}
}

func TestFilterNoMatch(t *testing.T) {
	assert.Empty(t, Filter(records, "umbrella", recordFields))
}
