package stormsql_test

import (
	"path/filepath"
	"testing"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/safehaven/pkg/stormsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resource struct {
	ID               int    `storm:"id,increment"`
	ResourceType     string `storm:"index"`
	OrganizationName string
	State            string
	AcceptsPets      bool
}

func TestParseSelect(t *testing.T) {
	sc, err := stormsql.ParseSelect("SELECT OrganizationName, State FROM resources WHERE State = 'NM' ORDER BY OrganizationName DESC LIMIT 2, 5")
	require.NoError(t, err)

	assert.Equal(t, "resources", sc.Tablename)
	assert.Equal(t, []string{"OrganizationName", "State"}, sc.SelectedFields)
	assert.False(t, sc.Count)
	assert.Equal(t, 2, sc.Skip)
	assert.Equal(t, 5, sc.Limit)
	assert.Equal(t, []string{"OrganizationName"}, sc.OrderBy)
	assert.True(t, sc.OrderByReversed)

	sc, err = stormsql.ParseSelect("SELECT count(*) FROM sessions")
	require.NoError(t, err)
	assert.True(t, sc.Count)
	assert.Empty(t, sc.SelectedFields)
}

func TestParseSelect_Errors(t *testing.T) {
	for _, sql := range []string{
		"DELETE FROM resources",
		"SELECT max(State) FROM resources",
		"SELECT * FROM resources WHERE State = ?",
		"SELECT * FROM resources LIMIT 'a'",
		"SELECT * FROM",
	} {
		_, err := stormsql.ParseSelect(sql)
		assert.Error(t, err, sql)
	}
}

func TestMatcher(t *testing.T) {
	db, err := storm.Open(filepath.Join(t.TempDir(), "stormsql.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, r := range []*resource{
		{ResourceType: "shelter", OrganizationName: "Safe Paws", State: "NM", AcceptsPets: true},
		{ResourceType: "shelter", OrganizationName: "Harbor", State: "CO"},
		{ResourceType: "childcare", OrganizationName: "Little Steps", State: "NM"},
	} {
		require.NoError(t, db.Save(r))
	}

	tests := []struct {
		sql      string
		expected []string
	}{
		{"SELECT * FROM resources WHERE State = 'NM'", []string{"Little Steps", "Safe Paws"}},
		{"SELECT * FROM resources WHERE State != 'NM'", []string{"Harbor"}},
		{"SELECT * FROM resources WHERE ResourceType = 'shelter' AND AcceptsPets = true", []string{"Safe Paws"}},
		{"SELECT * FROM resources WHERE State IN ('CO', 'TX')", []string{"Harbor"}},
		{"SELECT * FROM resources WHERE OrganizationName LIKE 'Safe%'", []string{"Safe Paws"}},
		{"SELECT * FROM resources WHERE ResourceType = 'childcare' OR State = 'CO'", []string{"Harbor", "Little Steps"}},
		{"SELECT * FROM resources WHERE NOT (State = 'NM')", []string{"Harbor"}},
		{"SELECT * FROM resources WHERE AcceptsPets IS TRUE", []string{"Safe Paws"}},
	}

	for _, test := range tests {
		sc, err := stormsql.ParseSelect(test.sql)
		require.NoError(t, err, test.sql)

		var resources []*resource
		err = db.Select(sc.Matcher).OrderBy("OrganizationName").Find(&resources)
		require.NoError(t, err, test.sql)

		names := []string{}
		for _, r := range resources {
			names = append(names, r.OrganizationName)
		}
		assert.Equal(t, test.expected, names, test.sql)
	}
}
