package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/models"
)

func seed(t *testing.T, gw *Gateway, names ...string) []*models.Person {
	t.Helper()
	out := make([]*models.Person, 0, len(names))
	for _, n := range names {
		p := models.NewPerson(n, models.PersonTypeFriend)
		require.NoError(t, gw.Insert(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func givenNames(people []*models.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.GivenName
	}
	return out
}

func TestFetchSortsByGivenNameLocaleAware(t *testing.T) {
	gw := New(newMemRepo())
	seed(t, gw, "zoe", "Émile", "adam", "Bob")

	got := gw.Fetch(context.Background(), FetchOptions{Sort: SortGivenName})
	assert.Equal(t, []string{"adam", "Bob", "Émile", "zoe"}, givenNames(got))
}

func TestFetchSortsByFamilyName(t *testing.T) {
	gw := New(newMemRepo())
	people := seed(t, gw, "Ann", "Ben", "Cat")
	people[0].FamilyName = models.StringPtr("Young")
	people[1].FamilyName = models.StringPtr("Adams")
	require.NoError(t, gw.Update(context.Background(), people[0]))
	require.NoError(t, gw.Update(context.Background(), people[1]))

	got := gw.Fetch(context.Background(), FetchOptions{Sort: SortFamilyName})
	assert.Equal(t, []string{"Cat", "Ben", "Ann"}, givenNames(got))
}

func TestFetchSortsByCreatedAt(t *testing.T) {
	repo := newMemRepo()
	gw := New(repo)
	people := seed(t, gw, "b", "a", "c")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.people[people[0].ID()].CreatedAt = base.Add(2 * time.Hour)
	repo.people[people[1].ID()].CreatedAt = base
	repo.people[people[2].ID()].CreatedAt = base.Add(time.Hour)

	got := gw.Fetch(context.Background(), FetchOptions{Sort: SortCreatedAt})
	assert.Equal(t, []string{"a", "c", "b"}, givenNames(got))
}

func TestFetchUnsortedKeepsStoreOrder(t *testing.T) {
	gw := New(newMemRepo())
	seed(t, gw, "c", "a", "b")

	got := gw.Fetch(context.Background(), FetchOptions{Sort: SortNone})
	assert.Equal(t, []string{"c", "a", "b"}, givenNames(got))
}

func TestGivenNameContains(t *testing.T) {
	gw := New(newMemRepo())
	seed(t, gw, "José", "Josephine", "Maria", "joel")

	tests := []struct {
		query string
		want  []string
	}{
		{"jose", []string{"José", "Josephine"}},
		{"JO", []string{"joel", "José", "Josephine"}},
		{"ari", []string{"Maria"}},
		{"", []string{"joel", "José", "Josephine", "Maria"}},
		{"   ", []string{"joel", "José", "Josephine", "Maria"}},
		{"xyz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := gw.Fetch(context.Background(), FetchOptions{
				Filter: GivenNameContains(tt.query),
				Sort:   SortGivenName,
			})
			assert.Equal(t, tt.want, givenNames(got))
		})
	}
}

func TestPredicateCombinators(t *testing.T) {
	gw := New(newMemRepo())
	people := seed(t, gw, "Ann", "Ben")
	people[0].Groups = []string{"climbing"}
	people[0].ExternalID = "ext-1"
	require.NoError(t, gw.Update(context.Background(), people[0]))

	got := gw.Fetch(context.Background(), FetchOptions{Filter: InGroup("climbing")})
	assert.Equal(t, []string{"Ann"}, givenNames(got))

	got = gw.Fetch(context.Background(), FetchOptions{Filter: And(HasExternalID("ext-1"), nil, GivenNameContains("an"))})
	assert.Equal(t, []string{"Ann"}, givenNames(got))

	got = gw.Fetch(context.Background(), FetchOptions{Filter: HasExternalID("")})
	assert.Empty(t, got)
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortGivenName, ParseSortKey(""))
	assert.Equal(t, SortGivenName, ParseSortKey("given"))
	assert.Equal(t, SortFamilyName, ParseSortKey("Family"))
	assert.Equal(t, SortCreatedAt, ParseSortKey("created"))
	assert.Equal(t, SortNone, ParseSortKey("none"))
}
