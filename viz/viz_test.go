package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/kv"
	"github.com/harperreed/contactshq/models"
)

func person(given, family string, t models.PersonType) *models.Person {
	p := models.NewPerson(given, t)
	p.FamilyName = models.StringPtr(family)
	return p
}

func samplePeople() []*models.Person {
	ana := person("Ana", "Lima", models.PersonTypeFamily)
	bea := person("Bea", "Lima", models.PersonTypeFamily)
	caro := person("Caro", "Diaz", models.PersonTypeBusiness)

	ana.ContactRelations = []models.LabeledValue{
		models.NewLabeledValue("sister", "Bea Lima"),
		models.NewLabeledValue("friend", "Zed Unknown"),
	}
	ana.Groups = []string{"book club"}
	caro.Groups = []string{"book club"}
	caro.Company = models.StringPtr("Acme")
	return []*models.Person{ana, bea, caro}
}

func keys(g Graph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Label
	}
	return out
}

func TestBuildGraphLinksRelationsCompaniesAndGroups(t *testing.T) {
	people := samplePeople()
	g := BuildGraph(people, nil)

	assert.ElementsMatch(t, []string{"Ana Lima", "Bea Lima", "Caro Diaz", "Zed Unknown", "book club", "Acme"}, keys(g))
	assert.Contains(t, g.Edges, Edge{From: personKey(people[0].ID()), To: personKey(people[1].ID()), Label: "sister"})
	assert.Contains(t, g.Edges, Edge{From: personKey(people[2].ID()), To: "company:acme", Label: "works at"})
	assert.Len(t, g.Edges, 5)
}

func TestBuildGraphCenteredKeepsNeighbours(t *testing.T) {
	people := samplePeople()
	bea := people[1].ID()
	g := BuildGraph(people, &bea)
	assert.ElementsMatch(t, []string{"Ana Lima", "Bea Lima"}, keys(g))

	ana := people[0].ID()
	g = BuildGraph(people, &ana)
	assert.ElementsMatch(t, []string{"Ana Lima", "Bea Lima", "Caro Diaz", "Zed Unknown", "book club"}, keys(g))
}

func TestGeneratePeopleGraphRendersDOT(t *testing.T) {
	ctx := context.Background()
	store, err := kv.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	gw := gateway.New(store)
	require.NoError(t, gw.InsertBatch(ctx, samplePeople()))

	out, err := NewGraphGenerator(gw).GeneratePeopleGraph(ctx, nil, graphviz.XDOT)
	require.NoError(t, err)
	dot := string(out)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph") || strings.Contains(dot, "graph"))
	assert.Contains(t, dot, "Ana Lima")
	assert.Contains(t, dot, "sister")
}

func TestDashboardStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	people := samplePeople()
	people[0].PhoneNumbers = []models.LabeledValue{models.NewLabeledValue("mobile", "555")}
	people[0].Availability = []models.Availability{models.AvailabilityMorning}
	b := time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC)
	people[1].Birthday = &b
	late := time.Date(1980, 3, 9, 0, 0, 0, 0, time.UTC)
	people[2].Birthday = &late
	people[2].ExternalID = "abc"

	stats := GenerateDashboardStats(people, now)
	assert.Equal(t, 3, stats.TotalPeople)
	assert.Equal(t, 2, stats.ByType[models.PersonTypeFamily])
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, []GroupCount{{Group: "book club", Count: 2}}, stats.TopGroups)
	assert.Equal(t, []string{"Bea Lima", "Caro Diaz"}, stats.Unreachable)

	require.Len(t, stats.UpcomingBirthdays, 1)
	assert.Equal(t, Birthday{Name: "Bea Lima", Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), InDays: 2, Turning: 34},
		stats.UpcomingBirthdays[0])

	out := RenderDashboard(stats)
	assert.Contains(t, out, "CONTACTSHQ DASHBOARD")
	assert.Contains(t, out, "Bea Lima")
	assert.Contains(t, out, "2 people have no phone number or email")
}

func TestNextBirthdayLeapDay(t *testing.T) {
	leap := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)
	today := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), nextBirthday(leap, today))
}
