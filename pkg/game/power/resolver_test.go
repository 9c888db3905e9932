package power

import (
	"bytes"
	"log/slog"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"

	"gridpower/pkg/game/entities"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testConfig() Config {
	return Config{
		Caps:                  testCatalog,
		ConsumptionMultiplier: 1.0,
		Logger:                quietLogger(),
	}
}

// scenarioA: two 50-unit generators and three 40-unit consumers in one chain
func scenarioA() ([]entities.Structure, []Link) {
	structures := append(place("generator", "g1", "g2"), place("consumer", "c1", "c2", "c3")...)
	links := []Link{{"g1", "c1"}, {"c1", "g2"}, {"g2", "c2"}, {"c2", "c3"}}
	return structures, links
}

func TestRun_ScenarioA_ShortNetworkUnpowered(t *testing.T) {
	structures, links := scenarioA()
	res, _ := Run(testConfig(), structures, links)

	if len(res.Networks) != 1 {
		t.Fatalf("len(Networks) = %d, want 1", len(res.Networks))
	}
	n := res.Networks[0]
	if n.TotalGen != 100 || Required(n, 1.0) != 120 {
		t.Errorf("totals = gen %v, required %v; want 100, 120", n.TotalGen, Required(n, 1.0))
	}
	for _, s := range structures {
		if res.HasPower(s.ID) {
			t.Errorf("HasPower(%s) = true, want false", s.ID)
		}
	}
}

func TestRun_ScenarioB_RemovingConsumerPowersAll(t *testing.T) {
	structures, links := scenarioA()
	structures = structures[:4] // c3 demolished

	res, kept := Run(testConfig(), structures, links)

	if len(kept) != 3 {
		t.Errorf("len(kept links) = %d, want 3 (c2-c3 pruned)", len(kept))
	}
	for _, s := range structures {
		if !res.HasPower(s.ID) {
			t.Errorf("HasPower(%s) = false, want true", s.ID)
		}
	}
	if d := res.Display(); d.Capacity != 100 || d.Consumption != 80 {
		t.Errorf("Display() = %+v, want {100 80}", d)
	}
}

func TestRun_ScenarioD_SurvivorBecomesSingleton(t *testing.T) {
	structures := append(place("generator", "g"), place("consumer", "c")...)
	links := []Link{{"g", "c"}}

	res, _ := Run(testConfig(), structures, links)
	if !res.HasPower("c") {
		t.Fatal("before demolition HasPower(c) = false, want true")
	}

	res, kept := Run(testConfig(), structures[1:], links)
	if len(kept) != 0 || len(res.Pruned) != 1 {
		t.Errorf("after demolition kept %d, pruned %d; want 0, 1", len(kept), len(res.Pruned))
	}
	if res.HasPower("c") {
		t.Error("lone consumer HasPower = true, want false")
	}
	if _, ok := res.NetworkStatsFor("c"); ok {
		t.Error("NetworkStatsFor(singleton) ok = true, want false")
	}
}

func TestResolve_IsolatedStructuresAreSingletons(t *testing.T) {
	structures := place("consumer", "a", "b", "c")
	r := Resolver{Caps: testCatalog, Logger: quietLogger()}
	networks := r.Resolve(structures, nil)
	if len(networks) != 3 {
		t.Fatalf("len(networks) = %d, want 3", len(networks))
	}
	for i, n := range networks {
		if n.MemberCount() != 1 || n.Members[0] != structures[i].ID {
			t.Errorf("networks[%d] = %v, want [%s]", i, n.Members, structures[i].ID)
		}
	}
}

func TestResolve_DisablingFlagZeroesGeneration(t *testing.T) {
	structures := append(place("generator", "g1", "g2"), place("consumer", "c")...)
	structures[0].Flags.Raise(entities.FlagOutOfFuel)
	links := []Link{{"g1", "c"}, {"g2", "c"}}

	r := Resolver{Caps: testCatalog, Logger: quietLogger()}
	networks := r.Resolve(structures, links)
	if len(networks) != 1 {
		t.Fatalf("len(networks) = %d, want 1", len(networks))
	}
	if networks[0].TotalGen != 50 {
		t.Errorf("TotalGen = %v, want 50 (g1 out of fuel)", networks[0].TotalGen)
	}
	if networks[0].MemberCount() != 3 {
		t.Errorf("MemberCount = %d, want 3 (flag keeps g1 in the graph)", networks[0].MemberCount())
	}
}

func TestResolve_MultiplierAppliesToGenerationOnly(t *testing.T) {
	structures := append(place("hybrid", "h"), place("consumer", "c")...)
	links := []Link{{"h", "c"}}
	r := Resolver{
		Caps:       testCatalog,
		Multiplier: func(s entities.Structure) float64 { return 1.5 },
		Logger:     quietLogger(),
	}
	n := r.Resolve(structures, links)[0]
	if n.TotalGen != 15 {
		t.Errorf("TotalGen = %v, want 15", n.TotalGen)
	}
	if n.TotalCons != 45 {
		t.Errorf("TotalCons = %v, want 45", n.TotalCons)
	}
}

func TestResolve_MissingCapabilityLoggedAsZero(t *testing.T) {
	var buf bytes.Buffer
	structures := append(place("mystery", "m1", "m2"), place("generator", "g")...)
	links := []Link{{"m1", "g"}, {"m2", "g"}}
	r := Resolver{Caps: testCatalog, Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	networks := r.Resolve(structures, links)
	if len(networks) != 1 || networks[0].TotalGen != 50 || networks[0].TotalCons != 0 {
		t.Errorf("networks = %+v, want one network with gen 50, cons 0", networks)
	}
	if got := strings.Count(buf.String(), "missing capability definition"); got != 1 {
		t.Errorf("missing definition logged %d times, want 1", got)
	}
}

func TestResolve_IgnoresUnprunedLinks(t *testing.T) {
	structures := place("consumer", "a", "b")
	links := []Link{{"a", "ghost"}, {"ghost", "b"}}
	r := Resolver{Caps: testCatalog, Logger: quietLogger()}
	if got := len(r.Resolve(structures, links)); got != 2 {
		t.Errorf("len(networks) = %d, want 2 (ghost does not bridge a and b)", got)
	}
}

// randomGraph builds n structures of mixed types and up to m random links
func randomGraph(rng *rand.Rand, n, m int) ([]entities.Structure, []Link) {
	types := []string{"generator", "consumer", "hybrid", "pylon", "mystery"}
	var structures []entities.Structure
	for i := 0; i < n; i++ {
		id := entities.ID(string(rune('a' + i)))
		structures = append(structures, place(types[rng.Intn(len(types))], id)...)
	}
	var links []Link
	for i := 0; i < m; i++ {
		u, v := structures[rng.Intn(n)].ID, structures[rng.Intn(n)].ID
		if u != v {
			links = append(links, Link{u, v})
		}
	}
	return structures, links
}

// partitionKey normalises a partition so two resolutions can be compared
func partitionKey(networks []Network) []string {
	var keys []string
	for _, n := range networks {
		members := make([]string, 0, len(n.Members))
		for _, id := range n.Members {
			members = append(members, string(id))
		}
		sort.Strings(members)
		keys = append(keys, strings.Join(members, ","))
	}
	sort.Strings(keys)
	return keys
}

func TestResolve_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := Resolver{Caps: testCatalog, Logger: quietLogger()}
	for trial := 0; trial < 100; trial++ {
		structures, links := randomGraph(rng, 1+rng.Intn(20), rng.Intn(30))
		networks := r.Resolve(structures, links)

		seen := map[entities.ID]int{}
		for _, n := range networks {
			for _, id := range n.Members {
				seen[id]++
			}
		}
		if len(seen) != len(structures) {
			t.Fatalf("trial %d: %d ids covered, want %d", trial, len(seen), len(structures))
		}
		for id, count := range seen {
			if count != 1 {
				t.Fatalf("trial %d: %s appears in %d networks", trial, id, count)
			}
		}
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	r := Resolver{Caps: testCatalog, Logger: quietLogger()}
	for trial := 0; trial < 50; trial++ {
		structures, links := randomGraph(rng, 12, 14)
		want := partitionKey(r.Resolve(structures, links))

		shuffled := append([]entities.Structure(nil), structures...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := partitionKey(r.Resolve(shuffled, links))

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: partition changed with iteration order:\n got %v\nwant %v", trial, got, want)
		}
	}
}

func TestRun_AllOrNothingAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := testConfig()
	for trial := 0; trial < 100; trial++ {
		structures, links := randomGraph(rng, 1+rng.Intn(16), rng.Intn(20))
		cfg.ConsumptionMultiplier = 0.5 + rng.Float64()

		first, kept := Run(cfg, structures, links)
		for i, n := range first.Networks {
			powered := 0
			for _, id := range n.Members {
				if first.HasPower(id) {
					powered++
				}
			}
			if powered != 0 && powered != n.MemberCount() {
				t.Fatalf("trial %d: network %d has %d of %d members powered", trial, i, powered, n.MemberCount())
			}
			if first.NetworkPowered(i) != (powered > 0) {
				t.Fatalf("trial %d: NetworkPowered(%d) disagrees with HasPower", trial, i)
			}
		}

		second, _ := Run(cfg, structures, kept)
		if !reflect.DeepEqual(first.Networks, second.Networks) {
			t.Fatalf("trial %d: second pass produced different networks", trial)
		}
		for _, s := range structures {
			if first.HasPower(s.ID) != second.HasPower(s.ID) {
				t.Fatalf("trial %d: HasPower(%s) changed between identical passes", trial, s.ID)
			}
		}
	}
}
