package tuner

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/buraksezer/consistent"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// machineShape is one candidate instance type: its vCPU count and RAM.
type machineShape struct {
	name    string
	vcpus   int
	memGB   float64
	family  string // "M" general, "C" compute-optimized, "R" memory-optimized
}

func (m machineShape) String() string { return m.name }

// awsCatalog and gcpCatalog are small representative slices of each
// provider's instance-type families, enough to exercise the same
// vCPU/RAM-ratio selection policy real fleets use without embedding the
// entire EC2/Compute Engine price list.
var awsCatalog = []machineShape{
	{"m5.large", 2, 8, "M"},
	{"m5.xlarge", 4, 16, "M"},
	{"m5.2xlarge", 8, 32, "M"},
	{"m5.4xlarge", 16, 64, "M"},
	{"c5.xlarge", 4, 8, "C"},
	{"c5.2xlarge", 8, 16, "C"},
	{"c5.4xlarge", 16, 32, "C"},
	{"r5.xlarge", 4, 32, "R"},
	{"r5.2xlarge", 8, 64, "R"},
	{"r5.4xlarge", 16, 128, "R"},
}

var gcpCatalog = []machineShape{
	{"n1-standard-2", 2, 7.5, "M"},
	{"n1-standard-4", 4, 15, "M"},
	{"n1-standard-8", 8, 30, "M"},
	{"n1-standard-16", 16, 60, "M"},
	{"n1-highmem-2", 2, 13, "R"},
	{"n1-highmem-4", 4, 26, "R"},
	{"n1-highmem-8", 8, 52, "R"},
	{"n1-highmem-16", 16, 104, "R"},
}

// machineForShape picks the smallest instance type with at least numCPUs
// vCPUs and at least memLimit RAM, preferring the family whose
// vCPU:memory ratio best matches the request (compute-optimized for
// CPU-heavy shapes, memory-optimized for memory-heavy ones). Among
// equally-sized candidates within the preferred family, a consistent-hash
// ring keyed on the request shape breaks the tie deterministically
// instead of always picking catalog order.
func machineForShape(provider config.Provider, region string, numCPUs int, memLimitStr string) (string, error) {
	mem, err := config.MemoryStr(memLimitStr)
	if err != nil {
		return "", elberrors.Internal("invalid computed memory limit %q: %v", memLimitStr, err)
	}
	memGB := mem.AsGB()

	catalog := gcpCatalog
	if provider == config.ProviderAWS {
		catalog = awsCatalog
	}

	wantFamily := preferredFamily(numCPUs, memGB)
	candidates := fitting(catalog, numCPUs, memGB, wantFamily)
	if len(candidates) == 0 {
		candidates = fitting(catalog, numCPUs, memGB, "")
	}
	if len(candidates) == 0 {
		return "", elberrors.Dependency("no catalog instance type in %s satisfies %d vCPUs / %.1fGB RAM", region, numCPUs, memGB)
	}

	if len(candidates) == 1 {
		return candidates[0].name, nil
	}
	return pickFromRing(candidates, fmt.Sprintf("%s:%d:%.1f", region, numCPUs, memGB)), nil
}

// preferredFamily favors compute-optimized (C) shapes when the
// memory-per-core request is low, memory-optimized (R) when it's high,
// and general purpose (M) otherwise.
func preferredFamily(numCPUs int, memGB float64) string {
	ratio := memGB / float64(numCPUs)
	switch {
	case ratio <= 2:
		return "C"
	case ratio >= 7:
		return "R"
	default:
		return "M"
	}
}

// fitting returns every shape in catalog with enough vCPUs and RAM,
// matching family if non-empty, sorted smallest-fit first (fewest vCPUs,
// then least RAM).
func fitting(catalog []machineShape, numCPUs int, memGB float64, family string) []machineShape {
	var out []machineShape
	for _, m := range catalog {
		if m.vcpus < numCPUs || m.memGB < memGB {
			continue
		}
		if family != "" && m.family != family {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].vcpus != out[j].vcpus {
			return out[i].vcpus < out[j].vcpus
		}
		return out[i].memGB < out[j].memGB
	})
	if len(out) == 0 {
		return out
	}
	// keep only the smallest-fit tier (same vCPU count as the first result)
	smallest := out[0].vcpus
	var tier []machineShape
	for _, m := range out {
		if m.vcpus == smallest {
			tier = append(tier, m)
		}
	}
	return tier
}

type fnvHasher struct{}

func (fnvHasher) Sum64(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

func pickFromRing(candidates []machineShape, key string) string {
	members := make([]consistent.Member, len(candidates))
	for i, c := range candidates {
		members[i] = c
	}
	ring := consistent.New(members, consistent.Config{
		PartitionCount:    23,
		ReplicationFactor: 5,
		Load:              1.25,
		Hasher:            fnvHasher{},
	})
	return ring.LocateKey([]byte(key)).String()
}
