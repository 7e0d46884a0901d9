package model

import (
	"strings"
)

// Mutations is the set of changes the server allows the client to make to a template, plus the
// submission flags that shape the assembled block.
type Mutations uint32

const (
	MutationCoinbaseAppend Mutations = 1 << iota
	MutationCoinbaseSet
	MutationGenerate
	MutationTimeIncrement
	MutationTimeDecrement
	MutationTransactionsAdd
	MutationPrevBlock
	MutationVersionForce
	MutationVersionReduce

	// SubmitCoinbaseOnly omits all transactions but the coinbase from submissions.
	SubmitCoinbaseOnly
	// SubmitTruncate submits only the header when no extranonce was used.
	SubmitTruncate
)

var mutationNames = []struct {
	name string
	flag Mutations
}{
	{"coinbase/append", MutationCoinbaseAppend},
	{"coinbase", MutationCoinbaseSet},
	{"generation", MutationGenerate},
	{"time/increment", MutationTimeIncrement},
	{"time/decrement", MutationTimeDecrement},
	{"transactions/add", MutationTransactionsAdd},
	{"prevblock", MutationPrevBlock},
	{"version/force", MutationVersionForce},
	{"version/reduce", MutationVersionReduce},
	{"submit/coinbase", SubmitCoinbaseOnly},
	{"submit/truncate", SubmitTruncate},
}

// Has reports whether every flag in flags is set.
func (m Mutations) Has(flags Mutations) bool {
	return m&flags == flags
}

// HasAny reports whether at least one flag in flags is set.
func (m Mutations) HasAny(flags Mutations) bool {
	return m&flags != 0
}

// ParseMutation maps a getblocktemplate "mutable" entry onto its flag.
func ParseMutation(name string) (Mutations, bool) {
	for _, n := range mutationNames {
		if n.name == name {
			return n.flag, true
		}
	}

	return 0, false
}

// ParseMutations combines the known names and returns the ones it did not recognise.
func ParseMutations(names []string) (Mutations, []string) {
	var (
		m       Mutations
		unknown []string
	)

	for _, name := range names {
		flag, ok := ParseMutation(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}

		m |= flag
	}

	return m, unknown
}

func (m Mutations) String() string {
	names := make([]string, 0, len(mutationNames))

	for _, n := range mutationNames {
		if m.Has(n.flag) {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, ",")
}
