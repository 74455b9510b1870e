// Package testutil provides fixtures shared by the protocol test suites:
// deterministic committees of freshly generated validators.
package testutil

import (
	"fmt"

	"github.com/stretchr/testify/require"

	"github.com/ghardin1314/ferveo/crypto"
	"github.com/ghardin1314/ferveo/model"
)

// TB is the subset of testing.TB the fixtures need. Property-test runners
// that do not embed testing.TB satisfy it too.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// Committee generates n validators with fresh keypairs, addresses in
// canonical order, and share indices assigned by position. The returned
// keypair slice is aligned with the committee's validator order.
func Committee(t TB, n int) (*model.Committee, []*crypto.Keypair) {
	t.Helper()

	keypairs := make([]*crypto.Keypair, n)
	validators := make([]model.Validator, n)
	for i := 0; i < n; i++ {
		kp, err := crypto.GenerateKeypair()
		require.NoError(t, err)
		keypairs[i] = kp
		validators[i] = model.Validator{
			Address:    fmt.Sprintf("validator-%03d", i),
			PublicKey:  kp.PublicKey(),
			ShareIndex: uint32(i),
		}
	}

	committee, err := model.NewCommittee(validators)
	require.NoError(t, err)
	return committee, keypairs
}
