package mining

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"
)

// regtest block 34424 with four transactions
const block34424Hex = "00000020a324e51a37547c5957868beb9f97d34f9b32ae96427513f4fe79ab3ee30f271a8acb3554ad71fbdc6070e6358ea9048c05bc83f1b962cf24295d9d07583d81698b5e3b67ffff7f20010000000402000000010000000000000000000000000000000000000000000000000000000000000000ffffffff06037886000101ffffffff01a82f000000000000232103a920b957d6d2268812e02dfd8799ed2a867e2df86c4f8d1eaecb4c35266692b5ac000000000200000001afb41c129af22ca5c05cc677993e7d8e040b2610baaca5778e7f71549fa74b89010000006b483045022100914fac419890679f1f4ba2efe22ac9721416283f4fd150f0af169026056d2f780220109a8787d494d9aa71ac0198651458f4930cb998ed6029c0221a42e2044470334121030cfa8aaa20d16e6c1f8e42ca3a0a80c6b9496d2fa39182d7ea9a0c44298c6877feffffff0200e1f505000000001976a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac80d7b0c4000000001976a91432dd05fe95dbc4172cc6b8335f180cdd987f278588ac778600000200000001a11489634e961ebed5143033c539675cb0682fb30d4b42e2b3ff3b71f01f359b0000000049483045022100f051603a90395cd56ab752a1124838d18d1f56d5382889c22aaf298ee6b0cc89022046a23b5d21f45bba54bf3e33942c9305c3507f0da3aa16cc2ca869d3377ca7b441feffffff0200e1f505000000001976a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac00021024010000001976a91442f37d99df083ec79802c38e00a21fe6b1f4583588ac778600000200000001dc1011b70ec59e1e0d24d15018fae10e0428d03ced79d2bcdf855ecf3b4f1ff700000000494830450221008de2576427d3cdada7037dcc739391ed5a732b3b02fe727942d703bc2c9c4abf02201b2a563f313914727523f81890566a25bb760b21d704c8a5747b5a9847fb450e41feffffff0200021024010000001976a9144fb3e816665c1daf8130ba9bc446b29e15b1f83788ac00e1f505000000001976a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac77860000"

const p2pkhScriptHex = "76a914000000000000000000000000000000000000000088ac"

var testReceivedAt = time.Unix(1700000000, 0)

func newTestBlockMaker(t *testing.T, opts ...Option) *BlockMaker {
	t.Helper()

	return NewBlockMaker(ulogger.NewVerboseTestLogger(t), nil, opts...)
}

func p2pkhScript(t *testing.T) []byte {
	t.Helper()

	script, err := hex.DecodeString(p2pkhScriptHex)
	require.NoError(t, err)

	return script
}

// newTestTemplate returns a template at height 500000 with n small sigop-free transactions.
func newTestTemplate(n int) *model.Template {
	prevBlock := chainhash.DoubleHashH([]byte("previous block"))

	tmpl := &model.Template{
		Version:    0x20000000,
		PrevBlock:  prevBlock,
		Bits:       [4]byte{0xff, 0xff, 0x7f, 0x20},
		Height:     500000,
		CurTime:    1700000100,
		MinTime:    1700000000,
		MaxTime:    1700007300,
		ReceivedAt: testReceivedAt,
		Expires:    60,
		SizeLimit:  1000000,
		SigOpLimit: 20000,
	}

	tmpl.SetCoinbaseValue(5000000000)

	for i := 0; i < n; i++ {
		tx := model.NewTransaction(testTransaction(i))
		tx.SigOps = 0
		tmpl.AddTransaction(tx)
	}

	return tmpl
}

// testTransaction serializes a one-in one-out transaction spending output i of a made up parent.
// Both scripts are OP_TRUE so the transaction carries no sigops.
func testTransaction(i int) []byte {
	parent := chainhash.DoubleHashH([]byte(fmt.Sprintf("parent of transaction %d", i)))

	tx := binary.LittleEndian.AppendUint32(nil, 1)
	tx = append(tx, 1)
	tx = append(tx, parent[:]...)
	tx = binary.LittleEndian.AppendUint32(tx, uint32(i))
	tx = append(tx, 1, bscript.OpTRUE)
	tx = binary.LittleEndian.AppendUint32(tx, 0xffffffff)
	tx = append(tx, 1)
	tx = binary.LittleEndian.AppendUint64(tx, uint64(1000+i))
	tx = append(tx, 1, bscript.OpTRUE)

	return binary.LittleEndian.AppendUint32(tx, 0)
}

// newGeneratedTemplate is newTestTemplate with a p2pkh coinbase already generated.
func newGeneratedTemplate(t *testing.T, bm *BlockMaker, n int) *model.Template {
	t.Helper()

	tmpl := newTestTemplate(n)

	_, created, err := bm.InitGenerationDefault(tmpl, p2pkhScript(t))
	require.NoError(t, err)
	require.True(t, created)

	return tmpl
}

// referenceMerkleRoot computes the merkle root of the full transaction list the textbook way.
func referenceMerkleRoot(txs [][]byte) chainhash.Hash {
	level := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		level[i] = chainhash.DoubleHashH(tx)
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]chainhash.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, chainhash.DoubleHashH(append(level[i].CloneBytes(), level[i+1][:]...)))
		}

		level = next
	}

	return level[0]
}

func allTransactions(tmpl *model.Template, coinbase []byte) [][]byte {
	txs := [][]byte{coinbase}
	for _, tx := range tmpl.Transactions {
		txs = append(txs, tx.Data)
	}

	return txs
}
