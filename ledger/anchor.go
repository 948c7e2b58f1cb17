package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// anchorDiscriminator returns the 8-byte instruction discriminator the note
// programs expect: sha256("global:<snake_case_name>")[:8].
func anchorDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

// ixData is a tiny borsh-style argument encoder for anchor instructions.
type ixData struct {
	buf []byte
}

func newIxData(method string) *ixData {
	return &ixData{buf: anchorDiscriminator(method)}
}

func (d *ixData) Bool(v bool) *ixData {
	if v {
		d.buf = append(d.buf, 1)
	} else {
		d.buf = append(d.buf, 0)
	}
	return d
}

func (d *ixData) U8(v uint8) *ixData {
	d.buf = append(d.buf, v)
	return d
}

func (d *ixData) U64(v uint64) *ixData {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, v)
	return d
}

func (d *ixData) I64(v int64) *ixData {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, uint64(v))
	return d
}

func (d *ixData) String(v string) *ixData {
	d.buf = binary.LittleEndian.AppendUint32(d.buf, uint32(len(v)))
	d.buf = append(d.buf, v...)
	return d
}

func (d *ixData) Bytes() []byte {
	return d.buf
}

// meta builders, shorthand for solana.NewAccountMeta
func mWrite(pk solana.PublicKey) *solana.AccountMeta  { return solana.NewAccountMeta(pk, true, false) }
func mRead(pk solana.PublicKey) *solana.AccountMeta   { return solana.NewAccountMeta(pk, false, false) }
func mSigner(pk solana.PublicKey) *solana.AccountMeta { return solana.NewAccountMeta(pk, true, true) }
