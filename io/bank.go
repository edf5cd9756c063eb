package io

// BANK_SELECT_PORT is the port address of the bank select port.
const BANK_SELECT_PORT = uint8(0xff)

// Banker is the bank control surface of a banked memory.
type Banker interface {
	SetBank(index int) int
	Bank() int
	BankCount() int
}

// BankSelect bridges port transfers to bank selection.
// Output selects the bank, input reads back the current bank.
type BankSelect struct {
	Banker Banker
}

var _ Port = (*BankSelect)(nil)

// Reset does nothing; the memory owns the bank state.
func (bs *BankSelect) Reset() {
}

// In returns the current bank index.
func (bs *BankSelect) In() uint8 {
	return uint8(bs.Banker.Bank())
}

// Out selects the bank, reducing value modulo the bank count.
func (bs *BankSelect) Out(value uint8) {
	bs.Banker.SetBank(int(value) % bs.Banker.BankCount())
}
