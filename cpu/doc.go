// Package cpu implements the interpreter and assembler for the i8085 system.
//
// The CPU consists of an 8-bit accumulator (A), six 8-bit general-purpose
// registers (B, C, D, E, H, L) viewed as the BC, DE and HL pairs, a 16-bit
// stack pointer and program counter, and five condition flags. Memory is a
// banked 64K address space, and the bank is selected through the I/O port
// BANK_PORT.
//
// The assembler accepts Intel 8085 mnemonics, with labels, equates, macros and
// compile-time expression evaluation.
package cpu
