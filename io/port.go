// Package io provides the I/O port space of the i8085 emulator.
//
// The processor reaches ports only through the IN and OUT instructions. Each
// of the 256 port addresses may have a Port attached; unattached ports read as
// zero and ignore writes. The bank select port at BANK_SELECT_PORT is always
// present; a Tape may be attached elsewhere for byte stream I/O.
package io

// Port defines the interface for a device on the I/O port space.
type Port interface {
	// Reset returns the port to its power-on state.
	Reset()
	// In returns the value read by an IN instruction.
	In() uint8
	// Out receives the value written by an OUT instruction.
	Out(value uint8)
}

// Ports is the 256 entry port address space.
type Ports struct {
	port [256]Port
}

// Attach a port at an address, replacing any port already there.
func (ps *Ports) Attach(address uint8, port Port) {
	ps.port[address] = port
}

// Detach the port at an address.
func (ps *Ports) Detach(address uint8) {
	ps.port[address] = nil
}

// Get the port attached at an address.
func (ps *Ports) Get(address uint8) (port Port, err error) {
	port = ps.port[address]
	if port == nil {
		err = ErrPortInvalid
	}
	return
}

// In reads from the port at an address.
func (ps *Ports) In(address uint8) (value uint8) {
	port := ps.port[address]
	if port != nil {
		value = port.In()
	}
	return
}

// Out writes to the port at an address.
func (ps *Ports) Out(address uint8, value uint8) {
	port := ps.port[address]
	if port != nil {
		port.Out(value)
	}
}

// Reset resets every attached port.
func (ps *Ports) Reset() {
	for _, port := range ps.port {
		if port != nil {
			port.Reset()
		}
	}
}
