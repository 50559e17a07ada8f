// Package bus implements the NES system bus: the CPU's view of address
// space, decoding reads and writes across work RAM, the PPU register
// window, and cartridge PRG-ROM.
package bus

import (
	"log"

	"nescore/internal/cartridge"
)

const (
	ramStart     = 0x0000
	ramEnd       = 0x1FFF
	ramSize      = 0x0800 // 2KiB, mirrored four times across ramStart-ramEnd
	ramMirrorLen = 0x0800

	ppuStart = 0x2000
	ppuEnd   = 0x3FFF

	unmappedStart = 0x4000
	unmappedEnd   = 0x7FFF

	prgStart = 0x8000
	prgEnd   = 0xFFFF
)

// Bus is the CPU-side memory map. It owns 2KiB of work RAM and a loaded
// cartridge; everything else (PPU registers, APU/IO, unmapped space) is
// a logging stub, since no PPU/APU exists in this core.
type Bus struct {
	ram [ramSize]byte
	rom *cartridge.ROM

	// loggedUnmapped/loggedPPU throttle the "ignoring access" log lines
	// to once per distinct address, so a hot polling loop against a
	// stub register doesn't flood stdout.
	loggedPPU      map[uint16]bool
	loggedUnmapped map[uint16]bool

	// ppuLatch is the last byte written into the PPU register window,
	// returned on read so the stub never looks like it returns garbage
	// that changes on every call.
	ppuLatch byte
}

// New creates a Bus with no cartridge loaded. LoadCartridge must be
// called before any read/write touches 0x8000-0xFFFF.
func New() *Bus {
	return &Bus{
		loggedPPU:      make(map[uint16]bool),
		loggedUnmapped: make(map[uint16]bool),
	}
}

// LoadCartridge attaches a parsed ROM to the bus. Work RAM is left
// untouched; a fresh Bus is zero-initialized, matching spec's power-up
// state (no randomized RAM pattern).
func (b *Bus) LoadCartridge(rom *cartridge.ROM) {
	b.rom = rom
}

// Read dispatches a CPU-visible address to RAM, the PPU register stub,
// the unmapped region, or cartridge PRG-ROM.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr >= ramStart && addr <= ramEnd:
		return b.ram[addr%ramMirrorLen]

	case addr >= ppuStart && addr <= ppuEnd:
		b.logPPU(addr)
		return b.ppuLatch

	case addr >= unmappedStart && addr <= unmappedEnd:
		b.logUnmapped(addr, "read")
		return 0

	case addr >= prgStart && addr <= prgEnd:
		if b.rom == nil {
			return 0
		}
		return b.readPRG(addr)

	default:
		return 0
	}
}

// Write dispatches a CPU-visible address for a write access. Writes to
// PRG-ROM are accepted and silently discarded (cartridges here have no
// mapper registers); writes to the unmapped region are logged and
// ignored.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr >= ramStart && addr <= ramEnd:
		b.ram[addr%ramMirrorLen] = value

	case addr >= ppuStart && addr <= ppuEnd:
		b.logPPU(addr)
		b.ppuLatch = value

	case addr >= unmappedStart && addr <= unmappedEnd:
		b.logUnmapped(addr, "write")

	case addr >= prgStart && addr <= prgEnd:
		// PRG-ROM is read-only from the CPU's perspective; NROM has no
		// bank-switch registers to trap this write into.

	default:
	}
}

// readPRG applies NROM's 16KiB mirroring: a cartridge with exactly one
// 16KiB PRG bank repeats it across the full 0x8000-0xFFFF window.
func (b *Bus) readPRG(addr uint16) uint8 {
	offset := addr - prgStart
	if len(b.rom.PRG) <= 0x4000 && len(b.rom.PRG) > 0 {
		offset %= uint16(len(b.rom.PRG))
	}
	if int(offset) >= len(b.rom.PRG) {
		return 0
	}
	return b.rom.PRG[offset]
}

// ReadU16 reads a little-endian 16-bit value.
func (b *Bus) ReadU16(addr uint16) uint16 {
	lo := uint16(b.Read(addr))
	hi := uint16(b.Read(addr + 1))
	return hi<<8 | lo
}

// WriteU16 writes a little-endian 16-bit value.
func (b *Bus) WriteU16(addr uint16, value uint16) {
	b.Write(addr, uint8(value&0xFF))
	b.Write(addr+1, uint8(value>>8))
}

func (b *Bus) logPPU(addr uint16) {
	if b.loggedPPU[addr] {
		return
	}
	b.loggedPPU[addr] = true
	log.Printf("bus: access to stubbed PPU register $%04X (no PPU present)", addr)
}

func (b *Bus) logUnmapped(addr uint16, op string) {
	if b.loggedUnmapped[addr] {
		return
	}
	b.loggedUnmapped[addr] = true
	log.Printf("bus: ignoring %s to unmapped address $%04X", op, addr)
}
