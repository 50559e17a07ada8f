package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nescore/internal/cpu"
)

type fakeBus struct {
	mem [0x10000]uint8
}

func (b *fakeBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func newTraceCPU(t *testing.T) (*cpu.CPU, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	c := cpu.New(bus)
	return c, bus
}

// TestFormatZeroPageRead matches spec.md §8 scenario 6 exactly.
func TestFormatZeroPageRead(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x0066] = 0xA5 // LDA zero page
	bus.mem[0x0067] = 0x20
	bus.mem[0x0020] = 0x00

	c.PC = 0x0066
	c.A = 0x10
	c.X = 0x02
	c.Y = 0x03
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	want := "0066  A5 20     LDA $20 = 00                    A:10 X:02 Y:03 P:24 SP:FD"
	assert.Equal(t, want, got)
}

func TestFormatImmediate(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x0064] = 0xA9 // LDA immediate
	bus.mem[0x0065] = 0x10

	c.PC = 0x0064
	c.A = 0x01
	c.X = 0x02
	c.Y = 0x03
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	want := "0064  A9 10     LDA #$10                        A:01 X:02 Y:03 P:24 SP:FD"
	assert.Equal(t, want, got)
}

func TestFormatIndirectIndexed(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x0064] = 0x11 // ORA (zp),Y
	bus.mem[0x0065] = 0x33
	bus.mem[0x0033] = 0x00
	bus.mem[0x0034] = 0x04
	bus.mem[0x0400] = 0xAA

	c.PC = 0x0064
	c.Y = 0x00
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	want := "0064  11 33     ORA ($33),Y = 0400 @ 0400 = AA  A:00 X:00 Y:00 P:24 SP:FD"
	assert.Equal(t, want, got)
}

func TestFormatAbsoluteShowsDereferencedValue(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x8000] = 0xAD // LDA absolute
	bus.mem[0x8001] = 0x00
	bus.mem[0x8002] = 0x02
	bus.mem[0x0200] = 0x7F

	c.PC = 0x8000
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	assert.Contains(t, got, "LDA $0200 = 7F", "Absolute reads must show the dereferenced value (fixes the known tutorial omission)")
}

func TestFormatAbsoluteJMPOmitsDereference(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x8000] = 0x4C // JMP absolute
	bus.mem[0x8001] = 0x00
	bus.mem[0x8002] = 0x02

	c.PC = 0x8000
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	assert.Contains(t, got, "JMP $0200")
	assert.NotContains(t, got, "= ", "JMP targets are never dereferenced")
}

func TestFormatZeroPageXShowsEffectiveAddress(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x0068] = 0xB5 // LDA zero page,X
	bus.mem[0x0069] = 0x30
	bus.mem[0x0032] = 0x00 // effective address 0x30+0x02

	c.PC = 0x0068
	c.X = 0x02
	c.P = 0x24
	c.SP = 0xFD

	got := Format(c)
	assert.Contains(t, got, "LDA $30,X @ 32 = 00")
}

func TestFormatDoesNotMutateState(t *testing.T) {
	c, bus := newTraceCPU(t)
	bus.mem[0x8000] = 0xA9
	bus.mem[0x8001] = 0x10
	c.PC = 0x8000

	pc, a := c.PC, c.A
	Format(c)
	assert.Equal(t, pc, c.PC)
	assert.Equal(t, a, c.A)
}
