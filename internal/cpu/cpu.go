// Package cpu implements the MOS 6502 CPU core used by the NES/Famicom.
package cpu

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// AddressingMode identifies how an instruction's operand address is
// computed.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// Status register bit masks, laid out exactly as on real 6502 hardware:
// C=0 Z=1 I=2 D=3 B=4 U=5 V=6 N=7. B only ever exists in a byte pushed
// to the stack (PHP/BRK set it, NMI/IRQ clear it); it is not part of
// the live P register between instructions. U always reads as 1.
const (
	FlagC uint8 = 1 << 0
	FlagZ uint8 = 1 << 1
	FlagI uint8 = 1 << 2
	FlagD uint8 = 1 << 3
	FlagB uint8 = 1 << 4
	FlagU uint8 = 1 << 5
	FlagV uint8 = 1 << 6
	FlagN uint8 = 1 << 7
)

const (
	stackBase    = 0x0100
	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	resetVector = 0xFFFC
)

// Instruction describes a single opcode's static shape: its mnemonic,
// encoded length, base cycle count, and addressing mode.
type Instruction struct {
	Name   string
	Opcode uint8
	Bytes  uint8
	Cycles uint8
	Mode   AddressingMode
}

// Bus is everything the CPU needs from the system it's wired to.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// CPU is a MOS 6502 interpreter: registers, status flags, and an
// opcode dispatch table driving reads and writes through a Bus.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16
	P  uint8 // packed status register, see the Flag* bit masks

	bus Bus

	cycles      uint64
	instruction [256]*Instruction

	// halted is set by BRK. The driving loop (Run/RunWithCallback)
	// checks it after every Step and stops rather than continuing to
	// execute past a software break.
	halted bool

	// Loop guard: detects a branch/jump stuck re-executing the same PC
	// forever. Off by default; enabled by RunWithCallback's caller.
	loopGuard   bool
	loopLimit   int
	lastPC      uint16
	pcStayCount int
}

// New creates a CPU wired to the given bus. Call Reset before running
// it to establish the documented power-up register state.
func New(bus Bus) *CPU {
	cpu := &CPU{bus: bus}
	cpu.initInstructions()
	return cpu
}

// Reset restores the documented 6502 power-up/reset state: A, X, Y
// zeroed, SP=0xFD, status=0x24 (I and the always-set unused bit, B and
// everything else clear), and PC loaded from the reset vector at
// 0xFFFC-0xFFFD.
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xFD
	cpu.P = FlagI | FlagU
	cpu.halted = false
	cpu.PC = cpu.readU16(resetVector)
}

// Load writes program into the bus's address space starting at
// 0x8000 and points the reset vector (0xFFFC-0xFFFD) at it. This is
// the test-mode RAM-staging convenience from spec.md's host contract:
// against a bus backed by real PRG-ROM (see internal/bus), writes into
// that range are rejected exactly like any other code trying to write
// cartridge space, so Load only has an effect against a writable
// (e.g. mock) bus. Real ROMs go through cartridge.Load and
// Bus.LoadCartridge instead (see internal/cli).
func (cpu *CPU) Load(program []byte) {
	for i, b := range program {
		cpu.bus.Write(0x8000+uint16(i), b)
	}
	cpu.bus.Write(0xFFFC, 0x00)
	cpu.bus.Write(0xFFFD, 0x80)
}

// LoadAndRun loads program at 0x8000, resets the CPU so PC and
// registers reflect the documented power-up state, and runs until
// BRK halts it.
func (cpu *CPU) LoadAndRun(program []byte) error {
	cpu.Load(program)
	cpu.Reset()
	return cpu.Run()
}

// SetLoopGuard enables the runaway-PC detector for RunWithCallback:
// if the PC does not change across more than limit consecutive steps,
// Step panics instead of spinning forever. limit<=0 disables the guard.
func (cpu *CPU) SetLoopGuard(limit int) {
	cpu.loopGuard = limit > 0
	cpu.loopLimit = limit
	cpu.pcStayCount = 0
}

// Halted reports whether BRK has halted the CPU.
func (cpu *CPU) Halted() bool { return cpu.halted }

// Cycles returns the running total of cycles consumed since the CPU
// was constructed (Reset does not reset this counter).
func (cpu *CPU) Cycles() uint64 { return cpu.cycles }

// Lookup returns the static instruction shape for an opcode, or nil if
// the opcode is not assigned. Used by the trace formatter.
func (cpu *CPU) Lookup(opcode uint8) *Instruction { return cpu.instruction[opcode] }

// ReadBus exposes a pure memory read for callers (such as the trace
// formatter) that need to inspect operand values without affecting
// dispatch state.
func (cpu *CPU) ReadBus(addr uint16) uint8 { return cpu.bus.Read(addr) }

// Step fetches, decodes, and executes one instruction, returning the
// number of cycles it took. Calling Step after BRK has halted the CPU
// is a no-op that returns 0.
func (cpu *CPU) Step() uint64 {
	if cpu.halted {
		return 0
	}

	pc := cpu.PC
	opcode := cpu.bus.Read(pc)
	instr := cpu.instruction[opcode]
	if instr == nil {
		panic(fmt.Sprintf("cpu: unimplemented opcode 0x%02X at $%04X\n%s", opcode, pc, cpu.DumpState()))
	}

	if cpu.loopGuard {
		cpu.detectRunawayPC(pc)
	}

	address, pageCrossed := cpu.operandAddress(instr.Mode)
	extra := cpu.execute(opcode, address, pageCrossed)

	if pageCrossed {
		extra += pageCrossPenalty(opcode)
	}

	total := uint64(instr.Cycles) + uint64(extra)
	cpu.cycles += total
	return total
}

// Run executes instructions until BRK halts the CPU.
func (cpu *CPU) Run() error {
	return cpu.RunWithCallback(func(*CPU) {})
}

// RunWithCallback executes instructions until BRK halts the CPU,
// invoking callback before each Step so a caller can trace, inspect,
// or stop early.
func (cpu *CPU) RunWithCallback(callback func(*CPU)) error {
	for !cpu.halted {
		callback(cpu)
		cpu.Step()
	}
	return nil
}

func (cpu *CPU) detectRunawayPC(pc uint16) {
	if pc == cpu.lastPC {
		cpu.pcStayCount++
	} else {
		cpu.pcStayCount = 0
		cpu.lastPC = pc
	}
	if cpu.pcStayCount > cpu.loopLimit {
		panic(fmt.Sprintf("cpu: PC stuck at $%04X for more than %d steps", pc, cpu.loopLimit))
	}
}

// pageCrossPenalty reports the extra cycle charged when an indexed
// read (or certain unofficial opcodes) crosses a page boundary. Store
// instructions always pay that cycle, so it is already in their base
// count; branches are handled by their own call sites.
func pageCrossPenalty(opcode uint8) uint8 {
	switch opcode {
	case 0xBD, 0xB9, 0xB1, 0xBE, 0xBC, 0x7D, 0x79, 0x71, 0x3D, 0x39, 0x31,
		0x1D, 0x19, 0x11, 0x5D, 0x59, 0x51, 0xDD, 0xD9, 0xD1,
		0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC,
		0xBF, 0xB3, 0xD3, 0xD7, 0xDF, 0xF3, 0xF7, 0xFF, 0x13, 0x17, 0x1F, 0x33, 0x37, 0x3F, 0x53, 0x57, 0x5F, 0x73, 0x77, 0x7F:
		return 1
	default:
		return 0
	}
}

// operandAddress computes the effective address for an addressing
// mode and advances PC past the instruction's operand bytes. Relative
// mode leaves PC at the byte after the branch operand; the branch
// handler itself decides whether to jump to the computed address.
func (cpu *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		cpu.PC++
		return 0, false

	case Immediate:
		addr := cpu.PC + 1
		cpu.PC += 2
		return addr, false

	case ZeroPage:
		addr := uint16(cpu.bus.Read(cpu.PC + 1))
		cpu.PC += 2
		return addr, false

	case ZeroPageX:
		base := cpu.bus.Read(cpu.PC + 1)
		addr := uint16((base + cpu.X) & zeroPageMask)
		cpu.PC += 2
		return addr, false

	case ZeroPageY:
		base := cpu.bus.Read(cpu.PC + 1)
		addr := uint16((base + cpu.Y) & zeroPageMask)
		cpu.PC += 2
		return addr, false

	case Relative:
		offset := int8(cpu.bus.Read(cpu.PC + 1))
		oldPC := cpu.PC + 2
		newPC := uint16(int32(oldPC) + int32(offset))
		cpu.PC = oldPC
		return newPC, (oldPC & pageMask) != (newPC & pageMask)

	case Absolute:
		addr := cpu.readU16(cpu.PC + 1)
		cpu.PC += 3
		return addr, false

	case AbsoluteX:
		base := cpu.readU16(cpu.PC + 1)
		addr := base + uint16(cpu.X)
		cpu.PC += 3
		return addr, (base & pageMask) != (addr & pageMask)

	case AbsoluteY:
		base := cpu.readU16(cpu.PC + 1)
		addr := base + uint16(cpu.Y)
		cpu.PC += 3
		return addr, (base & pageMask) != (addr & pageMask)

	case Indirect: // JMP only
		ptr := cpu.readU16(cpu.PC + 1)
		var addr uint16
		if (ptr & zeroPageMask) == zeroPageMask {
			// Hardware bug: the high byte wraps to the start of the
			// same page instead of crossing into the next one.
			lo := uint16(cpu.bus.Read(ptr))
			hi := uint16(cpu.bus.Read(ptr & pageMask))
			addr = hi<<8 | lo
		} else {
			addr = cpu.readU16(ptr)
		}
		cpu.PC += 3
		return addr, false

	case IndexedIndirect:
		base := cpu.bus.Read(cpu.PC + 1)
		ptr := (base + cpu.X) & zeroPageMask
		lo := uint16(cpu.bus.Read(uint16(ptr)))
		hi := uint16(cpu.bus.Read(uint16((ptr + 1) & zeroPageMask)))
		cpu.PC += 2
		return hi<<8 | lo, false

	case IndirectIndexed:
		ptr := uint16(cpu.bus.Read(cpu.PC + 1))
		lo := uint16(cpu.bus.Read(ptr))
		hi := uint16(cpu.bus.Read((ptr + 1) & zeroPageMask))
		base := hi<<8 | lo
		addr := base + uint16(cpu.Y)
		cpu.PC += 2
		return addr, (base & pageMask) != (addr & pageMask)

	default:
		return 0, false
	}
}

func (cpu *CPU) readU16(addr uint16) uint16 {
	lo := uint16(cpu.bus.Read(addr))
	hi := uint16(cpu.bus.Read(addr + 1))
	return hi<<8 | lo
}

func (cpu *CPU) push(value uint8) {
	cpu.bus.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.bus.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value & 0xFF))
}

func (cpu *CPU) popWord() uint16 {
	lo := uint16(cpu.pop())
	hi := uint16(cpu.pop())
	return hi<<8 | lo
}

func (cpu *CPU) getFlag(mask uint8) bool { return cpu.P&mask != 0 }

func (cpu *CPU) setFlag(mask uint8, set bool) {
	if set {
		cpu.P |= mask
	} else {
		cpu.P &^= mask
	}
}

func (cpu *CPU) setZN(value uint8) {
	cpu.setFlag(FlagZ, value == 0)
	cpu.setFlag(FlagN, value&0x80 != 0)
}

// pushStatus returns the byte PHP pushes: P with U and B both forced
// set, matching a software-initiated status push on real hardware.
func (cpu *CPU) pushStatus() uint8 {
	return cpu.P | FlagU | FlagB
}

// restoreStatus loads P from a popped byte (PLP/RTI), discarding B —
// real hardware has no such bit in the live register — and forcing U.
func (cpu *CPU) restoreStatus(value uint8) {
	cpu.P = (value &^ FlagB) | FlagU
}

// StatusByte returns the live status register, matching what an
// external observer (the trace formatter) would read.
func (cpu *CPU) StatusByte() uint8 { return cpu.P }

// DumpState renders the register file and the decoded instruction at
// the current PC for diagnostics, e.g. when a decode error is fatal.
func (cpu *CPU) DumpState() string {
	return spew.Sdump(struct {
		PC          uint16
		A, X, Y, SP uint8
		P           uint8
		Cycles      uint64
		Opcode      uint8
		Instruction *Instruction
	}{
		PC:          cpu.PC,
		A:           cpu.A,
		X:           cpu.X,
		Y:           cpu.Y,
		SP:          cpu.SP,
		P:           cpu.P,
		Cycles:      cpu.cycles,
		Opcode:      cpu.bus.Read(cpu.PC),
		Instruction: cpu.instruction[cpu.bus.Read(cpu.PC)],
	})
}

// --- Load/Store ---

func (cpu *CPU) lda(addr uint16) uint8 { cpu.A = cpu.bus.Read(addr); cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) ldx(addr uint16) uint8 { cpu.X = cpu.bus.Read(addr); cpu.setZN(cpu.X); return 0 }
func (cpu *CPU) ldy(addr uint16) uint8 { cpu.Y = cpu.bus.Read(addr); cpu.setZN(cpu.Y); return 0 }
func (cpu *CPU) sta(addr uint16) uint8 { cpu.bus.Write(addr, cpu.A); return 0 }
func (cpu *CPU) stx(addr uint16) uint8 { cpu.bus.Write(addr, cpu.X); return 0 }
func (cpu *CPU) sty(addr uint16) uint8 { cpu.bus.Write(addr, cpu.Y); return 0 }

// --- Arithmetic ---

func (cpu *CPU) adc(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	var carry uint16
	if cpu.getFlag(FlagC) {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	cpu.setFlag(FlagV, ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^value)&0x80) == 0)
	cpu.setFlag(FlagC, result > 0xFF)
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sbc(addr uint16) uint8 {
	value := cpu.bus.Read(addr) ^ 0xFF
	var carry uint16
	if cpu.getFlag(FlagC) {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	cpu.setFlag(FlagV, ((cpu.A^uint8(result))&0x80) != 0 && ((cpu.A^value)&0x80) == 0)
	cpu.setFlag(FlagC, result > 0xFF)
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
	return 0
}

// --- Logical ---

func (cpu *CPU) and(addr uint16) uint8 { cpu.A &= cpu.bus.Read(addr); cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) ora(addr uint16) uint8 { cpu.A |= cpu.bus.Read(addr); cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) eor(addr uint16) uint8 { cpu.A ^= cpu.bus.Read(addr); cpu.setZN(cpu.A); return 0 }

// --- Shift/rotate (memory operand) ---

func (cpu *CPU) asl(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, value&0x80 != 0)
	value <<= 1
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) lsr(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, value&0x01 != 0)
	value >>= 1
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) rol(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	oldCarry := cpu.getFlag(FlagC)
	cpu.setFlag(FlagC, value&0x80 != 0)
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) ror(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	oldCarry := cpu.getFlag(FlagC)
	cpu.setFlag(FlagC, value&0x01 != 0)
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

// --- Compare ---

func (cpu *CPU) cmp(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, cpu.A >= value)
	cpu.setZN(cpu.A - value)
	return 0
}

func (cpu *CPU) cpx(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, cpu.X >= value)
	cpu.setZN(cpu.X - value)
	return 0
}

func (cpu *CPU) cpy(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, cpu.Y >= value)
	cpu.setZN(cpu.Y - value)
	return 0
}

// --- Increment/decrement ---

func (cpu *CPU) inc(addr uint16) uint8 {
	value := cpu.bus.Read(addr) + 1
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) dec(addr uint16) uint8 {
	value := cpu.bus.Read(addr) - 1
	cpu.bus.Write(addr, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) inx(uint16) uint8 { cpu.X++; cpu.setZN(cpu.X); return 0 }
func (cpu *CPU) dex(uint16) uint8 { cpu.X--; cpu.setZN(cpu.X); return 0 }
func (cpu *CPU) iny(uint16) uint8 { cpu.Y++; cpu.setZN(cpu.Y); return 0 }
func (cpu *CPU) dey(uint16) uint8 { cpu.Y--; cpu.setZN(cpu.Y); return 0 }

// --- Transfer ---

func (cpu *CPU) tax(uint16) uint8 { cpu.X = cpu.A; cpu.setZN(cpu.X); return 0 }
func (cpu *CPU) txa(uint16) uint8 { cpu.A = cpu.X; cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) tay(uint16) uint8 { cpu.Y = cpu.A; cpu.setZN(cpu.Y); return 0 }
func (cpu *CPU) tya(uint16) uint8 { cpu.A = cpu.Y; cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) tsx(uint16) uint8 { cpu.X = cpu.SP; cpu.setZN(cpu.X); return 0 }
func (cpu *CPU) txs(uint16) uint8 { cpu.SP = cpu.X; return 0 }

// --- Stack ---

func (cpu *CPU) pha(uint16) uint8 { cpu.push(cpu.A); return 0 }
func (cpu *CPU) pla(uint16) uint8 { cpu.A = cpu.pop(); cpu.setZN(cpu.A); return 0 }
func (cpu *CPU) php(uint16) uint8 { cpu.push(cpu.pushStatus()); return 0 }
func (cpu *CPU) plp(uint16) uint8 { cpu.restoreStatus(cpu.pop()); return 0 }

// --- Flags ---

func (cpu *CPU) clc(uint16) uint8 { cpu.setFlag(FlagC, false); return 0 }
func (cpu *CPU) sec(uint16) uint8 { cpu.setFlag(FlagC, true); return 0 }
func (cpu *CPU) cli(uint16) uint8 { cpu.setFlag(FlagI, false); return 0 }
func (cpu *CPU) sei(uint16) uint8 { cpu.setFlag(FlagI, true); return 0 }
func (cpu *CPU) clv(uint16) uint8 { cpu.setFlag(FlagV, false); return 0 }
func (cpu *CPU) cld(uint16) uint8 { cpu.setFlag(FlagD, false); return 0 }
func (cpu *CPU) sed(uint16) uint8 { cpu.setFlag(FlagD, true); return 0 }

// --- Control flow ---

func (cpu *CPU) jmp(addr uint16) uint8 { cpu.PC = addr; return 0 }

func (cpu *CPU) jsr(addr uint16) uint8 {
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = addr
	return 0
}

func (cpu *CPU) rts(uint16) uint8 { cpu.PC = cpu.popWord() + 1; return 0 }

func (cpu *CPU) rti(uint16) uint8 {
	cpu.restoreStatus(cpu.pop())
	cpu.PC = cpu.popWord()
	return 0
}

func branch(cpu *CPU, take bool, addr uint16, pageCrossed bool) uint8 {
	if !take {
		return 0
	}
	cpu.PC = addr
	if pageCrossed {
		return 2
	}
	return 1
}

func (cpu *CPU) bcc(addr uint16, pc bool) uint8 { return branch(cpu, !cpu.getFlag(FlagC), addr, pc) }
func (cpu *CPU) bcs(addr uint16, pc bool) uint8 { return branch(cpu, cpu.getFlag(FlagC), addr, pc) }
func (cpu *CPU) bne(addr uint16, pc bool) uint8 { return branch(cpu, !cpu.getFlag(FlagZ), addr, pc) }
func (cpu *CPU) beq(addr uint16, pc bool) uint8 { return branch(cpu, cpu.getFlag(FlagZ), addr, pc) }
func (cpu *CPU) bpl(addr uint16, pc bool) uint8 { return branch(cpu, !cpu.getFlag(FlagN), addr, pc) }
func (cpu *CPU) bmi(addr uint16, pc bool) uint8 { return branch(cpu, cpu.getFlag(FlagN), addr, pc) }
func (cpu *CPU) bvc(addr uint16, pc bool) uint8 { return branch(cpu, !cpu.getFlag(FlagV), addr, pc) }
func (cpu *CPU) bvs(addr uint16, pc bool) uint8 { return branch(cpu, cpu.getFlag(FlagV), addr, pc) }

// --- Misc ---

func (cpu *CPU) bit(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagN, value&FlagN != 0)
	cpu.setFlag(FlagV, value&FlagV != 0)
	cpu.setFlag(FlagZ, cpu.A&value == 0)
	return 0
}

func (cpu *CPU) nop(uint16) uint8 { return 0 }

// brk halts the driving loop. This core scopes BRK as a plain stop —
// no stack push, no status push, no vector fetch — matching the
// current spec; a faithful push-PC+2/push-status/vector-through-0xFFFE
// sequence is future work, not implemented here.
func (cpu *CPU) brk(uint16) uint8 {
	cpu.halted = true
	return 0
}

// --- Unofficial opcodes ---

func (cpu *CPU) lax(addr uint16) uint8 {
	cpu.A = cpu.bus.Read(addr)
	cpu.X = cpu.A
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sax(addr uint16) uint8 { cpu.bus.Write(addr, cpu.A&cpu.X); return 0 }

func (cpu *CPU) dcp(addr uint16) uint8 {
	value := cpu.bus.Read(addr) - 1
	cpu.bus.Write(addr, value)
	cpu.setFlag(FlagC, cpu.A >= value)
	cpu.setZN(cpu.A - value)
	return 0
}

func (cpu *CPU) isb(addr uint16) uint8 {
	value := cpu.bus.Read(addr) + 1
	cpu.bus.Write(addr, value)
	return cpu.sbc(addr)
}

func (cpu *CPU) slo(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, value&0x80 != 0)
	value <<= 1
	cpu.bus.Write(addr, value)
	cpu.A |= value
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) rla(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	oldCarry := cpu.getFlag(FlagC)
	cpu.setFlag(FlagC, value&0x80 != 0)
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.bus.Write(addr, value)
	cpu.A &= value
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) sre(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	cpu.setFlag(FlagC, value&0x01 != 0)
	value >>= 1
	cpu.bus.Write(addr, value)
	cpu.A ^= value
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) rra(addr uint16) uint8 {
	value := cpu.bus.Read(addr)
	oldCarry := cpu.getFlag(FlagC)
	cpu.setFlag(FlagC, value&0x01 != 0)
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.bus.Write(addr, value)
	return cpu.adc(addr)
}

// execute dispatches a decoded opcode to its handler and returns any
// extra cycles beyond the instruction's base count (accumulator-mode
// shifts are inlined here since they don't take a memory operand
// address the way their memory-mode counterparts do; branches also
// receive the page-cross flag to compute their extra cycles).
func (cpu *CPU) execute(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		return cpu.lda(address)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		return cpu.ldx(address)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		return cpu.ldy(address)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		return cpu.sta(address)
	case 0x86, 0x96, 0x8E:
		return cpu.stx(address)
	case 0x84, 0x94, 0x8C:
		return cpu.sty(address)

	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		return cpu.adc(address)
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1:
		return cpu.sbc(address)

	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		return cpu.and(address)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		return cpu.ora(address)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		return cpu.eor(address)

	case 0x0A:
		cpu.setFlag(FlagC, cpu.A&0x80 != 0)
		cpu.A <<= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x06, 0x16, 0x0E, 0x1E:
		return cpu.asl(address)
	case 0x4A:
		cpu.setFlag(FlagC, cpu.A&0x01 != 0)
		cpu.A >>= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x46, 0x56, 0x4E, 0x5E:
		return cpu.lsr(address)
	case 0x2A:
		oldCarry := cpu.getFlag(FlagC)
		cpu.setFlag(FlagC, cpu.A&0x80 != 0)
		cpu.A <<= 1
		if oldCarry {
			cpu.A |= 0x01
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x26, 0x36, 0x2E, 0x3E:
		return cpu.rol(address)
	case 0x6A:
		oldCarry := cpu.getFlag(FlagC)
		cpu.setFlag(FlagC, cpu.A&0x01 != 0)
		cpu.A >>= 1
		if oldCarry {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x66, 0x76, 0x6E, 0x7E:
		return cpu.ror(address)

	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		return cpu.cmp(address)
	case 0xE0, 0xE4, 0xEC:
		return cpu.cpx(address)
	case 0xC0, 0xC4, 0xCC:
		return cpu.cpy(address)

	case 0xE6, 0xF6, 0xEE, 0xFE:
		return cpu.inc(address)
	case 0xC6, 0xD6, 0xCE, 0xDE:
		return cpu.dec(address)
	case 0xE8:
		return cpu.inx(address)
	case 0xCA:
		return cpu.dex(address)
	case 0xC8:
		return cpu.iny(address)
	case 0x88:
		return cpu.dey(address)

	case 0xAA:
		return cpu.tax(address)
	case 0x8A:
		return cpu.txa(address)
	case 0xA8:
		return cpu.tay(address)
	case 0x98:
		return cpu.tya(address)
	case 0xBA:
		return cpu.tsx(address)
	case 0x9A:
		return cpu.txs(address)

	case 0x48:
		return cpu.pha(address)
	case 0x68:
		return cpu.pla(address)
	case 0x08:
		return cpu.php(address)
	case 0x28:
		return cpu.plp(address)

	case 0x18:
		return cpu.clc(address)
	case 0x38:
		return cpu.sec(address)
	case 0x58:
		return cpu.cli(address)
	case 0x78:
		return cpu.sei(address)
	case 0xB8:
		return cpu.clv(address)
	case 0xD8:
		return cpu.cld(address)
	case 0xF8:
		return cpu.sed(address)

	case 0x4C, 0x6C:
		return cpu.jmp(address)
	case 0x20:
		return cpu.jsr(address)
	case 0x60:
		return cpu.rts(address)
	case 0x40:
		return cpu.rti(address)

	case 0x90:
		return cpu.bcc(address, pageCrossed)
	case 0xB0:
		return cpu.bcs(address, pageCrossed)
	case 0xD0:
		return cpu.bne(address, pageCrossed)
	case 0xF0:
		return cpu.beq(address, pageCrossed)
	case 0x10:
		return cpu.bpl(address, pageCrossed)
	case 0x30:
		return cpu.bmi(address, pageCrossed)
	case 0x50:
		return cpu.bvc(address, pageCrossed)
	case 0x70:
		return cpu.bvs(address, pageCrossed)

	case 0x24, 0x2C:
		return cpu.bit(address)
	case 0x00:
		return cpu.brk(address)

	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA, 0x80, 0x82, 0x89, 0xC2, 0xE2,
		0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4, 0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		return cpu.nop(address)

	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF:
		return cpu.lax(address)
	case 0x83, 0x87, 0x8F, 0x97:
		return cpu.sax(address)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB:
		return cpu.dcp(address)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB:
		return cpu.isb(address)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B:
		return cpu.slo(address)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B:
		return cpu.rla(address)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B:
		return cpu.sre(address)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B:
		return cpu.rra(address)

	default:
		panic(fmt.Sprintf("cpu: unhandled opcode 0x%02X", opcode))
	}
}

// initInstructions populates the 256-entry opcode dispatch table
// (mnemonic, encoded length, base cycle count, addressing mode) for
// every official opcode plus the eight common unofficial opcodes
// (LAX/SAX/DCP/ISB/SLO/RLA/SRE/RRA) and their unofficial-NOP fillers.
func (cpu *CPU) initInstructions() {
	set := func(op uint8, name string, bytes, cycles uint8, mode AddressingMode) {
		cpu.instruction[op] = &Instruction{name, op, bytes, cycles, mode}
	}

	set(0xA9, "LDA", 2, 2, Immediate)
	set(0xA5, "LDA", 2, 3, ZeroPage)
	set(0xB5, "LDA", 2, 4, ZeroPageX)
	set(0xAD, "LDA", 3, 4, Absolute)
	set(0xBD, "LDA", 3, 4, AbsoluteX)
	set(0xB9, "LDA", 3, 4, AbsoluteY)
	set(0xA1, "LDA", 2, 6, IndexedIndirect)
	set(0xB1, "LDA", 2, 5, IndirectIndexed)

	set(0xA2, "LDX", 2, 2, Immediate)
	set(0xA6, "LDX", 2, 3, ZeroPage)
	set(0xB6, "LDX", 2, 4, ZeroPageY)
	set(0xAE, "LDX", 3, 4, Absolute)
	set(0xBE, "LDX", 3, 4, AbsoluteY)

	set(0xA0, "LDY", 2, 2, Immediate)
	set(0xA4, "LDY", 2, 3, ZeroPage)
	set(0xB4, "LDY", 2, 4, ZeroPageX)
	set(0xAC, "LDY", 3, 4, Absolute)
	set(0xBC, "LDY", 3, 4, AbsoluteX)

	set(0x85, "STA", 2, 3, ZeroPage)
	set(0x95, "STA", 2, 4, ZeroPageX)
	set(0x8D, "STA", 3, 4, Absolute)
	set(0x9D, "STA", 3, 5, AbsoluteX)
	set(0x99, "STA", 3, 5, AbsoluteY)
	set(0x81, "STA", 2, 6, IndexedIndirect)
	set(0x91, "STA", 2, 6, IndirectIndexed)

	set(0x86, "STX", 2, 3, ZeroPage)
	set(0x96, "STX", 2, 4, ZeroPageY)
	set(0x8E, "STX", 3, 4, Absolute)

	set(0x84, "STY", 2, 3, ZeroPage)
	set(0x94, "STY", 2, 4, ZeroPageX)
	set(0x8C, "STY", 3, 4, Absolute)

	set(0x69, "ADC", 2, 2, Immediate)
	set(0x65, "ADC", 2, 3, ZeroPage)
	set(0x75, "ADC", 2, 4, ZeroPageX)
	set(0x6D, "ADC", 3, 4, Absolute)
	set(0x7D, "ADC", 3, 4, AbsoluteX)
	set(0x79, "ADC", 3, 4, AbsoluteY)
	set(0x61, "ADC", 2, 6, IndexedIndirect)
	set(0x71, "ADC", 2, 5, IndirectIndexed)

	set(0xE9, "SBC", 2, 2, Immediate)
	set(0xE5, "SBC", 2, 3, ZeroPage)
	set(0xF5, "SBC", 2, 4, ZeroPageX)
	set(0xED, "SBC", 3, 4, Absolute)
	set(0xFD, "SBC", 3, 4, AbsoluteX)
	set(0xF9, "SBC", 3, 4, AbsoluteY)
	set(0xE1, "SBC", 2, 6, IndexedIndirect)
	set(0xF1, "SBC", 2, 5, IndirectIndexed)

	set(0x29, "AND", 2, 2, Immediate)
	set(0x25, "AND", 2, 3, ZeroPage)
	set(0x35, "AND", 2, 4, ZeroPageX)
	set(0x2D, "AND", 3, 4, Absolute)
	set(0x3D, "AND", 3, 4, AbsoluteX)
	set(0x39, "AND", 3, 4, AbsoluteY)
	set(0x21, "AND", 2, 6, IndexedIndirect)
	set(0x31, "AND", 2, 5, IndirectIndexed)

	set(0x09, "ORA", 2, 2, Immediate)
	set(0x05, "ORA", 2, 3, ZeroPage)
	set(0x15, "ORA", 2, 4, ZeroPageX)
	set(0x0D, "ORA", 3, 4, Absolute)
	set(0x1D, "ORA", 3, 4, AbsoluteX)
	set(0x19, "ORA", 3, 4, AbsoluteY)
	set(0x01, "ORA", 2, 6, IndexedIndirect)
	set(0x11, "ORA", 2, 5, IndirectIndexed)

	set(0x49, "EOR", 2, 2, Immediate)
	set(0x45, "EOR", 2, 3, ZeroPage)
	set(0x55, "EOR", 2, 4, ZeroPageX)
	set(0x4D, "EOR", 3, 4, Absolute)
	set(0x5D, "EOR", 3, 4, AbsoluteX)
	set(0x59, "EOR", 3, 4, AbsoluteY)
	set(0x41, "EOR", 2, 6, IndexedIndirect)
	set(0x51, "EOR", 2, 5, IndirectIndexed)

	set(0x0A, "ASL", 1, 2, Accumulator)
	set(0x06, "ASL", 2, 5, ZeroPage)
	set(0x16, "ASL", 2, 6, ZeroPageX)
	set(0x0E, "ASL", 3, 6, Absolute)
	set(0x1E, "ASL", 3, 7, AbsoluteX)

	set(0x4A, "LSR", 1, 2, Accumulator)
	set(0x46, "LSR", 2, 5, ZeroPage)
	set(0x56, "LSR", 2, 6, ZeroPageX)
	set(0x4E, "LSR", 3, 6, Absolute)
	set(0x5E, "LSR", 3, 7, AbsoluteX)

	set(0x2A, "ROL", 1, 2, Accumulator)
	set(0x26, "ROL", 2, 5, ZeroPage)
	set(0x36, "ROL", 2, 6, ZeroPageX)
	set(0x2E, "ROL", 3, 6, Absolute)
	set(0x3E, "ROL", 3, 7, AbsoluteX)

	set(0x6A, "ROR", 1, 2, Accumulator)
	set(0x66, "ROR", 2, 5, ZeroPage)
	set(0x76, "ROR", 2, 6, ZeroPageX)
	set(0x6E, "ROR", 3, 6, Absolute)
	set(0x7E, "ROR", 3, 7, AbsoluteX)

	set(0xC9, "CMP", 2, 2, Immediate)
	set(0xC5, "CMP", 2, 3, ZeroPage)
	set(0xD5, "CMP", 2, 4, ZeroPageX)
	set(0xCD, "CMP", 3, 4, Absolute)
	set(0xDD, "CMP", 3, 4, AbsoluteX)
	set(0xD9, "CMP", 3, 4, AbsoluteY)
	set(0xC1, "CMP", 2, 6, IndexedIndirect)
	set(0xD1, "CMP", 2, 5, IndirectIndexed)

	set(0xE0, "CPX", 2, 2, Immediate)
	set(0xE4, "CPX", 2, 3, ZeroPage)
	set(0xEC, "CPX", 3, 4, Absolute)

	set(0xC0, "CPY", 2, 2, Immediate)
	set(0xC4, "CPY", 2, 3, ZeroPage)
	set(0xCC, "CPY", 3, 4, Absolute)

	set(0xE6, "INC", 2, 5, ZeroPage)
	set(0xF6, "INC", 2, 6, ZeroPageX)
	set(0xEE, "INC", 3, 6, Absolute)
	set(0xFE, "INC", 3, 7, AbsoluteX)

	set(0xC6, "DEC", 2, 5, ZeroPage)
	set(0xD6, "DEC", 2, 6, ZeroPageX)
	set(0xCE, "DEC", 3, 6, Absolute)
	set(0xDE, "DEC", 3, 7, AbsoluteX)

	set(0xE8, "INX", 1, 2, Implied)
	set(0xCA, "DEX", 1, 2, Implied)
	set(0xC8, "INY", 1, 2, Implied)
	set(0x88, "DEY", 1, 2, Implied)

	set(0xAA, "TAX", 1, 2, Implied)
	set(0x8A, "TXA", 1, 2, Implied)
	set(0xA8, "TAY", 1, 2, Implied)
	set(0x98, "TYA", 1, 2, Implied)
	set(0xBA, "TSX", 1, 2, Implied)
	set(0x9A, "TXS", 1, 2, Implied)

	set(0x48, "PHA", 1, 3, Implied)
	set(0x68, "PLA", 1, 4, Implied)
	set(0x08, "PHP", 1, 3, Implied)
	set(0x28, "PLP", 1, 4, Implied)

	set(0x18, "CLC", 1, 2, Implied)
	set(0x38, "SEC", 1, 2, Implied)
	set(0x58, "CLI", 1, 2, Implied)
	set(0x78, "SEI", 1, 2, Implied)
	set(0xB8, "CLV", 1, 2, Implied)
	set(0xD8, "CLD", 1, 2, Implied)
	set(0xF8, "SED", 1, 2, Implied)

	set(0x4C, "JMP", 3, 3, Absolute)
	set(0x6C, "JMP", 3, 5, Indirect)
	set(0x20, "JSR", 3, 6, Absolute)
	set(0x60, "RTS", 1, 6, Implied)
	set(0x40, "RTI", 1, 6, Implied)

	set(0x90, "BCC", 2, 2, Relative)
	set(0xB0, "BCS", 2, 2, Relative)
	set(0xD0, "BNE", 2, 2, Relative)
	set(0xF0, "BEQ", 2, 2, Relative)
	set(0x10, "BPL", 2, 2, Relative)
	set(0x30, "BMI", 2, 2, Relative)
	set(0x50, "BVC", 2, 2, Relative)
	set(0x70, "BVS", 2, 2, Relative)

	set(0x24, "BIT", 2, 3, ZeroPage)
	set(0x2C, "BIT", 3, 4, Absolute)
	set(0xEA, "NOP", 1, 2, Implied)
	set(0x00, "BRK", 1, 7, Implied)

	set(0x1A, "NOP", 1, 2, Implied)
	set(0x3A, "NOP", 1, 2, Implied)
	set(0x5A, "NOP", 1, 2, Implied)
	set(0x7A, "NOP", 1, 2, Implied)
	set(0xDA, "NOP", 1, 2, Implied)
	set(0xFA, "NOP", 1, 2, Implied)
	set(0x80, "NOP", 2, 2, Immediate)
	set(0x82, "NOP", 2, 2, Immediate)
	set(0x89, "NOP", 2, 2, Immediate)
	set(0xC2, "NOP", 2, 2, Immediate)
	set(0xE2, "NOP", 2, 2, Immediate)
	set(0x04, "NOP", 2, 3, ZeroPage)
	set(0x44, "NOP", 2, 3, ZeroPage)
	set(0x64, "NOP", 2, 3, ZeroPage)
	set(0x14, "NOP", 2, 4, ZeroPageX)
	set(0x34, "NOP", 2, 4, ZeroPageX)
	set(0x54, "NOP", 2, 4, ZeroPageX)
	set(0x74, "NOP", 2, 4, ZeroPageX)
	set(0xD4, "NOP", 2, 4, ZeroPageX)
	set(0xF4, "NOP", 2, 4, ZeroPageX)
	set(0x0C, "NOP", 3, 4, Absolute)
	set(0x1C, "NOP", 3, 4, AbsoluteX)
	set(0x3C, "NOP", 3, 4, AbsoluteX)
	set(0x5C, "NOP", 3, 4, AbsoluteX)
	set(0x7C, "NOP", 3, 4, AbsoluteX)
	set(0xDC, "NOP", 3, 4, AbsoluteX)
	set(0xFC, "NOP", 3, 4, AbsoluteX)

	set(0xA7, "LAX", 2, 3, ZeroPage)
	set(0xB7, "LAX", 2, 4, ZeroPageY)
	set(0xAF, "LAX", 3, 4, Absolute)
	set(0xBF, "LAX", 3, 4, AbsoluteY)
	set(0xA3, "LAX", 2, 6, IndexedIndirect)
	set(0xB3, "LAX", 2, 5, IndirectIndexed)

	set(0x87, "SAX", 2, 3, ZeroPage)
	set(0x97, "SAX", 2, 4, ZeroPageY)
	set(0x8F, "SAX", 3, 4, Absolute)
	set(0x83, "SAX", 2, 6, IndexedIndirect)

	set(0xEB, "SBC", 2, 2, Immediate)

	set(0xC7, "DCP", 2, 5, ZeroPage)
	set(0xD7, "DCP", 2, 6, ZeroPageX)
	set(0xCF, "DCP", 3, 6, Absolute)
	set(0xDF, "DCP", 3, 7, AbsoluteX)
	set(0xDB, "DCP", 3, 7, AbsoluteY)
	set(0xC3, "DCP", 2, 8, IndexedIndirect)
	set(0xD3, "DCP", 2, 8, IndirectIndexed)

	set(0xE7, "ISB", 2, 5, ZeroPage)
	set(0xF7, "ISB", 2, 6, ZeroPageX)
	set(0xEF, "ISB", 3, 6, Absolute)
	set(0xFF, "ISB", 3, 7, AbsoluteX)
	set(0xFB, "ISB", 3, 7, AbsoluteY)
	set(0xE3, "ISB", 2, 8, IndexedIndirect)
	set(0xF3, "ISB", 2, 8, IndirectIndexed)

	set(0x07, "SLO", 2, 5, ZeroPage)
	set(0x17, "SLO", 2, 6, ZeroPageX)
	set(0x0F, "SLO", 3, 6, Absolute)
	set(0x1F, "SLO", 3, 7, AbsoluteX)
	set(0x1B, "SLO", 3, 7, AbsoluteY)
	set(0x03, "SLO", 2, 8, IndexedIndirect)
	set(0x13, "SLO", 2, 8, IndirectIndexed)

	set(0x27, "RLA", 2, 5, ZeroPage)
	set(0x37, "RLA", 2, 6, ZeroPageX)
	set(0x2F, "RLA", 3, 6, Absolute)
	set(0x3F, "RLA", 3, 7, AbsoluteX)
	set(0x3B, "RLA", 3, 7, AbsoluteY)
	set(0x23, "RLA", 2, 8, IndexedIndirect)
	set(0x33, "RLA", 2, 8, IndirectIndexed)

	set(0x47, "SRE", 2, 5, ZeroPage)
	set(0x57, "SRE", 2, 6, ZeroPageX)
	set(0x4F, "SRE", 3, 6, Absolute)
	set(0x5F, "SRE", 3, 7, AbsoluteX)
	set(0x5B, "SRE", 3, 7, AbsoluteY)
	set(0x43, "SRE", 2, 8, IndexedIndirect)
	set(0x53, "SRE", 2, 8, IndirectIndexed)

	set(0x67, "RRA", 2, 5, ZeroPage)
	set(0x77, "RRA", 2, 6, ZeroPageX)
	set(0x6F, "RRA", 3, 6, Absolute)
	set(0x7F, "RRA", 3, 7, AbsoluteX)
	set(0x7B, "RRA", 3, 7, AbsoluteY)
	set(0x63, "RRA", 2, 8, IndexedIndirect)
	set(0x73, "RRA", 2, 8, IndirectIndexed)
}
