// Package trace formats CPU state as a Nintendulator-style trace line,
// the format nestest-style reference logs use for byte-for-byte
// comparison against a known-good emulator.
package trace

import (
	"fmt"
	"strings"

	"nescore/internal/cpu"
)

// snapshot is the register state the formatter renders; it is read
// once up front so Format never reads the CPU's registers after that
// point (later calls only read memory and the opcode table).
type snapshot struct {
	PC uint16
	A  uint8
	X  uint8
	Y  uint8
	P  uint8
	SP uint8
}

// Format renders one trace line for the instruction at c's current PC.
// It performs only reads — it does not advance PC or otherwise mutate
// CPU or Bus state, so it is safe to call between instructions.
func Format(c *cpu.CPU) string {
	snap := snapshot{PC: c.PC, A: c.A, X: c.X, Y: c.Y, P: c.StatusByte(), SP: c.SP}

	opcode := c.ReadBus(snap.PC)
	instr := c.Lookup(opcode)
	if instr == nil {
		return fmt.Sprintf("%04X  %02X", snap.PC, opcode)
	}

	raw := make([]byte, instr.Bytes)
	for i := range raw {
		raw[i] = c.ReadBus(snap.PC + uint16(i))
	}

	var bytesCol strings.Builder
	for _, b := range raw {
		fmt.Fprintf(&bytesCol, "%02X ", b)
	}

	asm := formatOperand(c, instr, raw, snap)

	return fmt.Sprintf("%-6s%-10s%-32s%s",
		fmt.Sprintf("%04X ", snap.PC),
		bytesCol.String(),
		asm,
		formatRegisters(snap),
	)
}

func formatRegisters(s snapshot) string {
	return fmt.Sprintf("A:%02X X:%02X Y:%02X P:%02X SP:%02X", s.A, s.X, s.Y, s.P, s.SP)
}

// isJump reports whether the instruction's Absolute-mode operand is a
// jump target rather than a memory read — JMP and JSR don't dereference
// their operand, so the trace omits the `= MM` suffix for them.
func isJump(name string) bool { return name == "JMP" || name == "JSR" }

func formatOperand(c *cpu.CPU, instr *cpu.Instruction, raw []byte, s snapshot) string {
	name := instr.Name

	switch instr.Mode {
	case cpu.Implied:
		return name

	case cpu.Accumulator:
		return name + " A"

	case cpu.Immediate:
		return fmt.Sprintf("%s #$%02X", name, raw[1])

	case cpu.ZeroPage:
		addr := uint16(raw[1])
		return fmt.Sprintf("%s $%02X = %02X", name, raw[1], c.ReadBus(addr))

	case cpu.ZeroPageX:
		addr := uint16((raw[1] + s.X) & 0xFF)
		return fmt.Sprintf("%s $%02X,X @ %02X = %02X", name, raw[1], addr, c.ReadBus(addr))

	case cpu.ZeroPageY:
		addr := uint16((raw[1] + s.Y) & 0xFF)
		return fmt.Sprintf("%s $%02X,Y @ %02X = %02X", name, raw[1], addr, c.ReadBus(addr))

	case cpu.Relative:
		offset := int8(raw[1])
		target := uint16(int32(s.PC+2) + int32(offset))
		return fmt.Sprintf("%s $%04X", name, target)

	case cpu.Absolute:
		addr := uint16(raw[1]) | uint16(raw[2])<<8
		if isJump(name) {
			return fmt.Sprintf("%s $%04X", name, addr)
		}
		return fmt.Sprintf("%s $%04X = %02X", name, addr, c.ReadBus(addr))

	case cpu.AbsoluteX:
		base := uint16(raw[1]) | uint16(raw[2])<<8
		addr := base + uint16(s.X)
		return fmt.Sprintf("%s $%04X,X @ %04X = %02X", name, base, addr, c.ReadBus(addr))

	case cpu.AbsoluteY:
		base := uint16(raw[1]) | uint16(raw[2])<<8
		addr := base + uint16(s.Y)
		return fmt.Sprintf("%s $%04X,Y @ %04X = %02X", name, base, addr, c.ReadBus(addr))

	case cpu.Indirect:
		ptr := uint16(raw[1]) | uint16(raw[2])<<8
		var target uint16
		if ptr&0xFF == 0xFF {
			lo := uint16(c.ReadBus(ptr))
			hi := uint16(c.ReadBus(ptr & 0xFF00))
			target = hi<<8 | lo
		} else {
			lo := uint16(c.ReadBus(ptr))
			hi := uint16(c.ReadBus(ptr + 1))
			target = hi<<8 | lo
		}
		return fmt.Sprintf("%s ($%04X) = %04X", name, ptr, target)

	case cpu.IndexedIndirect:
		base := raw[1]
		ptr := (base + s.X) & 0xFF
		lo := uint16(c.ReadBus(uint16(ptr)))
		hi := uint16(c.ReadBus(uint16((ptr + 1) & 0xFF)))
		addr := hi<<8 | lo
		return fmt.Sprintf("%s ($%02X,X) @ %02X = %04X = %02X", name, raw[1], ptr, addr, c.ReadBus(addr))

	case cpu.IndirectIndexed:
		base := raw[1]
		lo := uint16(c.ReadBus(uint16(base)))
		hi := uint16(c.ReadBus(uint16((base + 1) & 0xFF)))
		derefBase := hi<<8 | lo
		addr := derefBase + uint16(s.Y)
		return fmt.Sprintf("%s ($%02X),Y = %04X @ %04X = %02X", name, raw[1], derefBase, addr, c.ReadBus(addr))

	default:
		return name
	}
}
