/*
	   MIPS R3000A Assembler

		Copyright (c) 2024, Richard Cornwell

		Permission is hereby granted, free of charge, to any person obtaining a
		copy of this software and associated documentation files (the "Software"),
		to deal in the Software without restriction, including without limitation
		the rights to use, copy, modify, merge, publish, distribute, sublicense,
		and/or sell copies of the Software, and to permit persons to whom the
		Software is furnished to do so, subject to the following conditions:

		The above copyright notice and this permission notice shall be included in
		all copies or substantial portions of the Software.

		THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
		IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
		FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package assembler

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	op "github.com/tlbanken/psx-sub000/emu/mips/opcodes"
)

// mnemonics indexes every primary/special/bcondz entry by its text name, the
// reverse of the disassembler's numeric-keyed tables.
var mnemonics = buildMnemonics()

type encoded struct {
	entry  op.Entry
	field  uint32 // primary opcode, or 0 for SPECIAL/BCONDZ entries
	sub    uint32 // funct (SPECIAL) or rt sub-opcode (BCONDZ)
	family int    // 0 = primary, 1 = special, 2 = bcondz
}

const (
	familyPrimary = 0
	familySpecial = 1
	familyBcondZ  = 2
)

func buildMnemonics() map[string]encoded {
	m := make(map[string]encoded)
	for code, e := range op.Primary {
		m[e.Name] = encoded{entry: e, field: code, family: familyPrimary}
	}
	for code, e := range op.Special {
		m[e.Name] = encoded{entry: e, sub: code, family: familySpecial}
	}
	for code, e := range op.BcondZ {
		m[e.Name] = encoded{entry: e, sub: code, family: familyBcondZ}
	}
	return m
}

// Assemble encodes one line of MIPS assembly text (e.g. "addu $a3, $t0, $t1")
// into its 32-bit instruction word, little-endian packed into 4 bytes.
func Assemble(line string) ([]byte, error) {
	name, rest := getName(line)
	name = strings.ToLower(name)
	enc, ok := mnemonics[name]
	if !ok {
		if name == "rfe" {
			return packWord(0x10<<26 | 0x10<<21 | op.Cop0FnRFE), nil
		}
		return nil, errors.New("undefined opcode " + name)
	}

	var word uint32
	var err error
	switch enc.entry.Type {
	case op.TyRegRSRTRD:
		word, err = assembleRegRSRTRD(enc, rest)
	case op.TyRegRSRT:
		word, err = assembleRegRSRT(enc, rest)
	case op.TyRegRD:
		word, err = assembleRegRD(enc, rest)
	case op.TyShift:
		word, err = assembleShift(enc, rest)
	case op.TyImmRTRS:
		word, err = assembleImmRTRS(enc, rest)
	case op.TyImmRT:
		word, err = assembleImmRT(enc, rest)
	case op.TyBranchRSRT:
		word, err = assembleBranchRSRT(enc, rest)
	case op.TyBranchRS:
		word, err = assembleBranchRS(enc, rest)
	case op.TyJump:
		word, err = assembleJump(enc, rest)
	case op.TyJumpReg:
		word, err = assembleJumpReg(enc, rest)
	case op.TyLoadStore:
		word, err = assembleLoadStore(enc, rest)
	case op.TyCode20:
		word, err = assembleCode20(enc, rest)
	default:
		return nil, errors.New("unsupported opcode type for " + name)
	}
	if err != nil {
		return nil, err
	}
	return packWord(word), nil
}

func packWord(word uint32) []byte {
	return []byte{
		byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24),
	}
}

func assembleRegRSRTRD(enc encoded, line string) (uint32, error) {
	rd, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rs, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rt, _, err := getReg(line)
	if err != nil {
		return 0, err
	}
	return rs<<21 | rt<<16 | rd<<11 | enc.sub, nil
}

func assembleRegRSRT(enc encoded, line string) (uint32, error) {
	rs, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rt, _, err := getReg(line)
	if err != nil {
		return 0, err
	}
	return rs<<21 | rt<<16 | enc.sub, nil
}

func assembleRegRD(enc encoded, line string) (uint32, error) {
	rd, _, err := getReg(line)
	if err != nil {
		return 0, err
	}
	return rd<<11 | enc.sub, nil
}

func assembleShift(enc encoded, line string) (uint32, error) {
	rd, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rt, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	shamt, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	return rt<<16 | rd<<11 | (shamt&0x1f)<<6 | enc.sub, nil
}

func assembleImmRTRS(enc encoded, line string) (uint32, error) {
	rt, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rs, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	imm, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	return enc.field<<26 | rs<<21 | rt<<16 | (imm & 0xffff), nil
}

func assembleImmRT(enc encoded, line string) (uint32, error) {
	rt, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	imm, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	return enc.field<<26 | rt<<16 | (imm & 0xffff), nil
}

func assembleBranchRSRT(enc encoded, line string) (uint32, error) {
	rs, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	rt, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	off, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	return enc.field<<26 | rs<<21 | rt<<16 | (off & 0xffff), nil
}

func assembleBranchRS(enc encoded, line string) (uint32, error) {
	rs, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	off, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	if enc.family == familyBcondZ {
		return op.OpBCONDZ<<26 | rs<<21 | enc.sub<<16 | (off & 0xffff), nil
	}
	return enc.field<<26 | rs<<21 | (off & 0xffff), nil
}

func assembleJump(enc encoded, line string) (uint32, error) {
	target, _, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	return enc.field<<26 | (uint32(target)>>2)&0x03ffffff, nil
}

func assembleJumpReg(enc encoded, line string) (uint32, error) {
	rs, rest, err := getReg(line)
	if err != nil {
		return 0, err
	}
	var rd uint32
	if enc.entry.Name == "jalr" {
		rd = 31
	}
	rest = skipSpace(rest)
	if rest != "" && rest[0] == ',' {
		rest, err = expectComma(rest)
		if err != nil {
			return 0, err
		}
		rd, _, err = getReg(rest)
		if err != nil {
			return 0, err
		}
	}
	return rs<<21 | rd<<11 | enc.sub, nil
}

func assembleLoadStore(enc encoded, line string) (uint32, error) {
	rt, line, err := getReg(line)
	if err != nil {
		return 0, err
	}
	line, err = expectComma(line)
	if err != nil {
		return 0, err
	}
	imm, line, err := getDecimal(line)
	if err != nil {
		return 0, err
	}
	line = skipSpace(line)
	if line == "" || line[0] != '(' {
		return 0, errors.New("expected base register in parentheses")
	}
	rs, line, err := getReg(line[1:])
	if err != nil {
		return 0, err
	}
	line = skipSpace(line)
	if line == "" || line[0] != ')' {
		return 0, errors.New("expected closing )")
	}
	return enc.field<<26 | rs<<21 | rt<<16 | (imm & 0xffff), nil
}

func assembleCode20(enc encoded, line string) (uint32, error) {
	code := uint32(0)
	line = skipSpace(line)
	if line != "" {
		v, _, err := getDecimal(line)
		if err != nil {
			return 0, err
		}
		code = v & 0xfffff
	}
	return code<<6 | enc.sub, nil
}

func expectComma(line string) (string, error) {
	next, line := getNext(line)
	if next != ',' {
		return line, errors.New("expected ','")
	}
	return line, nil
}

func getReg(line string) (uint32, string, error) {
	line = skipSpace(line)
	if line == "" || line[0] != '$' {
		return 0, line, errors.New("expected register")
	}
	line = line[1:]
	i := 0
	for i < len(line) && (unicode.IsLetter(rune(line[i])) || unicode.IsDigit(rune(line[i]))) {
		i++
	}
	name := line[:i]
	if n, err := strconv.Atoi(name); err == nil {
		return uint32(n) & 0x1f, line[i:], nil
	}
	n, ok := op.RegNumber(name)
	if !ok {
		return 0, line, errors.New("unknown register $" + name)
	}
	return n, line[i:], nil
}

func getDecimal(line string) (uint32, string, error) {
	line = skipSpace(line)
	neg := false
	if line != "" && line[0] == '-' {
		neg = true
		line = line[1:]
	}
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i == 0 {
		return 0, line, errors.New("expected a number")
	}
	n, err := strconv.Atoi(line[:i])
	if err != nil {
		return 0, line, err
	}
	if neg {
		n = -n
	}
	return uint32(int32(n)), line[i:], nil
}

func skipSpace(str string) string {
	for i := range str {
		if !unicode.IsSpace(rune(str[i])) {
			return str[i:]
		}
	}
	return ""
}

func getName(str string) (string, string) {
	str = skipSpace(str)
	for i := range str {
		if unicode.IsSpace(rune(str[i])) {
			return str[:i], str[i+1:]
		}
	}
	return str, ""
}

func getNext(str string) (byte, string) {
	str = skipSpace(str)
	if str == "" {
		return 0, ""
	}
	return str[0], str[1:]
}
