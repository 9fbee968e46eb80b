// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the four-byte classfile signature.
const Magic = 0xCAFEBABE

// Constant pool tags. Values are fixed by the class file format.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Access flags used by the estimator and the synthesizer.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccInterface = 0x0200
	AccAbstract  = 0x0400
)

// ErrBadMagic is returned by [Parse] when the input does not start
// with the classfile signature.
var ErrBadMagic = errors.New("not a classfile (bad magic)")

// Summary is the structural outline of a classfile: its name and the
// sizes of the tables that contribute to linear-alloc usage.
type Summary struct {
	// Name is the internal (slash separated) class name.
	Name string

	// SuperName is the internal name of the superclass, empty for
	// java/lang/Object.
	SuperName string

	// MajorVersion is the classfile major version (50 = Java 6).
	MajorVersion uint16

	// AccessFlags are the class-level access flags.
	AccessFlags uint16

	// ConstantPoolCount is the constant_pool_count field, which is one
	// more than the number of usable slots.
	ConstantPoolCount int

	Interfaces     int
	StaticFields   int
	InstanceFields int
	Methods        int

	// VirtualMethods counts methods that occupy a vtable slot: neither
	// static, private, nor a constructor or class initializer.
	VirtualMethods int
}

// Parse reads a classfile from r and returns its summary. Only the
// structure is checked; bytecode and attribute contents are skipped.
func Parse(r io.Reader) (*Summary, error) {
	p := &parser{reader: bufio.NewReader(r)}

	magic, err := p.u4()
	if err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	summary := &Summary{}
	if _, err := p.u2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if summary.MajorVersion, err = p.u2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	pool, err := p.constantPool()
	if err != nil {
		return nil, err
	}
	summary.ConstantPoolCount = len(pool)

	if summary.AccessFlags, err = p.u2(); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	thisClass, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if summary.Name, err = pool.className(thisClass); err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}
	superClass, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}
	if superClass != 0 {
		if summary.SuperName, err = pool.className(superClass); err != nil {
			return nil, fmt.Errorf("resolving super_class: %w", err)
		}
	}

	interfaceCount, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading interfaces_count: %w", err)
	}
	summary.Interfaces = int(interfaceCount)
	if err := p.skip(int64(interfaceCount) * 2); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}

	fieldCount, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading fields_count: %w", err)
	}
	for i := range int(fieldCount) {
		flags, _, err := p.member(pool)
		if err != nil {
			return nil, fmt.Errorf("reading field %d: %w", i, err)
		}
		if flags&AccStatic != 0 {
			summary.StaticFields++
		} else {
			summary.InstanceFields++
		}
	}

	methodCount, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading methods_count: %w", err)
	}
	summary.Methods = int(methodCount)
	for i := range int(methodCount) {
		flags, name, err := p.member(pool)
		if err != nil {
			return nil, fmt.Errorf("reading method %d: %w", i, err)
		}
		if flags&(AccStatic|AccPrivate) == 0 && name != "<init>" && name != "<clinit>" {
			summary.VirtualMethods++
		}
	}

	if err := p.attributes(); err != nil {
		return nil, fmt.Errorf("reading class attributes: %w", err)
	}

	return summary, nil
}

// constantPool holds the Utf8 strings and Class name indexes of a
// pool; every other constant kind is skipped. Index 0 is unused, as in
// the classfile itself.
type constantPool []constant

type constant struct {
	tag       uint8
	utf8      string
	nameIndex uint16
}

func (pool constantPool) utf8(index uint16) (string, error) {
	if int(index) <= 0 || int(index) >= len(pool) {
		return "", fmt.Errorf("constant pool index %d out of range", index)
	}
	if pool[index].tag != tagUtf8 {
		return "", fmt.Errorf("constant pool index %d is tag %d, want Utf8", index, pool[index].tag)
	}
	return pool[index].utf8, nil
}

func (pool constantPool) className(index uint16) (string, error) {
	if int(index) <= 0 || int(index) >= len(pool) {
		return "", fmt.Errorf("constant pool index %d out of range", index)
	}
	if pool[index].tag != tagClass {
		return "", fmt.Errorf("constant pool index %d is tag %d, want Class", index, pool[index].tag)
	}
	return pool.utf8(pool[index].nameIndex)
}

type parser struct {
	reader  *bufio.Reader
	scratch [8]byte
}

func (p *parser) u1() (uint8, error) {
	return p.reader.ReadByte()
}

func (p *parser) u2() (uint16, error) {
	if _, err := io.ReadFull(p.reader, p.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p.scratch[:2]), nil
}

func (p *parser) u4() (uint32, error) {
	if _, err := io.ReadFull(p.reader, p.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p.scratch[:4]), nil
}

func (p *parser) skip(n int64) error {
	skipped, err := p.reader.Discard(int(n))
	if err != nil {
		return err
	}
	if int64(skipped) != n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (p *parser) constantPool() (constantPool, error) {
	count, err := p.u2()
	if err != nil {
		return nil, fmt.Errorf("reading constant_pool_count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("constant_pool_count is zero")
	}

	pool := make(constantPool, count)
	for index := 1; index < int(count); index++ {
		tag, err := p.u1()
		if err != nil {
			return nil, fmt.Errorf("reading constant %d tag: %w", index, err)
		}
		pool[index].tag = tag

		switch tag {
		case tagUtf8:
			length, err := p.u2()
			if err != nil {
				return nil, fmt.Errorf("reading constant %d length: %w", index, err)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(p.reader, data); err != nil {
				return nil, fmt.Errorf("reading constant %d bytes: %w", index, err)
			}
			pool[index].utf8 = string(data)

		case tagClass:
			nameIndex, err := p.u2()
			if err != nil {
				return nil, fmt.Errorf("reading constant %d name index: %w", index, err)
			}
			pool[index].nameIndex = nameIndex

		case tagString, tagMethodType, tagModule, tagPackage:
			err = p.skip(2)
		case tagMethodHandle:
			err = p.skip(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			err = p.skip(4)
		case tagLong, tagDouble:
			// Eight-byte constants take two pool slots.
			err = p.skip(8)
			index++

		default:
			return nil, fmt.Errorf("constant %d: unknown tag %d", index, tag)
		}
		if err != nil {
			return nil, fmt.Errorf("reading constant %d: %w", index, err)
		}
	}
	return pool, nil
}

// member reads one field_info or method_info and returns its access
// flags and name.
func (p *parser) member(pool constantPool) (uint16, string, error) {
	flags, err := p.u2()
	if err != nil {
		return 0, "", err
	}
	nameIndex, err := p.u2()
	if err != nil {
		return 0, "", err
	}
	name, err := pool.utf8(nameIndex)
	if err != nil {
		return 0, "", err
	}
	// descriptor_index
	if _, err := p.u2(); err != nil {
		return 0, "", err
	}
	if err := p.attributes(); err != nil {
		return 0, "", err
	}
	return flags, name, nil
}

func (p *parser) attributes() error {
	count, err := p.u2()
	if err != nil {
		return err
	}
	for range int(count) {
		// attribute_name_index
		if _, err := p.u2(); err != nil {
			return err
		}
		length, err := p.u4()
		if err != nil {
			return err
		}
		if err := p.skip(int64(length)); err != nil {
			return err
		}
	}
	return nil
}
