// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// synthesizedMajorVersion is Java 6, the newest version every dexer
// accepts without desugaring.
const synthesizedMajorVersion = 50

// ClassSpec describes a classfile for [Synthesize].
type ClassSpec struct {
	// Name is the internal class name, e.g. "com/example/Foo".
	Name string

	// SuperName defaults to java/lang/Object when empty.
	SuperName string

	AccessFlags uint16
	Interfaces  []string
	Fields      []Member
	Methods     []Member
}

// Member is a field or method declaration. Methods carry no Code
// attribute; the result is structurally valid but not verifiable.
type Member struct {
	Name        string
	Descriptor  string
	AccessFlags uint16
}

// Synthesize encodes spec as a classfile.
func Synthesize(spec ClassSpec) ([]byte, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("synthesizing classfile: empty class name")
	}
	superName := spec.SuperName
	if superName == "" {
		superName = "java/lang/Object"
	}

	pool := newPoolBuilder()
	thisClass := pool.class(spec.Name)
	superClass := pool.class(superName)
	interfaces := make([]uint16, len(spec.Interfaces))
	for i, name := range spec.Interfaces {
		interfaces[i] = pool.class(name)
	}
	type encodedMember struct {
		flags, name, descriptor uint16
	}
	encode := func(members []Member) []encodedMember {
		out := make([]encodedMember, len(members))
		for i, member := range members {
			out[i] = encodedMember{
				flags:      member.AccessFlags,
				name:       pool.utf8(member.Name),
				descriptor: pool.utf8(member.Descriptor),
			}
		}
		return out
	}
	fields := encode(spec.Fields)
	methods := encode(spec.Methods)

	if len(pool.entries) >= 0xFFFF {
		return nil, fmt.Errorf("synthesizing %s: constant pool overflow", spec.Name)
	}

	var buffer bytes.Buffer
	write := func(values ...any) {
		for _, value := range values {
			// bytes.Buffer writes cannot fail.
			_ = binary.Write(&buffer, binary.BigEndian, value)
		}
	}

	write(uint32(Magic), uint16(0), uint16(synthesizedMajorVersion))
	write(uint16(len(pool.entries) + 1))
	buffer.Write(pool.bytes.Bytes())
	write(spec.AccessFlags, thisClass, superClass)

	write(uint16(len(interfaces)))
	for _, index := range interfaces {
		write(index)
	}
	for _, table := range [][]encodedMember{fields, methods} {
		write(uint16(len(table)))
		for _, member := range table {
			// No attributes.
			write(member.flags, member.name, member.descriptor, uint16(0))
		}
	}
	// Class attributes.
	write(uint16(0))

	return buffer.Bytes(), nil
}

// poolBuilder interns Utf8 and Class constants in insertion order.
type poolBuilder struct {
	entries []string
	utf8s   map[string]uint16
	classes map[string]uint16
	bytes   bytes.Buffer
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{
		utf8s:   make(map[string]uint16),
		classes: make(map[string]uint16),
	}
}

func (b *poolBuilder) utf8(value string) uint16 {
	if index, ok := b.utf8s[value]; ok {
		return index
	}
	b.entries = append(b.entries, value)
	index := uint16(len(b.entries))
	b.utf8s[value] = index

	b.bytes.WriteByte(tagUtf8)
	_ = binary.Write(&b.bytes, binary.BigEndian, uint16(len(value)))
	b.bytes.WriteString(value)
	return index
}

func (b *poolBuilder) class(name string) uint16 {
	if index, ok := b.classes[name]; ok {
		return index
	}
	nameIndex := b.utf8(name)
	b.entries = append(b.entries, name)
	index := uint16(len(b.entries))
	b.classes[name] = index

	b.bytes.WriteByte(tagClass)
	_ = binary.Write(&b.bytes, binary.BigEndian, nameIndex)
	return index
}
