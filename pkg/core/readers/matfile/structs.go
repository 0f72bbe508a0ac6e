// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
)

// The matlab library decodes only the first element of a struct array (e.g. the 1xN
// "annotations" of Stanford Cars). Struct arrays are instead split here, straight from the
// level-5 element stream, and each field value is handed back to the library for decoding.

// Level-5 data types used to walk the element stream.
const (
	miINT8       = 1
	miINT32      = 5
	miUINT32     = 6
	miMATRIX     = 14
	miCOMPRESSED = 15

	headerLen = 128
)

// element is one level-5 data element: its type and its (unpadded) data.
type element struct {
	typ  uint32
	data []byte
}

// nextElement splits the first data element from buf, and returns it with the bytes following it.
func nextElement(order binary.ByteOrder, buf []byte) (el element, rest []byte, err error) {
	if len(buf) < 8 {
		return el, nil, errors.Wrapf(annotation.ErrFormat, "truncated element tag (%d bytes)", len(buf))
	}
	word := order.Uint32(buf[:4])
	if size := word >> 16; size != 0 {
		// Small data element: up to 4 bytes packed in the tag itself.
		if size > 4 {
			return el, nil, errors.Wrapf(annotation.ErrFormat, "small data element with %d bytes", size)
		}
		return element{typ: word & 0xFFFF, data: buf[4 : 4+size]}, buf[8:], nil
	}
	el.typ = word
	size := int(order.Uint32(buf[4:8]))
	buf = buf[8:]
	if size > len(buf) {
		return el, nil, errors.Wrapf(annotation.ErrFormat, "element of type %d with %d bytes, only %d available", el.typ, size, len(buf))
	}
	el.data = buf[:size]
	next := size
	if el.typ != miMATRIX && el.typ != miCOMPRESSED {
		// Other elements are padded to 64 bits.
		next = min((size+7)&^7, len(buf))
	}
	return el, buf[next:], nil
}

// rawMatrix is a miMATRIX element split into its header sub-elements and the remaining body.
type rawMatrix struct {
	class uint32
	dims  []int32
	name  string
	body  []byte
}

func parseRawMatrix(order binary.ByteOrder, data []byte) (m rawMatrix, err error) {
	flags, rest, err := nextElement(order, data)
	if err != nil {
		return
	}
	if flags.typ != miUINT32 || len(flags.data) < 4 {
		return m, errors.Wrapf(annotation.ErrFormat, "invalid array flags sub-element of type %d", flags.typ)
	}
	m.class = order.Uint32(flags.data[:4]) & 0xFF
	dims, rest, err := nextElement(order, rest)
	if err != nil {
		return
	}
	if dims.typ != miINT32 {
		return m, errors.Wrapf(annotation.ErrFormat, "invalid dimensions sub-element of type %d", dims.typ)
	}
	for ii := 0; ii+4 <= len(dims.data); ii += 4 {
		m.dims = append(m.dims, int32(order.Uint32(dims.data[ii:ii+4])))
	}
	name, rest, err := nextElement(order, rest)
	if err != nil {
		return
	}
	if name.typ != miINT8 {
		return m, errors.Wrapf(annotation.ErrFormat, "invalid array name sub-element of type %d", name.typ)
	}
	m.name = string(name.data)
	m.body = rest
	return m, nil
}

// findRawMatrix returns the top-level variable with the given name.
func (f *File) findRawMatrix(name string) (rawMatrix, error) {
	order := f.byteOrder()
	if len(f.data) < headerLen {
		return rawMatrix{}, errors.Wrapf(annotation.ErrFormat, "truncated header")
	}
	buf := f.data[headerLen:]
	for len(buf) > 0 {
		el, rest, err := nextElement(order, buf)
		if err != nil {
			return rawMatrix{}, err
		}
		buf = rest
		if el.typ == miCOMPRESSED {
			zr, err := zlib.NewReader(bytes.NewReader(el.data))
			if err != nil {
				return rawMatrix{}, errors.Wrapf(annotation.ErrFormat, "compressed element: %v", err)
			}
			inflated, err := io.ReadAll(zr)
			_ = zr.Close()
			if err != nil {
				return rawMatrix{}, errors.Wrapf(annotation.ErrFormat, "compressed element: %v", err)
			}
			if el, _, err = nextElement(order, inflated); err != nil {
				return rawMatrix{}, err
			}
		}
		if el.typ != miMATRIX {
			continue
		}
		m, err := parseRawMatrix(order, el.data)
		if err != nil {
			return rawMatrix{}, err
		}
		if m.name == name {
			return m, nil
		}
	}
	return rawMatrix{}, errors.Wrapf(annotation.ErrFormat, "variable %q not found", name)
}

// structArray decodes every element of the named struct array as a map[string]any.
func (f *File) structArray(name string) ([]any, error) {
	order := f.byteOrder()
	m, err := f.findRawMatrix(name)
	if err != nil {
		return nil, err
	}
	lengthEl, rest, err := nextElement(order, m.body)
	if err != nil {
		return nil, err
	}
	if lengthEl.typ != miINT32 || len(lengthEl.data) != 4 {
		return nil, errors.Wrapf(annotation.ErrFormat, "struct %q: invalid field name length element", name)
	}
	nameLen := int(int32(order.Uint32(lengthEl.data)))
	namesEl, rest, err := nextElement(order, rest)
	if err != nil {
		return nil, err
	}
	if nameLen <= 0 || namesEl.typ != miINT8 || len(namesEl.data)%nameLen != 0 {
		return nil, errors.Wrapf(annotation.ErrFormat, "struct %q: invalid field names element", name)
	}
	var fields []string
	for pos := 0; pos < len(namesEl.data); pos += nameLen {
		field, _, _ := bytes.Cut(namesEl.data[pos:pos+nameLen], []byte{0})
		fields = append(fields, string(field))
	}

	records := make([]any, numElements(m.dims))
	for ii := range records {
		record := make(map[string]any, len(fields))
		for _, field := range fields {
			var el element
			el, rest, err = nextElement(order, rest)
			if err != nil {
				return nil, errors.WithMessagef(err, "struct %q element #%d field %q", name, ii, field)
			}
			if el.typ != miMATRIX {
				return nil, errors.Wrapf(annotation.ErrFormat, "struct %q element #%d field %q: element of type %d", name, ii, field, el.typ)
			}
			if record[field], err = f.decodeRaw(el); err != nil {
				return nil, errors.WithMessagef(err, "struct %q element #%d field %q", name, ii, field)
			}
		}
		records[ii] = record
	}
	return records, nil
}

// decodeRaw decodes one miMATRIX element with the matlab library, by presenting it as a file
// holding only that (unnamed) variable.
func (f *File) decodeRaw(el element) (any, error) {
	var buf bytes.Buffer
	buf.Grow(headerLen + 8 + len(el.data))
	buf.Write(f.data[:headerLen])
	tag := make([]byte, 8)
	f.byteOrder().PutUint32(tag[:4], miMATRIX)
	f.byteOrder().PutUint32(tag[4:], uint32(len(el.data)))
	buf.Write(tag)
	buf.Write(el.data)
	mat, err := parse(buf.Bytes())
	if err != nil {
		return nil, errors.Wrapf(annotation.ErrFormat, "%v", err)
	}
	names := mat.GetVarsNames()
	if len(names) != 1 {
		return nil, errors.Wrapf(annotation.ErrFormat, "expected one value, got %d", len(names))
	}
	matVar, _ := mat.GetVar(names[0])
	if isStruct(matVar) && numElements(matVar.Dimension) != 1 {
		return nil, errors.Wrapf(annotation.ErrFormat, "nested struct arrays are not supported")
	}
	return decode(matVar)
}
