// Package object contains methods and structs to work with git objects
package object

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/internal/readutil"
	"github.com/grit-scm/grit/internal/zlibutil"
	"golang.org/x/xerrors"
)

var (
	// ErrObjectUnknown represents an error thrown when encountering an
	// unknown object type
	ErrObjectUnknown = errors.New("invalid object type")

	// ErrObjectInvalid represents an error thrown when an object
	// contains unexpected data or when the wrong object is provided
	// to a method
	ErrObjectInvalid = errors.New("invalid object")

	// ErrMalformedHeader represents an error thrown when the
	// "<type> <size>\0" header of a stored object cannot be parsed
	ErrMalformedHeader = errors.New("malformed object header")

	// ErrSizeMismatch represents an error thrown when the size
	// advertised in an object header doesn't match the actual size
	// of the content
	ErrSizeMismatch = errors.New("object size mismatch")

	// ErrTreeInvalid represents an error thrown when parsing an
	// invalid tree object
	ErrTreeInvalid = errors.New("invalid tree")

	// ErrCommitInvalid represents an error thrown when parsing an
	// invalid commit object
	ErrCommitInvalid = errors.New("invalid commit")
)

// Type represents the type of an object as stored in a packfile
type Type int8

// List of all the possible object types.
// 5 is reserved for future use, 6 (ofs-delta) is not supported
const (
	TypeCommit Type = 1
	TypeTree   Type = 2
	TypeBlob   Type = 3
	TypeTag    Type = 4
	// ObjectDeltaOFS is an object whose content is a delta against an
	// object located earlier in the same packfile
	ObjectDeltaOFS Type = 6
	// ObjectDeltaRef is an object whose content is a delta against an
	// object identified by its oid
	ObjectDeltaRef Type = 7
)

func (t Type) String() string {
	switch t {
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	case ObjectDeltaOFS:
		return "ofs-delta"
	case ObjectDeltaRef:
		return "ref-delta"
	default:
		panic(fmt.Sprintf("unknown object type %d", t))
	}
}

// IsValid checks if the object type is an existing type
func (t Type) IsValid() bool {
	switch t {
	case TypeCommit,
		TypeTree,
		TypeBlob,
		TypeTag,
		ObjectDeltaOFS,
		ObjectDeltaRef:
		return true
	default:
		return false
	}
}

// NewTypeFromString returns a Type from its string representation
func NewTypeFromString(t string) (Type, error) {
	switch t {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	case "tag":
		return TypeTag, nil
	default:
		return 0, ErrObjectUnknown
	}
}

// Object represents a git object. An object can be of multiple types
// but they all share similarities (same storage system, same header,
// same id computation).
// Objects are stored in .git/objects as zlib compressed files
// https://git-scm.com/book/en/v2/Git-Internals-Git-Objects
type Object struct {
	id      ginternals.Oid
	typ     Type
	content []byte
}

// New creates a new git object of the given type.
// The id is computed right away from the type and content
func New(typ Type, content []byte) *Object {
	o := &Object{
		typ:     typ,
		content: content,
	}
	data := o.Wrap()
	o.id = ginternals.NewOidFromContent(data)
	return o
}

// NewWithID creates a new git object of the given type with the
// given id, skipping the id computation. The id is trusted as is and
// never checked against the type and content
func NewWithID(id ginternals.Oid, typ Type, content []byte) *Object {
	return &Object{
		id:      id,
		typ:     typ,
		content: content,
	}
}

// NewFromWrapped creates an object from its wrapped representation:
// the type in ascii, followed by a space, followed by the size in
// ascii, followed by a NULL char, followed by the content.
// This is the exact content of a loose object file once decompressed
func NewFromWrapped(data []byte) (*Object, error) {
	typ := readutil.ReadTo(data, ' ')
	if typ == nil {
		return nil, xerrors.Errorf("could not find object type: %w", ErrMalformedHeader)
	}
	oType, err := NewTypeFromString(string(typ))
	if err != nil {
		return nil, xerrors.Errorf("unsupported type %q: %w", typ, err)
	}
	offset := len(typ) + 1 // +1 for the space

	size := readutil.ReadTo(data[offset:], 0)
	if size == nil {
		return nil, xerrors.Errorf("could not find object size: %w", ErrMalformedHeader)
	}
	oSize, err := strconv.Atoi(string(size))
	if err != nil {
		return nil, xerrors.Errorf("invalid object size %q: %w", size, ErrMalformedHeader)
	}
	offset += len(size) + 1 // +1 for the NULL char

	content := data[offset:]
	if len(content) != oSize {
		return nil, xerrors.Errorf("object advertised as size %d, but has %d: %w", oSize, len(content), ErrSizeMismatch)
	}

	return New(oType, content), nil
}

// ID returns the ID of the object
func (o *Object) ID() ginternals.Oid {
	return o.id
}

// Size returns the size of the object's content
func (o *Object) Size() int {
	return len(o.content)
}

// Type returns the Type of the object
func (o *Object) Type() Type {
	return o.typ
}

// Bytes returns the object's contents
func (o *Object) Bytes() []byte {
	return o.content
}

// Wrap returns the object in its canonical storage representation:
// [type] [size][NULL][content]
// The SHA of this exact byte sequence is the object's id
func (o *Object) Wrap() []byte {
	// Quick reminder that the Write* methods on bytes.Buffer never
	// fail, the error returned is always nil
	w := new(bytes.Buffer)
	w.WriteString(o.typ.String())
	w.WriteByte(' ')
	w.WriteString(strconv.Itoa(o.Size()))
	w.WriteByte(0)
	w.Write(o.content)
	return w.Bytes()
}

// Compress returns the object zlib compressed, ready to be written
// to the odb
func (o *Object) Compress() ([]byte, error) {
	data, err := zlibutil.Compress(o.Wrap())
	if err != nil {
		return nil, xerrors.Errorf("could not compress object %s: %w", o.id.String(), err)
	}
	return data, nil
}

// AsBlob parses the object as Blob
func (o *Object) AsBlob() *Blob {
	return NewBlob(o)
}

// AsTree parses the object as Tree
func (o *Object) AsTree() (*Tree, error) {
	return NewTreeFromObject(o)
}

// AsCommit parses the object as Commit
func (o *Object) AsCommit() (*Commit, error) {
	return NewCommitFromObject(o)
}
