// Package inner turns the outer codec's decrypted body bytes into a
// *model.Database and back: the v4 inner-header/binary-pool preamble (v3
// has none), the KeePass XML document, and the protected-string
// inner-stream cipher that the XML's Protected="True" values are
// ciphertext under.
package inner

import (
	"crypto/rand"
	"encoding/xml"

	"github.com/kdbxkit/kdbx/internal/codec/outer"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
	"github.com/kdbxkit/kdbx/pkg/model"
)

// Load builds a *model.Database from an outer header and its decrypted,
// decompressed body. For v4 files body still carries the inner-header
// preamble (stream ID, stream key, binary pool) ahead of the XML; for v3
// files the inner-stream key/ID already live on header and body is XML
// only.
func Load(header *outer.Header, body []byte) (*model.Database, error) {
	xmlBody := body
	streamID := header.InnerStreamID
	streamKey := header.InnerStreamKey
	var pool []PoolBinary

	if header.Version.Major >= 4 {
		ih, rest, err := ParseHeader(body)
		if err != nil {
			return nil, err
		}
		streamID = ih.StreamID
		streamKey = ih.StreamKey
		pool = ih.Binaries
		xmlBody = rest
	}

	cs, err := newInnerStream(streamID, streamKey)
	if err != nil {
		return nil, err
	}

	var doc docFile
	if err := xml.Unmarshal(xmlBody, &doc); err != nil {
		return nil, kdbxtypes.ErrFormatXML.WithCause(err)
	}

	db := model.New()
	db.Version = header.Version
	db.CipherID = header.CipherID
	db.Compressed = header.Compressed
	db.KDFParameters = header.KDFParameters
	db.PublicCustomData = header.PublicCustomData
	db.Meta = model.DefaultMeta()

	dec := &decoder{version: header.Version, stream: cs, v4Pool: pool}
	if err := dec.convertMeta(&doc.Meta, db); err != nil {
		return nil, err
	}
	db.Root = dec.convertGroup(&doc.Root.Group, db)
	dec.convertDeletedObjects(&doc.Root.DeletedObjects, db)

	if err := db.Lock(); err != nil {
		return nil, err
	}
	return db, nil
}

// Result carries everything Save produces: the serialized body (inner
// header + XML for v4, XML only for v3) plus the freshly generated
// inner-stream identity the outer codec must fold into the outer header
// (v3 keeps it there; v4 keeps it in the inner header already baked into
// Body).
type Result struct {
	Body      []byte
	StreamID  uint32
	StreamKey []byte
}

// Save renders db's current state into a Result. A new random inner-stream
// key is generated on every save, matching spec.md's stance that the
// inner-stream key is not a secret the application manages; protected
// strings are read through db.Safe.Peek so serializing a locked database
// never mutates or drains it.
func Save(db *model.Database) (*Result, error) {
	streamKey, err := randomBytes(streamKeySizeFor(db.Version))
	if err != nil {
		return nil, err
	}
	streamID := uint32(kdbxtypes.InnerStreamChaCha20)
	cs, err := newInnerStream(streamID, streamKey)
	if err != nil {
		return nil, err
	}

	enc := newEncoder(db.Version, cs)
	enc.db = db
	doc := docFile{
		Meta: enc.encodeMeta(&db.Meta),
		Root: docRoot{
			Group:          enc.encodeGroup(db.Root),
			DeletedObjects: enc.encodeDeletedObjects(db),
		},
	}

	xmlBody, err := xml.Marshal(&doc)
	if err != nil {
		return nil, kdbxtypes.ErrFormatXML.WithCause(err)
	}
	xmlBody = append([]byte(xml.Header), xmlBody...)

	if db.Version.Major < 4 {
		return &Result{Body: xmlBody, StreamID: streamID, StreamKey: streamKey}, nil
	}
	ih := &Header{StreamID: streamID, StreamKey: streamKey, Binaries: enc.v4Pool}
	return &Result{
		Body:      append(WriteHeader(ih), xmlBody...),
		StreamID:  streamID,
		StreamKey: streamKey,
	}, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, kdbxtypes.ErrIO.WithCause(err)
	}
	return b, nil
}

func streamKeySizeFor(version kdbxtypes.FileVersion) int {
	if version.Major >= 4 {
		return 64
	}
	return 32
}
