package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/yusa-imit/zoltraak/internal/keyspace"
)

// ErrBadMagic/ErrVersionMismatch/ErrChecksumMismatch are fatal load
// errors per spec.md §4.3: "Version mismatch is a fatal load error...
// A CRC mismatch during snapshot load is fatal to startup."
var (
	ErrBadMagic          = fmt.Errorf("persistence: not a zoltraak snapshot")
	ErrVersionMismatch   = fmt.Errorf("persistence: snapshot format version mismatch")
	ErrChecksumMismatch  = fmt.Errorf("persistence: snapshot checksum mismatch")
	ErrTruncatedSnapshot = fmt.Errorf("persistence: snapshot truncated before its EOF tag")
)

// Encode serializes ks's live keys into the snapshot wire format,
// without touching disk — shared by Save and by a primary's PSYNC
// handler (internal/server), which needs the same bytes to stream to a
// freshly-attached replica.
func Encode(ks *keyspace.Keyspace) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)

	var encodeErr error
	ks.ForEachLive(func(key string, val *keyspace.Value, expireAt int64) {
		if encodeErr != nil {
			return
		}
		encodeErr = encodeEntry(&buf, key, val, expireAt)
	})
	if encodeErr != nil {
		return nil, encodeErr
	}

	buf.WriteByte(eofTag)
	sum := crc32.ChecksumIEEE(buf.Bytes())
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], sum)
	buf.Write(crcBytes[:])
	return buf.Bytes(), nil
}

// Save writes ks's live keys to path atomically: the encoded snapshot is
// written to a sibling temp file, fsynced, then renamed over path so a
// crash mid-write never leaves a corrupt file at the real path.
func Save(path string, ks *keyspace.Keyspace) error {
	payload, err := Encode(ks)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".zoltraak-snapshot-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Load replaces ks's contents with the snapshot at path. Entries whose
// recorded expiry is already past nowMs are skipped. A missing file is
// reported via the returned error's errors.Is(err, os.ErrNotExist).
func Load(path string, ks *keyspace.Keyspace, nowMs int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Decode(data, ks, nowMs)
}

// Decode replaces ks's contents with a snapshot already held in memory —
// shared by Load and by a replica applying the snapshot frame it
// receives over the wire right after FULLRESYNC (internal/replication),
// which has no file to read from.
func Decode(data []byte, ks *keyspace.Keyspace, nowMs int64) error {
	if len(data) < len(magic)+1+1+4 {
		return ErrTruncatedSnapshot
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return ErrBadMagic
	}
	if data[len(magic)] != formatVersion {
		return ErrVersionMismatch
	}

	body, crcField := data[:len(data)-4], data[len(data)-4:]
	want := binary.LittleEndian.Uint32(crcField)
	if crc32.ChecksumIEEE(body) != want {
		return ErrChecksumMismatch
	}

	r := bytes.NewReader(data[len(magic)+1:])
	loaded := make(map[string]struct {
		val      *keyspace.Value
		expireAt int64
	})
	for {
		tagByte, err := r.ReadByte()
		if err != nil {
			return ErrTruncatedSnapshot
		}
		if tagByte == eofTag {
			break
		}
		if err := r.UnreadByte(); err != nil {
			return err
		}
		key, val, expireAt, err := decodeEntry(r)
		if err != nil {
			return err
		}
		if expireAt != 0 && expireAt <= nowMs {
			continue
		}
		loaded[key] = struct {
			val      *keyspace.Value
			expireAt int64
		}{val, expireAt}
	}

	ks.FlushAll()
	for key, e := range loaded {
		ks.LoadEntry(key, e.val, e.expireAt)
	}
	return nil
}

func encodeEntry(buf *bytes.Buffer, key string, val *keyspace.Value, expireAt int64) error {
	rt, ok := recordTypeOf(val.Kind)
	if !ok {
		return fmt.Errorf("persistence: unknown value kind %v for key %q", val.Kind, key)
	}
	buf.WriteByte(byte(rt))
	if expireAt != 0 {
		buf.WriteByte(1)
		writeU64(buf, uint64(expireAt))
	} else {
		buf.WriteByte(0)
	}
	writeBytes(buf, []byte(key))

	switch val.Kind {
	case keyspace.KindString:
		writeBytes(buf, val.Str)
	case keyspace.KindList:
		items := val.List.Items()
		writeU32(buf, uint32(len(items)))
		for _, it := range items {
			writeBytes(buf, it)
		}
	case keyspace.KindSet:
		writeU32(buf, uint32(len(val.Set)))
		for m := range val.Set {
			writeBytes(buf, []byte(m))
		}
	case keyspace.KindHash:
		writeU32(buf, uint32(len(val.Hash)))
		for f, v := range val.Hash {
			writeBytes(buf, []byte(f))
			writeBytes(buf, v)
		}
	case keyspace.KindZSet:
		members, scores := val.ZSet.Entries()
		writeU32(buf, uint32(len(members)))
		for i, m := range members {
			writeBytes(buf, []byte(m))
			writeU64(buf, math.Float64bits(scores[i]))
		}
	case keyspace.KindStream:
		last := val.Stream.LastID()
		writeU64(buf, uint64(last.Ms))
		writeU64(buf, last.Seq)
		entries := val.Stream.Entries()
		writeU32(buf, uint32(len(entries)))
		for _, e := range entries {
			writeU64(buf, uint64(e.ID.Ms))
			writeU64(buf, e.ID.Seq)
			writeU32(buf, uint32(len(e.Fields)))
			for _, f := range e.Fields {
				writeBytes(buf, f.Field)
				writeBytes(buf, f.Value)
			}
		}
	case keyspace.KindHLL:
		buf.Write(val.HLL)
	}
	return nil
}

func decodeEntry(r *bytes.Reader) (key string, val *keyspace.Value, expireAt int64, err error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return "", nil, 0, ErrTruncatedSnapshot
	}
	rt := recordType(tagByte)

	hasExpire, err := r.ReadByte()
	if err != nil {
		return "", nil, 0, ErrTruncatedSnapshot
	}
	if hasExpire == 1 {
		ms, err := readU64(r)
		if err != nil {
			return "", nil, 0, err
		}
		expireAt = int64(ms)
	}

	keyBytes, err := readBytes(r)
	if err != nil {
		return "", nil, 0, err
	}
	key = string(keyBytes)

	switch rt {
	case typeString:
		b, err := readBytes(r)
		if err != nil {
			return "", nil, 0, err
		}
		val = keyspace.NewStringValue(b)
	case typeList:
		n, err := readU32(r)
		if err != nil {
			return "", nil, 0, err
		}
		items := make([][]byte, n)
		for i := range items {
			items[i], err = readBytes(r)
			if err != nil {
				return "", nil, 0, err
			}
		}
		val = keyspace.NewListValue(items)
	case typeSet:
		n, err := readU32(r)
		if err != nil {
			return "", nil, 0, err
		}
		members := make([][]byte, n)
		for i := range members {
			members[i], err = readBytes(r)
			if err != nil {
				return "", nil, 0, err
			}
		}
		val = keyspace.NewSetValue(members)
	case typeHash:
		n, err := readU32(r)
		if err != nil {
			return "", nil, 0, err
		}
		fields := make(map[string][]byte, n)
		for i := uint32(0); i < n; i++ {
			f, err := readBytes(r)
			if err != nil {
				return "", nil, 0, err
			}
			v, err := readBytes(r)
			if err != nil {
				return "", nil, 0, err
			}
			fields[string(f)] = v
		}
		val = keyspace.NewHashValue(fields)
	case typeZSet:
		n, err := readU32(r)
		if err != nil {
			return "", nil, 0, err
		}
		members := make([]string, n)
		scores := make([]float64, n)
		for i := uint32(0); i < n; i++ {
			m, err := readBytes(r)
			if err != nil {
				return "", nil, 0, err
			}
			bits, err := readU64(r)
			if err != nil {
				return "", nil, 0, err
			}
			members[i] = string(m)
			scores[i] = math.Float64frombits(bits)
		}
		val = keyspace.NewZSetValue(members, scores)
	case typeStream:
		lastMs, err := readU64(r)
		if err != nil {
			return "", nil, 0, err
		}
		lastSeq, err := readU64(r)
		if err != nil {
			return "", nil, 0, err
		}
		n, err := readU32(r)
		if err != nil {
			return "", nil, 0, err
		}
		entries := make([]keyspace.StreamEntry, n)
		for i := range entries {
			ms, err := readU64(r)
			if err != nil {
				return "", nil, 0, err
			}
			seq, err := readU64(r)
			if err != nil {
				return "", nil, 0, err
			}
			fc, err := readU32(r)
			if err != nil {
				return "", nil, 0, err
			}
			fields := make([]keyspace.StreamField, fc)
			for j := range fields {
				f, err := readBytes(r)
				if err != nil {
					return "", nil, 0, err
				}
				v, err := readBytes(r)
				if err != nil {
					return "", nil, 0, err
				}
				fields[j] = keyspace.StreamField{Field: f, Value: v}
			}
			entries[i] = keyspace.StreamEntry{ID: keyspace.StreamID{Ms: int64(ms), Seq: seq}, Fields: fields}
		}
		val = keyspace.NewStreamValue(entries, keyspace.StreamID{Ms: int64(lastMs), Seq: lastSeq})
	case typeHLL:
		registers := make([]byte, 16384)
		if _, err := io.ReadFull(r, registers); err != nil {
			return "", nil, 0, ErrTruncatedSnapshot
		}
		val = keyspace.NewHLLValue(registers)
	default:
		return "", nil, 0, fmt.Errorf("persistence: unknown record type %d", rt)
	}

	return key, val, expireAt, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrTruncatedSnapshot
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrTruncatedSnapshot
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, ErrTruncatedSnapshot
	}
	return b, nil
}
