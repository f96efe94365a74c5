package keyspace

// XAdd appends an entry to key's stream, creating it if absent. If
// autoSeq is true, id.Ms is honored but the sequence is auto-assigned
// (incrementing if id.Ms equals the stream's last ms); if autoMs is
// true the whole ID is auto-assigned from nowMs. Returns the ID that
// was actually used.
func (k *Keyspace) XAdd(key string, id StreamID, autoMs, autoSeq bool, nowMs int64, fields []StreamField) (StreamID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var v *Value
	if k.purgeIfExpired(key) {
		v = &Value{Kind: KindStream, Stream: newStream()}
		k.data[key] = &entry{val: v}
	} else {
		e := k.data[key]
		if e.val.Kind != KindStream {
			return StreamID{}, ErrWrongType
		}
		v = e.val
	}

	switch {
	case autoMs:
		id.Ms = nowMs
		id.Seq = 0
		if v.Stream.lastID.Ms == id.Ms {
			id.Seq = v.Stream.lastID.Seq + 1
		}
	case autoSeq:
		if v.Stream.lastID.Ms == id.Ms {
			id.Seq = v.Stream.lastID.Seq + 1
		} else {
			id.Seq = 0
		}
	}

	if err := v.Stream.append(id, fields); err != nil {
		return StreamID{}, err
	}
	k.bumpVersion(key)
	return id, nil
}

// XLen returns the entry count.
func (k *Keyspace) XLen(key string) (int, error) {
	v, ok := k.get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindStream {
		return 0, ErrWrongType
	}
	return len(v.Stream.entries), nil
}

// XRange returns entries in [start,end] ascending order, up to count
// (0 = unbounded).
func (k *Keyspace) XRange(key string, start, end StreamID, count int) ([]StreamEntry, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindStream {
		return nil, ErrWrongType
	}
	return v.Stream.rangeBetween(start, end, count), nil
}

// XRevRange returns entries in [end,start] descending order (arguments
// given in the command's natural high-to-low order).
func (k *Keyspace) XRevRange(key string, start, end StreamID, count int) ([]StreamEntry, error) {
	v, ok := k.get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindStream {
		return nil, ErrWrongType
	}
	return v.Stream.rangeBetweenRev(start, end, count), nil
}

// XDel removes the given IDs, returning the count actually removed.
func (k *Keyspace) XDel(key string, ids []StreamID) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return 0, nil
	}
	e := k.data[key]
	if e.val.Kind != KindStream {
		return 0, ErrWrongType
	}
	n := e.val.Stream.del(ids)
	if n > 0 {
		k.bumpVersion(key)
	}
	return n, nil
}

// XTrim removes entries from the head until length <= maxlen.
func (k *Keyspace) XTrim(key string, maxlen int) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.purgeIfExpired(key) {
		return 0, nil
	}
	e := k.data[key]
	if e.val.Kind != KindStream {
		return 0, ErrWrongType
	}
	n := e.val.Stream.trim(maxlen)
	if n > 0 {
		k.bumpVersion(key)
	}
	return n, nil
}
