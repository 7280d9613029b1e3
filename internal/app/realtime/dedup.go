package realtime

// Dedup drops repeated message events seen through overlapping subscriptions
// (for example a chat feed and the participant's user feed).
type Dedup struct {
	limit int
	seen  map[string]struct{}
	order []string
}

func NewDedup(limit int) *Dedup {
	if limit <= 0 {
		limit = 512
	}
	return &Dedup{limit: limit, seen: make(map[string]struct{}, limit)}
}

// Seen reports whether ev was already observed and records it otherwise.
// Events without a message id are never considered duplicates.
func (d *Dedup) Seen(ev Event) bool {
	if ev.MessageID == "" {
		return false
	}
	key := ev.Type + ":" + ev.MessageID
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	if len(d.order) > d.limit {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	return false
}

// Forget drops ev so a later delivery of it is accepted again.
func (d *Dedup) Forget(ev Event) {
	if ev.MessageID == "" {
		return
	}
	key := ev.Type + ":" + ev.MessageID
	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}
