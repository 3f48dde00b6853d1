package convert

// rewrite maps one event to its replacement. Returning false drops the event.
type rewrite func(Event) (Event, bool)

// mapStage applies a stateless rewrite.
type mapStage struct {
	src Stream
	fn  rewrite
}

func newMapStage(src Stream, fn rewrite) Stream {
	return &mapStage{src: src, fn: fn}
}

func (m *mapStage) Next() (Event, bool) {
	for {
		e, ok := m.src.Next()
		if !ok {
			return nil, false
		}
		if out, keep := m.fn(e); keep {
			return out, true
		}
	}
}

// queue is a FIFO of events a stage produced ahead of being pulled.
type queue struct {
	items []Event
}

func (q *queue) push(events ...Event) {
	q.items = append(q.items, events...)
}

func (q *queue) pop() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	e := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return e, true
}

// counter counts the events pulled through it.
type counter struct {
	src   Stream
	count int
}

// Count wraps s and reports how many events were pulled.
func Count(s Stream) (Stream, func() int) {
	c := &counter{src: s}
	return c, func() int { return c.count }
}

func (c *counter) Next() (Event, bool) {
	e, ok := c.src.Next()
	if ok {
		c.count++
	}
	return e, ok
}
