package policy

import "container/list"

// recency is an ordered key set: Front is the oldest, Back the newest.
type recency struct {
	order *list.List
	items map[string]*list.Element
}

func newRecency() *recency {
	return &recency{
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (r *recency) len() int { return r.order.Len() }

func (r *recency) contains(key string) bool {
	_, ok := r.items[key]
	return ok
}

// pushBack appends key if it is not tracked yet.
func (r *recency) pushBack(key string) {
	if _, ok := r.items[key]; ok {
		return
	}
	r.items[key] = r.order.PushBack(key)
}

// touch moves a tracked key to the back and reports whether it was tracked.
func (r *recency) touch(key string) bool {
	elem, ok := r.items[key]
	if ok {
		r.order.MoveToBack(elem)
	}
	return ok
}

func (r *recency) oldest() (string, bool) {
	elem := r.order.Front()
	if elem == nil {
		return "", false
	}
	return elem.Value.(string), true
}

func (r *recency) remove(key string) bool {
	elem, ok := r.items[key]
	if !ok {
		return false
	}
	r.order.Remove(elem)
	delete(r.items, key)
	return true
}

// retain drops every key not in live and returns the dropped keys.
func (r *recency) retain(live map[string]struct{}) []string {
	var dropped []string
	for e := r.order.Front(); e != nil; {
		next := e.Next()
		key := e.Value.(string)
		if _, ok := live[key]; !ok {
			r.order.Remove(e)
			delete(r.items, key)
			dropped = append(dropped, key)
		}
		e = next
	}
	return dropped
}

// keys returns the tracked keys from oldest to newest.
func (r *recency) keys() []string {
	out := make([]string, 0, r.order.Len())
	for e := r.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}
