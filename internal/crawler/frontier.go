package crawler

import "sync"

// frontier is the breadth-first work queue for one crawl run. It owns the
// pending items and the visited set; the check-and-insert into the visited
// set happens atomically with the dequeue, so no URL is ever handed out
// twice. Workers block in Next while the queue is drained but siblings are
// still in flight, since those may enqueue more work.
type frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []CrawlItem
	visited  map[string]bool
	inflight int
	closed   bool
}

func newFrontier(seeds []string) *frontier {
	f := &frontier{
		visited: make(map[string]bool),
	}
	f.cond = sync.NewCond(&f.mu)

	for _, u := range seeds {
		f.queue = append(f.queue, CrawlItem{URL: u, Depth: 0})
	}
	return f
}

// Next dequeues the head item, skipping URLs already visited, and marks the
// returned item's URL visited. It blocks while the queue is empty but work
// is in flight. The second return value is false once the frontier is
// exhausted or closed.
func (f *frontier) Next() (CrawlItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return CrawlItem{}, false
		}

		for len(f.queue) > 0 {
			item := f.queue[0]
			f.queue = f.queue[1:]

			if f.visited[item.URL] {
				continue
			}
			f.visited[item.URL] = true
			f.inflight++
			return item, true
		}

		if f.inflight == 0 {
			return CrawlItem{}, false
		}
		f.cond.Wait()
	}
}

// Done finishes the in-flight item obtained from Next and enqueues its
// accepted children.
func (f *frontier) Done(children []CrawlItem) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queue = append(f.queue, children...)
	f.inflight--
	f.cond.Broadcast()
}

// Close wakes all waiters and makes Next return false. Used for
// cancellation and when the page budget is reached.
func (f *frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// VisitedURLs returns a snapshot of every URL handed out so far.
func (f *frontier) VisitedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls := make([]string, 0, len(f.visited))
	for u := range f.visited {
		urls = append(urls, u)
	}
	return urls
}
