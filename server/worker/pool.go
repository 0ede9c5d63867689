package worker

import (
	"net"
	"sync"
)

// Pool serves accepted connections on a fixed number of goroutines
type Pool struct {
	queue chan net.Conn
	wg    sync.WaitGroup
	once  sync.Once
}

// Start starts forks workers, each running serve for one connection at a time.
// Up to backlog accepted connections wait for a free worker before Submit blocks.
func (p *Pool) Start(forks, backlog int, serve func(net.Conn)) {
	if forks < 1 {
		forks = 1
	}
	p.queue = make(chan net.Conn, backlog)

	for i := 0; i < forks; i++ {
		p.wg.Add(1)
		go func(in chan net.Conn) {
			defer p.wg.Done()
			for conn := range in {
				serve(conn)
			}
		}(p.queue)
	}
}

// Submit passes conn to the next free worker
func (p *Pool) Submit(conn net.Conn) {
	p.queue <- conn
}

// Stop ends all forks once queued connections have been served
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}
