package js5

import (
	"sync"
	"sync/atomic"
)

// Provider supplies packed blobs for one archive. Both calls are
// non-blocking polls: nil means "not available yet, ask again".
type Provider interface {
	// FetchIndex returns the archive's packed index blob.
	FetchIndex() []byte
	// FetchGroup returns a group's packed bytes.
	FetchGroup(groupID int) []byte
}

// Request tracks one in-flight fetch. A producer fills it from its own
// goroutine; consumers poll Completed and then take Data. A completed
// request with nil data is a failed fetch.
type Request struct {
	ArchiveID int
	GroupID   int

	urgent    bool
	completed atomic.Bool
	orphaned  atomic.Bool

	mu   sync.Mutex
	data []byte
	err  error
}

// NewRequest creates a pending request.
func NewRequest(archiveID, groupID int, urgent bool) *Request {
	return &Request{ArchiveID: archiveID, GroupID: groupID, urgent: urgent}
}

// Urgent reports whether the request was queued at high priority.
func (r *Request) Urgent() bool { return r.urgent }

// Completed reports whether the producer has finished, successfully or not.
func (r *Request) Completed() bool { return r.completed.Load() }

// MarkCompleted publishes the request's final state. Call after SetData.
func (r *Request) MarkCompleted() { r.completed.Store(true) }

// Orphaned reports whether consumers stopped caring about this request.
func (r *Request) Orphaned() bool { return r.orphaned.Load() }

// MarkOrphaned tells the producer the result will be dropped. The producer
// still completes the request.
func (r *Request) MarkOrphaned() { r.orphaned.Store(true) }

// SetData stores the fetched payload.
func (r *Request) SetData(data []byte) {
	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
}

// Data returns the fetched payload, nil if absent.
func (r *Request) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Fail records why the fetch produced no data.
func (r *Request) Fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Err returns the recorded fetch failure, if any.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// maxQueuedRequests caps fetches in flight across a Client.
const maxQueuedRequests = 20

// FetchFunc performs one blocking transport round trip. Index blobs are
// addressed as (IndexArchiveID, archive id).
type FetchFunc func(archiveID, groupID int) ([]byte, error)

// Client turns a blocking FetchFunc into the polling Provider contract,
// with a bounded number of requests in flight.
type Client struct {
	fetch    FetchFunc
	inflight atomic.Int32
}

// NewClient wraps a transport fetch function.
func NewClient(fetch FetchFunc) *Client {
	return &Client{fetch: fetch}
}

// QueueRequest starts a fetch and returns its request handle, or nil when
// the queue is full.
func (c *Client) QueueRequest(archiveID, groupID int, urgent bool) *Request {
	if c.inflight.Load() >= maxQueuedRequests {
		return nil
	}
	c.inflight.Add(1)

	req := NewRequest(archiveID, groupID, urgent)
	go func() {
		defer c.inflight.Add(-1)
		data, err := c.fetch(archiveID, groupID)
		if err != nil {
			req.Fail(err)
		} else {
			req.SetData(data)
		}
		req.MarkCompleted()
	}()
	return req
}

// ClientProvider adapts a Client to the Provider contract for one archive.
// The index request is queued eagerly so it is usually in flight before the
// first poll.
type ClientProvider struct {
	archiveID int
	client    *Client

	mu           sync.Mutex
	indexData    []byte
	indexRequest *Request
	requests     map[int]*Request
}

// NewClientProvider creates a provider for an archive and queues its index
// request.
func NewClientProvider(archiveID int, client *Client) *ClientProvider {
	return &ClientProvider{
		archiveID:    archiveID,
		client:       client,
		indexRequest: client.QueueRequest(IndexArchiveID, archiveID, true),
		requests:     make(map[int]*Request),
	}
}

// FetchIndex polls for the archive's packed index blob.
func (p *ClientProvider) FetchIndex() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexData != nil {
		return p.indexData
	}
	if p.indexRequest == nil {
		p.indexRequest = p.client.QueueRequest(IndexArchiveID, p.archiveID, true)
		if p.indexRequest == nil {
			return nil
		}
	}
	if !p.indexRequest.Completed() {
		return nil
	}

	data := p.indexRequest.Data()
	p.indexRequest = nil
	p.indexData = data
	return data
}

// FetchGroup polls for a group's packed bytes, queueing the fetch on first
// call. A failed fetch is retried on a later poll.
func (p *ClientProvider) FetchGroup(groupID int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	req, ok := p.requests[groupID]
	if !ok {
		req = p.client.QueueRequest(p.archiveID, groupID, true)
		if req == nil {
			return nil
		}
		p.requests[groupID] = req
	}

	if !req.Completed() {
		return nil
	}
	delete(p.requests, groupID)
	return req.Data()
}
