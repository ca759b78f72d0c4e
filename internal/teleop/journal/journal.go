// Package journal keeps an audit trail of the commands sent by the operator.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/log"
)

const (
	defaultQueueSize = 64
	uploadTimeout    = 10 * time.Second
	flushTimeout     = 3 * time.Second
)

// Journal records outbound commands.
type Journal interface {
	// Record queues msg for archival. It never blocks.
	Record(dest string, msg imc.Message)

	// Run archives queued records until ctx is done, then flushes what is left.
	Run(ctx context.Context) error
}

// ObjectStore stores one object per record.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Entry is the archived form of one command.
type Entry struct {
	Time        time.Time       `json:"time"`
	Actor       string          `json:"actor"`
	Destination string          `json:"destination"`
	Type        imc.Type        `json:"type"`
	Message     json.RawMessage `json:"message"`
}

type entry struct {
	Entry
	seq uint64
}

// Uploader is a Journal that writes every entry to an ObjectStore.
type Uploader struct {
	actor string
	store ObjectStore
	clock clock.PassiveClock

	queue chan entry
	seq   atomic.Uint64
}

var _ Journal = (*Uploader)(nil)

func NewUploader(actor string, store ObjectStore, clk clock.PassiveClock) *Uploader {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Uploader{
		actor: actor,
		store: store,
		clock: clk,
		queue: make(chan entry, defaultQueueSize),
	}
}

func (u *Uploader) Record(dest string, msg imc.Message) {
	payload, err := imc.Marshal(msg)
	if err != nil {
		log.Warn("Not journaling unencodable command", "type", msg.Type(), "err", err)
		return
	}

	e := entry{
		Entry: Entry{
			Time:        u.clock.Now(),
			Actor:       u.actor,
			Destination: dest,
			Type:        msg.Type(),
			Message:     payload,
		},
		seq: u.seq.Add(1),
	}

	select {
	case u.queue <- e:
	default:
		log.Warn("Command journal full, dropping record", "type", e.Type, "destination", dest)
	}
}

func (u *Uploader) Run(ctx context.Context) error {
	for {
		select {
		case e := <-u.queue:
			u.upload(ctx, e)
		case <-ctx.Done():
			u.flush()
			return nil
		}
	}
}

func (u *Uploader) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for {
		select {
		case e := <-u.queue:
			u.upload(ctx, e)
		default:
			return
		}
	}
}

func (u *Uploader) upload(ctx context.Context, e entry) {
	body, err := json.Marshal(e.Entry)
	if err != nil {
		log.Error(err, "Failed to encode journal entry", "type", e.Type)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := Key(e.Time, e.seq, e.Type)
	if err := u.store.Put(ctx, key, body); err != nil {
		log.Error(err, "Failed to upload journal entry", "key", key)
		return
	}
	log.Debug("Journaled command", "key", key)
}

// Key is the object key of an entry: commands/<yyyy>/<mm>/<dd>/<hhmmss.nnnnnnnnn>-<seq>-<type>.json.
func Key(t time.Time, seq uint64, typ imc.Type) string {
	t = t.UTC()
	return fmt.Sprintf("commands/%s/%s-%06d-%s.json", t.Format("2006/01/02"), t.Format("150405.000000000"), seq, typ)
}

// Nop discards every record.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) Record(string, imc.Message) {}

func (Nop) Run(context.Context) error { return nil }
