package document

// delayedEvents queues callbacks raised while trees are being modified.
// They run once every structure is consistent again.
type delayedEvents struct {
	queue []func()
}

func (d *delayedEvents) add(fn func()) {
	d.queue = append(d.queue, fn)
}

// raise runs the queued callbacks, including any queued while running.
func (d *delayedEvents) raise() {
	for len(d.queue) > 0 {
		q := d.queue
		d.queue = nil
		for _, fn := range q {
			fn()
		}
	}
}
