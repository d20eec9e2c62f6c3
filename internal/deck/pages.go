package deck

// SetPool replaces the item pool of the paged slide. The sample shown
// during a visit is not touched, except when it is empty (cold start), in
// which case a first sample is drawn right away.
func (d *Deck) SetPool(items []any) {
	d.pool = append(d.pool[:0:0], items...)
	if len(d.sample) == 0 {
		d.resample()
		if d.Current() == d.paged {
			d.page = 0
		}
	}
}

// Pool returns the number of pooled items.
func (d *Deck) Pool() int { return len(d.pool) }

// Sample returns the items drawn for the current visit of the paged slide.
func (d *Deck) Sample() []any { return d.sample }

// PageItem returns the sampled item for the playing page of the paged slide.
func (d *Deck) PageItem() (any, bool) {
	if d.Current() != d.paged || d.page >= len(d.sample) {
		return nil, false
	}
	return d.sample[d.page], true
}

// resample draws min(len(pool), limit) distinct items from the pool.
func (d *Deck) resample() {
	n := min(len(d.pool), d.limit)
	if n <= 0 {
		d.sample = nil
		return
	}
	perm := d.rng.Perm(len(d.pool))
	sample := make([]any, n)
	for i := range n {
		sample[i] = d.pool[perm[i]]
	}
	d.sample = sample
}
