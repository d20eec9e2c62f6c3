package deck

// Mutation reports what Sync did to the rotation.
type Mutation int

const (
	Unchanged Mutation = iota
	Inserted
	Removed
)

func (m Mutation) String() string {
	switch m {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// ConditionalPosition is where a conditional slide enters the rotation.
const ConditionalPosition = 1

// Sync makes the presence of the conditional slide k match present. Only
// transitions mutate the deck; repeated calls with the same value are no-ops.
func (d *Deck) Sync(k Kind, present bool) Mutation {
	switch {
	case present && !d.Contains(k):
		d.insert(k, ConditionalPosition)
		return Inserted
	case !present && d.Contains(k):
		d.remove(k)
		return Removed
	}
	return Unchanged
}

// insert places a conditional slide at pos and re-anchors playback on the
// kind that was playing.
func (d *Deck) insert(k Kind, pos int) {
	playing := d.Current()
	pos = min(max(pos, 0), len(d.slides))
	s := Slide{Kind: k, Conditional: true}
	d.slides = append(d.slides[:pos], append([]Slide{s}, d.slides[pos:]...)...)
	if len(d.slides) > 1 {
		d.index = d.find(playing)
	}
}

// remove takes k out of rotation. If k is playing, the slide that followed
// it becomes pending and is entered by the next Advance.
func (d *Deck) remove(k Kind) {
	i := d.find(k)
	if i < 0 || len(d.slides) == 1 {
		return
	}
	playing := d.Current()
	next := d.slides[(i+1)%len(d.slides)].Kind
	d.slides = append(d.slides[:i], d.slides[i+1:]...)

	if playing == k {
		d.pending = next
		d.hasPending = true
		d.index = d.find(next)
		d.page = 0
		return
	}
	if d.hasPending && d.pending == k {
		// the pending target itself vanished; fall through to its successor
		d.pending = next
	}
	d.index = d.find(playing)
}

// Reorder replaces the rotation with order, keeping conditional slides at
// their position and playback on the playing kind when it survives.
func (d *Deck) Reorder(order []Kind) {
	if len(order) == 0 {
		return
	}
	playing := d.Current()
	var cond []Slide
	for _, s := range d.slides {
		if s.Conditional {
			cond = append(cond, s)
		}
	}
	d.slides = d.slides[:0]
	for _, k := range order {
		d.slides = append(d.slides, Slide{Kind: k})
	}
	for _, s := range cond {
		pos := min(ConditionalPosition, len(d.slides))
		d.slides = append(d.slides[:pos], append([]Slide{s}, d.slides[pos:]...)...)
	}
	if i := d.find(playing); i >= 0 {
		d.index = i
		return
	}
	d.index = 0
	d.page = 0
	if d.slides[0].Kind == d.paged {
		d.resample()
	}
}
