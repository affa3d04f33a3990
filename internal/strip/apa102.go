package strip

import (
	"fmt"
	"io"
	"sync"
)

type frameState uint8

const (
	sendIdle frameState = iota
	sendStart
	sendLEDs
	sendEnd
)

func (s frameState) String() string {
	switch s {
	case sendIdle:
		return "idle"
	case sendStart:
		return "start"
	case sendLEDs:
		return "leds"
	case sendEnd:
		return "end"
	}
	return "unknown"
}

// FrameSender is the transmit-complete state machine for APA102-style
// strips: a 4 byte zero start frame, one 0xE0|global,B,G,R frame per LED
// and an end frame of 0xFF bytes long enough to clock the data through the
// whole chain.
//
// Arm queues a frame and hands back its first byte. Each "byte sent" event
// then calls OnByteSent for the next one until it reports false. Only the
// event handler advances the machine once armed; Arm is the single
// initiator and refuses while a frame is in flight.
type FrameSender struct {
	state      frameState
	cells      []Color
	led        int
	cur        [4]byte
	curLen     int
	pos        int
	endLen     int
	global     uint8
	brightness uint8
}

func NewFrameSender(count int, global, brightness uint8) *FrameSender {
	end := (count + 15) / 16
	if end < 4 {
		end = 4
	}
	return &FrameSender{
		cells:      make([]Color, 0, count),
		endLen:     end,
		global:     global & 0x1F,
		brightness: brightness,
	}
}

func (f *FrameSender) Busy() bool { return f.state != sendIdle }

// Remaining is the number of bytes left in the current frame.
func (f *FrameSender) Remaining() int { return f.curLen - f.pos }

// LED is the index of the LED frame being sent.
func (f *FrameSender) LED() int { return f.led }

// Arm snapshots cells and returns the first byte to transmit.
func (f *FrameSender) Arm(cells []Color) (byte, error) {
	if f.Busy() {
		return 0, ErrBusy
	}
	f.cells = append(f.cells[:0], cells...)
	f.led = 0
	f.state = sendStart
	f.cur = [4]byte{}
	f.curLen, f.pos = 4, 0
	b, _ := f.next()
	return b, nil
}

// OnByteSent returns the next byte, or false once the end frame is out and
// the sender is idle again.
func (f *FrameSender) OnByteSent() (byte, bool) {
	if !f.Busy() {
		return 0, false
	}
	return f.next()
}

func (f *FrameSender) next() (byte, bool) {
	for f.pos >= f.curLen {
		if !f.advance() {
			return 0, false
		}
	}
	b := f.cur[f.pos%len(f.cur)]
	f.pos++
	return b, true
}

func (f *FrameSender) advance() bool {
	switch f.state {
	case sendStart:
		if len(f.cells) == 0 {
			f.beginEnd()
			return true
		}
		f.state = sendLEDs
		f.led = 0
		f.loadLED()
	case sendLEDs:
		f.led++
		if f.led >= len(f.cells) {
			f.beginEnd()
			return true
		}
		f.loadLED()
	default:
		f.state = sendIdle
		f.curLen, f.pos = 0, 0
		return false
	}
	return true
}

func (f *FrameSender) loadLED() {
	rgb := Expand(f.cells[f.led], f.brightness)
	f.cur = [4]byte{0xE0 | f.global, rgb.B, rgb.G, rgb.R}
	f.curLen, f.pos = 4, 0
}

func (f *FrameSender) beginEnd() {
	f.state = sendEnd
	f.cur = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	f.curLen, f.pos = f.endLen, 0
}

// APA102 pumps a FrameSender over a clocked SPI link, one transaction per
// byte-sent event. Clocked strips tolerate gaps, so ticks stay unmasked.
type APA102 struct {
	mu     sync.Mutex
	conn   Conn
	closer io.Closer
	fs     *FrameSender
	count  int
	one    [1]byte
}

func NewAPA102(c Conn, count int, global, brightness uint8) (*APA102, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	d := &APA102{conn: c, fs: NewFrameSender(count, global, brightness), count: count}
	if cl, ok := c.(io.Closer); ok {
		d.closer = cl
	}
	return d, nil
}

func (d *APA102) String() string { return fmt.Sprintf("apa102{%d leds}", d.count) }

func (d *APA102) Refresh(cells []Color) error {
	if len(cells) != d.count {
		return fmt.Errorf("%w: got %d cells, strip has %d", ErrFrameLength, len(cells), d.count)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.fs.Arm(cells)
	if err != nil {
		return err
	}
	for ok := true; ok; b, ok = d.fs.OnByteSent() {
		d.one[0] = b
		if err := d.conn.Tx(d.one[:], nil); err != nil {
			d.abort()
			return fmt.Errorf("apa102 tx: %w", err)
		}
	}
	return nil
}

// abort drains the sender so the next Refresh can arm. The strip keeps a
// partial frame until then.
func (d *APA102) abort() {
	for _, ok := d.fs.OnByteSent(); ok; _, ok = d.fs.OnByteSent() {
	}
}

func (d *APA102) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}
