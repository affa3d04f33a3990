package strip

import (
	"fmt"
	"io"
	"math/bits"
	"sync"
	"time"

	"periph.io/x/conn/v3"
)

// WS2812-class pulse windows for a "1" and a "0".
const (
	HighMinNs = 550
	HighMaxNs = 850
	LowMinNs  = 200
	LowMaxNs  = 500
)

// Codes are the serial symbol bytes for one data bit. Sent MSB first at the
// right bit rate, the leading ones of each byte form the LED high pulse.
type Codes struct {
	High uint8 // long pulse, logical 1
	Low  uint8 // short pulse, logical 0
}

var DefaultCodes = Codes{High: 0xF0, Low: 0xC0}

// SymbolsPerCell is the number of symbol bytes one LED takes on the wire.
const SymbolsPerCell = 3 * 8

// Encoder turns palette cells into GRB symbol streams.
type Encoder struct {
	brightness uint8
	codes      Codes
	// lut[v] is the 8 symbols for data byte v, MSB first.
	lut [256][8]byte
}

func NewEncoder(codes Codes, brightness uint8) *Encoder {
	e := &Encoder{brightness: brightness, codes: codes}
	for v := 0; v < 256; v++ {
		for i := 0; i < 8; i++ {
			if v&(0x80>>i) != 0 {
				e.lut[v][i] = codes.High
			} else {
				e.lut[v][i] = codes.Low
			}
		}
	}
	return e
}

// EncodeCell writes the 24 symbols of one cell, green then red then blue.
func (e *Encoder) EncodeCell(dst []byte, c Color) {
	rgb := Expand(c, e.brightness)
	copy(dst[0:8], e.lut[rgb.G][:])
	copy(dst[8:16], e.lut[rgb.R][:])
	copy(dst[16:24], e.lut[rgb.B][:])
}

// Encode writes len(cells)*SymbolsPerCell symbols into dst and returns the
// count written. dst must be large enough.
func (e *Encoder) Encode(dst []byte, cells []Color) int {
	for i, c := range cells {
		e.EncodeCell(dst[i*SymbolsPerCell:], c)
	}
	return len(cells) * SymbolsPerCell
}

// Timing is the pulse widths a pair of codes produces at a bit rate.
type Timing struct {
	BitNs  float64
	ByteNs float64
	HighNs float64
	LowNs  float64
}

func (t Timing) HighOK() bool { return t.HighNs >= HighMinNs && t.HighNs <= HighMaxNs }
func (t Timing) LowOK() bool  { return t.LowNs >= LowMinNs && t.LowNs <= LowMaxNs }

// CheckTiming computes the high pulse of each code at speedHz.
func CheckTiming(codes Codes, speedHz int) Timing {
	if speedHz <= 0 {
		return Timing{}
	}
	bitNs := 1e9 / float64(speedHz)
	return Timing{
		BitNs:  bitNs,
		ByteNs: 8 * bitNs,
		HighNs: float64(bits.LeadingZeros8(^codes.High)) * bitNs,
		LowNs:  float64(bits.LeadingZeros8(^codes.Low)) * bitNs,
	}
}

// latchBytes is the number of idle (zero) bytes that hold the line low for
// at least reset at speedHz.
func latchBytes(reset time.Duration, speedHz int) int {
	if reset <= 0 || speedHz <= 0 {
		return 0
	}
	byteNs := int64(8e9) / int64(speedHz)
	if byteNs == 0 {
		byteNs = 1
	}
	return int((reset.Nanoseconds() + byteNs - 1) / byteNs)
}

// NRZ drives a WS2812-class strip through a byte-oriented synchronous serial
// port. A frame is sent as a single transaction with ticks masked. Any gap
// between bits longer than the strip's reset time would latch a partial
// frame.
type NRZ struct {
	mu     sync.Mutex
	conn   Conn
	closer io.Closer
	mask   Masker
	enc    *Encoder
	count  int
	frame  []byte // symbols followed by the zero latch tail
	nsym   int
}

type NRZOpts struct {
	Count      int
	Codes      Codes
	Brightness uint8
	SpeedHz    int
	Reset      time.Duration
}

// NewNRZ prepares a driver for count LEDs on c. mask may be nil.
func NewNRZ(c Conn, o NRZOpts, mask Masker) (*NRZ, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", o.Count)
	}
	if mask == nil {
		mask = noMask{}
	}
	nsym := o.Count * SymbolsPerCell
	frame := make([]byte, nsym+latchBytes(o.Reset, o.SpeedHz))
	if l, ok := c.(conn.Limits); ok {
		if max := l.MaxTxSize(); max > 0 && max < len(frame) {
			return nil, fmt.Errorf("frame of %d bytes exceeds port transfer limit %d", len(frame), max)
		}
	}
	d := &NRZ{
		conn:  c,
		mask:  mask,
		enc:   NewEncoder(o.Codes, o.Brightness),
		count: o.Count,
		frame: frame,
		nsym:  nsym,
	}
	if cl, ok := c.(io.Closer); ok {
		d.closer = cl
	}
	return d, nil
}

func (d *NRZ) String() string {
	return fmt.Sprintf("nrz{%d leds, %d bytes}", d.count, len(d.frame))
}

// FrameLen is the bytes sent per refresh, latch tail included.
func (d *NRZ) FrameLen() int { return len(d.frame) }

func (d *NRZ) Refresh(cells []Color) error {
	if len(cells) != d.count {
		return fmt.Errorf("%w: got %d cells, strip has %d", ErrFrameLength, len(cells), d.count)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.enc.Encode(d.frame[:d.nsym], cells)
	var err error
	d.mask.Critical(func() {
		err = d.conn.Tx(d.frame, nil)
	})
	if err != nil {
		return fmt.Errorf("nrz tx: %w", err)
	}
	return nil
}

func (d *NRZ) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}
