package assistant

import "io"

// ProgressFunc receives an upload percentage in [0,100]. Calls arrive on the
// goroutine streaming the request body; implementations must not block.
type ProgressFunc func(percent int)

type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	last  int
	fn    ProgressFunc
}

// WithProgress wraps r so that fn observes a monotonically non-decreasing
// percentage of total consumed, ending at 100 when all bytes were read.
// When total is unknown (<= 0) fn is called once with 0.
func WithProgress(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	pct := 0
	if p.total > 0 {
		pct = int(float64(p.sent)/float64(p.total)*100 + 0.5)
		if pct > 100 {
			pct = 100
		}
	}
	if pct <= p.last {
		return
	}
	p.last = pct
	p.fn(pct)
}
