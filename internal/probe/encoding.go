package probe

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detector guesses the character set of a byte sample. Confidence is in
// [0, 1].
type Detector interface {
	Detect(sample []byte) (charset string, confidence float64, err error)
}

// charsetDetector adapts chardet's text detector (ICU byte-distribution
// recognisers) to Detector.
type charsetDetector struct{ d *chardet.Detector }

// NewCharsetDetector returns the statistical detector used by default.
func NewCharsetDetector() Detector {
	return charsetDetector{d: chardet.NewTextDetector()}
}

func (c charsetDetector) Detect(sample []byte) (string, float64, error) {
	res, err := c.d.DetectBest(sample)
	if err != nil {
		return "", 0, err
	}
	return res.Charset, float64(res.Confidence) / 100, nil
}

// Encoding is the detected character set name and the detector's confidence.
type Encoding struct {
	Name       string
	Confidence float64
}

// resolveEncoding applies, in order: explicit override, UTF-8 BOM, the
// detector. A low-confidence, failed or undecodable guess degrades to UTF-8
// while keeping the detector's confidence for reporting.
func resolveEncoding(head []byte, opt Options) Result[Encoding] {
	if opt.Encoding != "" {
		name := strings.ToLower(opt.Encoding)
		if _, err := lookupEncoding(name); err != nil {
			return degraded(Encoding{Name: DefaultEncoding}, "override %q: %v", opt.Encoding, err)
		}
		return detected(Encoding{Name: name, Confidence: 1})
	}
	if len(head) == 0 {
		return degraded(Encoding{Name: DefaultEncoding}, "empty sample")
	}
	if bytes.HasPrefix(head, utf8BOM) {
		return detected(Encoding{Name: DefaultEncoding, Confidence: 1})
	}

	name, conf, err := opt.Detector.Detect(head)
	if err != nil {
		return degraded(Encoding{Name: DefaultEncoding}, "detector: %v", err)
	}
	name = strings.ToLower(name)
	if conf < opt.MinConfidence {
		return degraded(Encoding{Name: DefaultEncoding, Confidence: conf},
			"%s confidence %.2f below %.2f", name, conf, opt.MinConfidence)
	}
	if _, err := lookupEncoding(name); err != nil {
		return degraded(Encoding{Name: DefaultEncoding, Confidence: conf}, "unsupported charset %q", name)
	}
	return detected(Encoding{Name: name, Confidence: conf})
}

// lookupEncoding maps a charset name to a decoder. UTF-8 variants strip a
// leading BOM; UTF-16 honours one.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return unicode.UTF8BOM, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("probe: unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// decodeSample decodes the byte sample to UTF-8 text. When the sample was
// cut at the byte limit, the trailing partial line is dropped.
func decodeSample(head []byte, name string, truncated bool) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(head)
	if err != nil {
		return "", fmt.Errorf("probe: decode sample: %w", err)
	}
	text := string(out)
	if truncated {
		if i := strings.LastIndexByte(text, '\n'); i > 0 {
			text = text[:i+1]
		}
	}
	return text, nil
}

// NewDecodingReader wraps r so that it yields UTF-8 text decoded from the
// named encoding.
func NewDecodingReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
