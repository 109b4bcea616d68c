package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is how much of the input is buffered for BOM and charset
// detection.
const sniffLen = 4096

type bom struct {
	prefix  []byte
	decoder func() *encoding.Decoder
	strip   bool
}

var boms = []bom{
	{prefix: []byte{0xEF, 0xBB, 0xBF}, strip: true},
	{prefix: []byte{0xFF, 0xFE}, decoder: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder},
	{prefix: []byte{0xFE, 0xFF}, decoder: unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder},
}

// charsets maps chardet results to decoders for the encodings uploaded
// expense sheets show up in. Anything else falls back to Windows-1252,
// which covers the usual sources of western-European exports.
var charsets = map[string]func() *encoding.Decoder{
	"ISO-8859-1":   charmap.Windows1252.NewDecoder,
	"windows-1252": charmap.Windows1252.NewDecoder,
	"ISO-8859-9":   charmap.ISO8859_9.NewDecoder,
	"ISO-8859-15":  charmap.ISO8859_15.NewDecoder,
}

// NewUTF8Reader wraps r so that its content reads as UTF-8 regardless of
// the original encoding. A BOM wins over every heuristic; valid UTF-8
// passes through untouched; everything else goes through chardet with a
// Windows-1252 fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(buf, b.prefix) {
			continue
		}

		if b.strip {
			_, _ = br.Discard(len(b.prefix))
			return br, nil
		}

		return transform.NewReader(br, b.decoder()), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == "UTF-8" {
			return br, nil
		}

		if newDecoder, ok := charsets[result.Charset]; ok {
			return transform.NewReader(br, newDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}
