package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// ErrUnknownFormatVersion is an InvalidQuery-class decode error: the
// leading version byte of a FLAT_NORMALIZED_COMPRESSED payload did not
// match any version this codec understands.
var ErrUnknownFormatVersion = errors.New("wire: unknown compressed format version")

// formatVersion is the single byte written ahead of every LZ4 frame.
// Bumping it is a breaking wire change; Decode rejects any other value
// rather than guessing at a legacy layout.
const formatVersion byte = 1

// Encode serializes v as JSON and, for FlatNormalizedCompressed, wraps
// the payload in a self-contained LZ4 frame behind a one-byte format
// version prefix: the dictionary is not shared, so each message is
// self-contained.
func Encode(v any, format Format) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal: %w", err)
	}
	if format == FlatNormalized {
		return payload, nil
	}

	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("wire: lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("wire: lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode into v, which must be a pointer.
func Decode(data []byte, format Format, v any) error {
	if format == FlatNormalized {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("wire: unmarshal: %w", err)
		}
		return nil
	}

	if len(data) < 1 {
		return fmt.Errorf("wire: empty compressed payload: %w", ErrUnknownFormatVersion)
	}
	version, body := data[0], data[1:]
	if version != formatVersion {
		return fmt.Errorf("wire: version %d: %w", version, ErrUnknownFormatVersion)
	}

	payload, err := io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
	if err != nil {
		return fmt.Errorf("wire: lz4 decompress: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire: unmarshal: %w", err)
	}
	return nil
}
