package hive

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// feed_publish operation id in the Hive protocol
const feedPublishOpID = 7

// serializeFeedPublishTx produces the binary transaction form that gets
// signed: ref block data, expiration, the single feed_publish operation and
// an empty extensions set.
func serializeFeedPublishTx(
	refBlockNum uint16, refBlockPrefix uint32, expiration time.Time, op feedPublishOperation,
) ([]byte, error) {
	buf := make([]byte, 0, 64)

	buf = binary.LittleEndian.AppendUint16(buf, refBlockNum)
	buf = binary.LittleEndian.AppendUint32(buf, refBlockPrefix)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(expiration.Unix()))

	buf = binary.AppendUvarint(buf, 1) // operation count
	buf = binary.AppendUvarint(buf, feedPublishOpID)
	buf = appendString(buf, op.Publisher)

	var err error

	if buf, err = appendAsset(buf, op.ExchangeRate.Base); err != nil {
		return nil, err
	}

	if buf, err = appendAsset(buf, op.ExchangeRate.Quote); err != nil {
		return nil, err
	}

	buf = binary.AppendUvarint(buf, 0) // extensions

	return buf, nil
}

// appendString appends a length-prefixed string
func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))

	return append(buf, s...)
}

// appendAsset appends a legacy asset such as "0.350 HBD": int64 amount in
// smallest units, precision byte, symbol padded to seven bytes.
func appendAsset(buf []byte, asset string) ([]byte, error) {
	amount, precision, symbol, err := parseAsset(asset)
	if err != nil {
		return nil, err
	}

	buf = binary.LittleEndian.AppendUint64(buf, uint64(amount))
	buf = append(buf, precision)

	var padded [7]byte
	copy(padded[:], symbol)

	return append(buf, padded[:]...), nil
}

// parseAsset splits "0.350 HBD" into amount in smallest units (350),
// precision (3) and symbol ("HBD")
func parseAsset(asset string) (int64, uint8, string, error) {
	value, symbol, ok := strings.Cut(asset, " ")
	if !ok || symbol == "" {
		return 0, 0, "", fmt.Errorf("malformed asset %q", asset)
	}

	if len(symbol) > 7 {
		return 0, 0, "", fmt.Errorf("asset symbol %q too long", symbol)
	}

	whole, frac, _ := strings.Cut(value, ".")

	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("malformed asset amount %q: %w", value, err)
	}

	if len(frac) > 15 {
		return 0, 0, "", fmt.Errorf("asset precision of %q out of range", value)
	}

	return amount, uint8(len(frac)), symbol, nil
}
