package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const timeFormat = time.RFC3339Nano

// LedgerCursor is the position of the last line of a ledger page. Balance carries the
// running balance of SubaccountCode so the next page continues it.
type LedgerCursor struct {
	SubaccountCode string
	Date           time.Time
	LineID         int64
	Balance        decimal.Decimal
}

// EncodeLedgerToken creates a base64 encoded token from a ledger cursor.
func EncodeLedgerToken(c LedgerCursor) string {
	return EncodeMultiFieldToken(c.SubaccountCode, c.Date.Format(timeFormat), strconv.FormatInt(c.LineID, 10), c.Balance.String())
}

// DecodeLedgerToken parses a token built by EncodeLedgerToken.
func DecodeLedgerToken(token string) (LedgerCursor, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return LedgerCursor{}, err
	}
	if len(parts) != 4 {
		return LedgerCursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return LedgerCursor{}, fmt.Errorf("invalid pagination token format (entry date parse): %w", err)
	}
	lineID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return LedgerCursor{}, fmt.Errorf("invalid pagination token format (line id parse): %w", err)
	}
	balance, err := decimal.NewFromString(parts[3])
	if err != nil {
		return LedgerCursor{}, fmt.Errorf("invalid pagination token format (balance parse): %w", err)
	}

	return LedgerCursor{SubaccountCode: parts[0], Date: date, LineID: lineID, Balance: balance}, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}
